package rendering

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/jonathan/slideshow-studio/internal/types"
)

// fontCache parses each embedded typeface once. Faces carry glyph caches
// and are not safe for concurrent use, so every render gets its own.
type fontCache struct {
	mu     sync.Mutex
	parsed map[string]*truetype.Font
}

func newFontCache() *fontCache {
	return &fontCache{parsed: map[string]*truetype.Font{}}
}

var fontFiles = map[string][]byte{
	"gobold":    gobold.TTF,
	"gomedium":  gomedium.TTF,
	"goregular": goregular.TTF,
	"gomono":    gomono.TTF,
}

// ttfFor maps slide typefaces to the bundled Go fonts. Display titles use the
// bold face; body text uses regular.
func ttfFor(family types.FontFamily, display bool) string {
	switch family {
	case types.FontMono:
		return "gomono"
	case types.FontBebas:
		return "gobold"
	default:
		if display {
			return "gomedium"
		}
		return "goregular"
	}
}

// face returns a font face of size pixels
func (c *fontCache) face(family types.FontFamily, display bool, size float64) (font.Face, error) {
	name := ttfFor(family, display)

	c.mu.Lock()
	parsed, ok := c.parsed[name]
	if !ok {
		var err error
		parsed, err = truetype.Parse(fontFiles[name])
		if err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
		}
		c.parsed[name] = parsed
	}
	c.mu.Unlock()

	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
