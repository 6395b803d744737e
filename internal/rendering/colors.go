package rendering

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/jonathan/slideshow-studio/internal/types"
)

// parseHex parses #rgb or #rrggbb
func parseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}, nil
}

// colorOr parses s, falling back to def on error
func colorOr(s string, def color.NRGBA) color.NRGBA {
	c, err := parseHex(s)
	if err != nil {
		return def
	}
	return c
}

// gradientLine returns the endpoints of a CSS linear-gradient at angle degrees
// over a w x h box. 0deg points up, 90deg right.
func gradientLine(angle float64, w, h float64) (x0, y0, x1, y1 float64) {
	rad := angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	cx, cy := w/2, h/2
	return cx - dx*half, cy - dy*half, cx + dx*half, cy + dy*half
}

// presetGradient builds the gg gradient of a background preset
func presetGradient(p types.BGPreset, w, h float64) gg.Gradient {
	x0, y0, x1, y1 := gradientLine(p.Angle, w, h)
	g := gg.NewLinearGradient(x0, y0, x1, y1)
	for _, stop := range p.Stops {
		g.AddColorStop(stop.Pos, colorOr(stop.Color, color.NRGBA{A: 255}))
	}
	return g
}

// presetFor returns the preset of a slide, falling back to the first one
func presetFor(s types.Slide) types.BGPreset {
	if s.BgPresetIdx >= 0 && s.BgPresetIdx < len(types.BGPresets) {
		return types.BGPresets[s.BgPresetIdx]
	}
	return types.BGPresets[0]
}
