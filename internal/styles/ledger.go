// Package styles tracks style masters and propagates their style to the rest of a slide list.
//
// A slideshow has at most one master per category. Writes to a master's
// category fields fan out to every other slide; writes to non-masters stay local.
package styles

import (
	"fmt"

	"github.com/jonathan/slideshow-studio/internal/types"
)

// Category groups slide attributes that propagate together
type Category string

const (
	// Text covers alignment, text colors, font sizes and font families
	Text Category = "text"
	// Background covers preset, image, overlay, accent color and divider
	Background Category = "background"
)

// ParseCategory validates a category name
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case Text, Background:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown style category %q", s)
	}
}

// Categories lists every category in a stable order
func Categories() []Category {
	return []Category{Text, Background}
}

// Copy writes src's category fields onto dst. Fields outside the category are untouched.
func Copy(c Category, src types.Slide, dst *types.Slide) {
	switch c {
	case Text:
		dst.Align = src.Align
		dst.TitleColor = src.TitleColor
		dst.DescColor = src.DescColor
		dst.TitleSize = src.TitleSize
		dst.DescSize = src.DescSize
		dst.TitleFont = src.TitleFont
		dst.DescFont = src.DescFont
	case Background:
		dst.BgPresetIdx = src.BgPresetIdx
		if src.BgImage != nil {
			img := *src.BgImage
			dst.BgImage = &img
		} else {
			dst.BgImage = nil
		}
		dst.OverlayColor = src.OverlayColor
		dst.OverlayOpacity = src.OverlayOpacity
		dst.AccentColor = src.AccentColor
		dst.ShowDivider = src.ShowDivider
	}
}

// Ledger holds the master slide reference of each category. Nil means no master.
type Ledger struct {
	Text       *string `json:"text"`
	Background *string `json:"background"`
}

func (l *Ledger) ref(c Category) **string {
	if c == Background {
		return &l.Background
	}
	return &l.Text
}

// SetMaster designates id as the master of c, or clears it when id is nil.
// No slide is modified.
func (l *Ledger) SetMaster(c Category, id *string) {
	r := l.ref(c)
	if id == nil {
		*r = nil
		return
	}
	v := *id
	*r = &v
}

// Master returns the master id of c
func (l *Ledger) Master(c Category) (string, bool) {
	r := *l.ref(c)
	if r == nil {
		return "", false
	}
	return *r, true
}

// IsMaster reports whether id is the master of c
func (l *Ledger) IsMaster(c Category, id string) bool {
	m, ok := l.Master(c)
	return ok && m == id
}

// MasteredCategories returns the categories id is master of
func (l *Ledger) MasteredCategories(id string) []Category {
	var out []Category
	for _, c := range Categories() {
		if l.IsMaster(c, id) {
			out = append(out, c)
		}
	}
	return out
}

// Forget clears every reference to id. Used when a slide is deleted; no
// successor is picked.
func (l *Ledger) Forget(id string) {
	for _, c := range Categories() {
		if l.IsMaster(c, id) {
			l.SetMaster(c, nil)
		}
	}
}

// Prune drops references to slides no longer in the list
func (l *Ledger) Prune(slides []types.Slide) {
	present := make(map[string]struct{}, len(slides))
	for _, s := range slides {
		present[s.ID] = struct{}{}
	}
	for _, c := range Categories() {
		if m, ok := l.Master(c); ok {
			if _, found := present[m]; !found {
				l.SetMaster(c, nil)
			}
		}
	}
}

// Cascade applies the write rule after slides[idx] was mutated. For each
// category the mutated slide is master of, its category fields are copied to
// every other slide. Returns the number of slides written to.
func (l *Ledger) Cascade(slides []types.Slide, idx int) int {
	if idx < 0 || idx >= len(slides) {
		return 0
	}
	src := slides[idx]
	written := 0
	for _, c := range l.MasteredCategories(src.ID) {
		for i := range slides {
			if i == idx {
				continue
			}
			Copy(c, src, &slides[i])
			written++
		}
	}
	return written
}

// ApplyToAll copies source's category fields to every other slide once.
// Masters are not changed.
func ApplyToAll(slides []types.Slide, source types.Slide, c Category) {
	for i := range slides {
		if slides[i].ID == source.ID {
			continue
		}
		Copy(c, source, &slides[i])
	}
}

// Defaults returns a baseline slide with id, overlaid with the style of each
// active master found in slides. Used for slides created by generation or by hand.
func (l *Ledger) Defaults(slides []types.Slide, id string) types.Slide {
	out := types.BaselineSlide(id)
	for _, c := range Categories() {
		m, ok := l.Master(c)
		if !ok {
			continue
		}
		for _, s := range slides {
			if s.ID == m {
				Copy(c, s, &out)
				break
			}
		}
	}
	return out
}
