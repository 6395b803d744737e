package editor

import (
	"github.com/jonathan/slideshow-studio/internal/types"
)

// Patch is a partial slide update. Nil fields are left unchanged. Background
// source changes go through SetBackgroundPreset / SetBackgroundImage.
type Patch struct {
	Type           *types.SlideType  `json:"type,omitempty"`
	Eyebrow        *string           `json:"eyebrow,omitempty"`
	Title          *string           `json:"title,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Align          *types.Align      `json:"align,omitempty"`
	TitleColor     *string           `json:"titleColor,omitempty"`
	DescColor      *string           `json:"descColor,omitempty"`
	TitleFont      *types.FontFamily `json:"titleFont,omitempty"`
	DescFont       *types.FontFamily `json:"descFont,omitempty"`
	TitleSize      *int              `json:"titleSize,omitempty"`
	DescSize       *int              `json:"descSize,omitempty"`
	OverlayColor   *string           `json:"overlayColor,omitempty"`
	OverlayOpacity *int              `json:"overlayOpacity,omitempty"`
	AccentColor    *string           `json:"accentColor,omitempty"`
	ShowDivider    *bool             `json:"showDivider,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply writes the set fields onto s
func (p Patch) Apply(s *types.Slide) {
	setIf(&s.Type, p.Type)
	setIf(&s.Eyebrow, p.Eyebrow)
	setIf(&s.Title, p.Title)
	setIf(&s.Description, p.Description)
	setIf(&s.Align, p.Align)
	setIf(&s.TitleColor, p.TitleColor)
	setIf(&s.DescColor, p.DescColor)
	setIf(&s.TitleFont, p.TitleFont)
	setIf(&s.DescFont, p.DescFont)
	setIf(&s.TitleSize, p.TitleSize)
	setIf(&s.DescSize, p.DescSize)
	setIf(&s.OverlayColor, p.OverlayColor)
	setIf(&s.OverlayOpacity, p.OverlayOpacity)
	setIf(&s.AccentColor, p.AccentColor)
	setIf(&s.ShowDivider, p.ShowDivider)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
