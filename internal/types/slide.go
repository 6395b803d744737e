// Package types provides type definitions for structured data used throughout the slideshow studio.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// SlideType is the variant tag of a slide
type SlideType string

const (
	// SlideTypeNormal renders title, divider and description
	SlideTypeNormal SlideType = "normal"
	// SlideTypeHook renders an eyebrow line and a hook line, never a description
	SlideTypeHook SlideType = "hook"
)

// Align is the horizontal text alignment of a slide
type Align string

// Alignment values
const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// FontFamily names one of the supported slide typefaces
type FontFamily string

// Font families
const (
	FontBebas   FontFamily = "bebas"
	FontJakarta FontFamily = "jakarta"
	FontMono    FontFamily = "mono"
)

// Text limits, counted in characters
const (
	MaxTitleLen       = 80
	MaxHookTitleLen   = 60
	MaxDescriptionLen = 300
	MaxEyebrowLen     = 20
)

// Font size ranges (inclusive)
const (
	MinTitleSize = 16
	MaxTitleSize = 64
	MinDescSize  = 8
	MaxDescSize  = 24
)

// NoPreset marks bgPresetIdx as inactive because an image is the background source
const NoPreset = -1

// DefaultEyebrow is shown above a hook line when no eyebrow was written
const DefaultEyebrow = "STOP SCROLLING"

// Slide is one visual unit of a slideshow. The JSON layout matches the
// slide_data column so stored records round-trip without translation.
type Slide struct {
	ID          string     `json:"id" validate:"required"`
	Type        SlideType  `json:"type" validate:"oneof=normal hook"`
	Eyebrow     string     `json:"eyebrow,omitempty" validate:"max=20"`
	Title       string     `json:"title" validate:"max=80"`
	Description string     `json:"description" validate:"max=300"`
	Align       Align      `json:"align" validate:"oneof=left center right"`
	TitleColor  string     `json:"titleColor" validate:"hexcolor"`
	DescColor   string     `json:"descColor" validate:"hexcolor"`
	TitleFont   FontFamily `json:"titleFont" validate:"oneof=bebas jakarta mono"`
	DescFont    FontFamily `json:"descFont" validate:"oneof=bebas jakarta mono"`
	TitleSize   int        `json:"titleSize"`
	DescSize    int        `json:"descSize"`

	BgPresetIdx    int     `json:"bgPresetIdx"`
	BgImage        *string `json:"bgImage"`
	OverlayColor   string  `json:"overlayColor" validate:"hexcolor"`
	OverlayOpacity int     `json:"overlayOpacity" validate:"min=0,max=100"`
	AccentColor    string  `json:"accentColor" validate:"hexcolor"`
	ShowDivider    bool    `json:"showDivider"`
}

// Baseline style values applied to slides when no style master is active
const (
	BaselineAlign          = AlignCenter
	BaselineOverlayColor   = "#000000"
	BaselineOverlayOpacity = 55
	BaselineAccentColor    = "#00d4ff"
	BaselineTitleColor     = "#ffffff"
	BaselineDescColor      = "#d4d4d4"
	BaselineTitleSize      = 30
	BaselineDescSize       = 10
	BaselineTitleFont      = FontBebas
	BaselineDescFont       = FontJakarta
)

// BaselineSlide returns an empty normal slide carrying the hardcoded baseline style
func BaselineSlide(id string) Slide {
	return Slide{
		ID:             id,
		Type:           SlideTypeNormal,
		Align:          BaselineAlign,
		TitleColor:     BaselineTitleColor,
		DescColor:      BaselineDescColor,
		TitleFont:      BaselineTitleFont,
		DescFont:       BaselineDescFont,
		TitleSize:      BaselineTitleSize,
		DescSize:       BaselineDescSize,
		BgPresetIdx:    0,
		BgImage:        nil,
		OverlayColor:   BaselineOverlayColor,
		OverlayOpacity: BaselineOverlayOpacity,
		AccentColor:    BaselineAccentColor,
		ShowDivider:    true,
	}
}

// IsHook reports whether the slide is a hook opener
func (s *Slide) IsHook() bool {
	return s.Type == SlideTypeHook
}

// TitleLimit returns the maximum title length for the slide's type
func (s *Slide) TitleLimit() int {
	if s.IsHook() {
		return MaxHookTitleLen
	}
	return MaxTitleLen
}

// DisplayEyebrow returns the eyebrow text, falling back to the default
func (s *Slide) DisplayEyebrow() string {
	if s.Eyebrow == "" {
		return DefaultEyebrow
	}
	return s.Eyebrow
}

// HasImage reports whether an embedded image is the active background source
func (s *Slide) HasImage() bool {
	return s.BgImage != nil && *s.BgImage != ""
}

// SetBackgroundPreset selects a palette preset and clears any image
func (s *Slide) SetBackgroundPreset(idx int) error {
	if idx < 0 || idx >= len(BGPresets) {
		return fmt.Errorf("background preset %d out of range [0,%d)", idx, len(BGPresets))
	}
	s.BgPresetIdx = idx
	s.BgImage = nil
	return nil
}

// SetBackgroundImage makes an embedded image payload the background source
func (s *Slide) SetBackgroundImage(payload string) error {
	if payload == "" {
		return fmt.Errorf("background image payload is empty")
	}
	s.BgImage = &payload
	s.BgPresetIdx = NoPreset
	return nil
}

// Normalize clamps numeric attributes into range and repairs the
// exclusive-background invariant. An image wins over a preset; a slide
// with neither falls back to preset 0.
func (s *Slide) Normalize() {
	if s.Type == "" {
		s.Type = SlideTypeNormal
	}
	s.TitleSize = clamp(s.TitleSize, MinTitleSize, MaxTitleSize)
	s.DescSize = clamp(s.DescSize, MinDescSize, MaxDescSize)
	s.OverlayOpacity = clamp(s.OverlayOpacity, 0, 100)

	switch {
	case s.HasImage():
		s.BgPresetIdx = NoPreset
	case s.BgPresetIdx < 0 || s.BgPresetIdx >= len(BGPresets):
		s.BgImage = nil
		s.BgPresetIdx = 0
	default:
		s.BgImage = nil
	}
}

// TruncateText cuts title and description down to their limits. Used on
// model output, which is not trusted to respect the bounds.
func (s *Slide) TruncateText() {
	s.Title = truncateRunes(s.Title, s.TitleLimit())
	s.Description = truncateRunes(s.Description, MaxDescriptionLen)
	s.Eyebrow = truncateRunes(s.Eyebrow, MaxEyebrowLen)
}

var slideValidator = validator.New()

// Validate checks text bounds and attribute enums
func (s *Slide) Validate() error {
	if err := slideValidator.Struct(s); err != nil {
		return err
	}
	if utf8.RuneCountInString(s.Title) > s.TitleLimit() {
		return fmt.Errorf("title exceeds %d characters for %s slide", s.TitleLimit(), s.Type)
	}
	if s.HasImage() && s.BgPresetIdx != NoPreset {
		return fmt.Errorf("background image and preset %d are both active", s.BgPresetIdx)
	}
	if !s.HasImage() && (s.BgPresetIdx < 0 || s.BgPresetIdx >= len(BGPresets)) {
		return fmt.Errorf("no active background source")
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
