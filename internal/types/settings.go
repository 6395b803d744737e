//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// GenerationSettings holds the user's generation knobs
type GenerationSettings struct {
	Tone       string `json:"tone" yaml:"tone" validate:"oneof=educational conversational motivational analytical casual"`
	Complexity string `json:"complexity" yaml:"complexity" validate:"oneof=simple intermediate advanced"`
	MaxSlides  int    `json:"maxSlides" yaml:"max_slides" validate:"min=1,max=20"`
	Focus      string `json:"focus" yaml:"focus" validate:"oneof=key_points tips facts steps terms"`
	Hook       bool   `json:"hook" yaml:"hook"`
}

// DefaultGenerationSettings returns the settings a new slideshow starts with
func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		Tone:       "educational",
		Complexity: "intermediate",
		MaxSlides:  8,
		Focus:      "key_points",
		Hook:       true,
	}
}

// WithDefaults fills zero-valued fields from DefaultGenerationSettings.
// Hook is left as-is since false is a meaningful choice.
func (g GenerationSettings) WithDefaults() GenerationSettings {
	d := DefaultGenerationSettings()
	if g.Tone == "" {
		g.Tone = d.Tone
	}
	if g.Complexity == "" {
		g.Complexity = d.Complexity
	}
	if g.MaxSlides == 0 {
		g.MaxSlides = d.MaxSlides
	}
	if g.Focus == "" {
		g.Focus = d.Focus
	}
	return g
}

var settingsValidator = validator.New()

// Validate checks every setting against its allowed values
func (g GenerationSettings) Validate() error {
	if err := settingsValidator.Struct(g); err != nil {
		return fmt.Errorf("invalid generation settings: %w", err)
	}
	return nil
}

// FocusLabel renders the focus value for prompts, e.g. "key points"
func (g GenerationSettings) FocusLabel() string {
	return strings.ReplaceAll(g.Focus, "_", " ")
}

// AspectRatio is an export canvas size
type AspectRatio string

// Supported export sizes
const (
	AspectPortrait  AspectRatio = "1080x1920"
	AspectSquare    AspectRatio = "1080x1080"
	AspectLandscape AspectRatio = "1440x1080"
)

// Dimensions returns the pixel width and height of the aspect ratio
func (a AspectRatio) Dimensions() (int, int, error) {
	switch a {
	case AspectPortrait, "":
		return 1080, 1920, nil
	case AspectSquare:
		return 1080, 1080, nil
	case AspectLandscape:
		return 1440, 1080, nil
	default:
		return 0, 0, fmt.Errorf("unsupported aspect ratio %q", string(a))
	}
}

// ImageFormat is a raster output encoding
type ImageFormat string

// Supported image formats
const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// ParseImageFormat accepts png, jpeg and jpg
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// Extension returns the file extension without a dot
func (f ImageFormat) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// ContentType returns the MIME type of the format
func (f ImageFormat) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}
