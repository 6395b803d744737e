//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// ExportEntry is the flattened form of one slide in a JSON export
type ExportEntry struct {
	Index       int       `json:"index"`
	Type        SlideType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Align       Align     `json:"align"`
	AccentColor string    `json:"accentColor"`
}

// ExportDocument is the top-level JSON export
type ExportDocument struct {
	Slides []ExportEntry `json:"slides"`
}

// NewExportDocument flattens slides in list order. Index is 1-based.
func NewExportDocument(slides []Slide) ExportDocument {
	entries := make([]ExportEntry, len(slides))
	for i, s := range slides {
		entries[i] = ExportEntry{
			Index:       i + 1,
			Type:        s.Type,
			Title:       s.Title,
			Description: s.Description,
			Align:       s.Align,
			AccentColor: s.AccentColor,
		}
	}
	return ExportDocument{Slides: entries}
}

// Slideshow is a persisted collection of slides owned by a user
type Slideshow struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	Title     string             `json:"title"`
	Settings  GenerationSettings `json:"settings"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// DefaultSlideshowTitle is used when a slideshow is created without a title
const DefaultSlideshowTitle = "Untitled Slideshow"
