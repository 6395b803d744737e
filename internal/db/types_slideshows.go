package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// SlideRecord is one stored slide. ID is the row id, distinct from Data.ID.
type SlideRecord struct {
	ID          uuid.UUID   `json:"id"`
	SlideshowID uuid.UUID   `json:"slideshow_id"`
	OrderIndex  int         `json:"order_index"`
	Data        types.Slide `json:"slide_data"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SlideshowUpdate holds optional slideshow changes
type SlideshowUpdate struct {
	Title    *string
	Settings *types.GenerationSettings
}

// SlideUpdate holds optional slide row changes
type SlideUpdate struct {
	Data       *types.Slide
	OrderIndex *int
}

// EditorState is everything an editor needs to resume a slideshow
type EditorState struct {
	Slideshow types.Slideshow
	Slides    []types.Slide
	Masters   styles.Ledger
}
