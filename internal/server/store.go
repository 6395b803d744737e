package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/persist"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// Store is the persistence the API needs. *db.DB implements it.
type Store interface {
	persist.Saver

	Ping(ctx context.Context) error

	CreateUserWithPassword(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	CreateSlideshow(ctx context.Context, userID uuid.UUID, title string, settings types.GenerationSettings) (*types.Slideshow, error)
	ListSlideshows(ctx context.Context, userID uuid.UUID) ([]types.Slideshow, error)
	GetSlideshow(ctx context.Context, id, userID uuid.UUID) (*types.Slideshow, error)
	UpdateSlideshow(ctx context.Context, id, userID uuid.UUID, update db.SlideshowUpdate) (*types.Slideshow, error)
	DeleteSlideshow(ctx context.Context, id, userID uuid.UUID) error

	ListSlides(ctx context.Context, slideshowID uuid.UUID) ([]db.SlideRecord, error)
	GetSlide(ctx context.Context, id uuid.UUID) (*db.SlideRecord, error)
	AppendSlide(ctx context.Context, slideshowID uuid.UUID, slide types.Slide) (*db.SlideRecord, error)
	ReplaceSlides(ctx context.Context, slideshowID uuid.UUID, slides []types.Slide) ([]db.SlideRecord, error)
	UpdateSlide(ctx context.Context, id uuid.UUID, update db.SlideUpdate) (*db.SlideRecord, error)
	DeleteSlide(ctx context.Context, id uuid.UUID) error
	SwapSlides(ctx context.Context, slideshowID uuid.UUID, i, j int) error

	LoadEditorState(ctx context.Context, slideshowID uuid.UUID) (*db.EditorState, error)
}

var _ Store = (*db.DB)(nil)
