package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/server/middleware"
	"github.com/jonathan/slideshow-studio/internal/types"
)

type replaceSlidesRequest struct {
	Slides []types.Slide `json:"slides"`
}

type swapSlidesRequest struct {
	I int `json:"i"`
	J int `json:"j"`
}

type updateSlideRequest struct {
	Data       *types.Slide `json:"slide_data,omitempty"`
	OrderIndex *int         `json:"order_index,omitempty"`
}

// prepareSlide fills a missing id, normalizes ranges and validates the result
func prepareSlide(s *types.Slide) error {
	if s.ID == "" {
		s.ID = generation.NewID()
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

// detachEditor saves and closes the open editor of a slideshow so a direct
// store write is not overwritten by a later editor save. The next editor
// request reloads from the store.
func (s *Server) detachEditor(ctx context.Context, slideshowID uuid.UUID) error {
	return s.sessions.Close(ctx, slideshowID)
}

func (s *Server) handleListSlides(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.detachEditor(r.Context(), show.ID); err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.store.ListSlides(r.Context(), show.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []db.SlideRecord{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"slides": records, "count": len(records)})
}

func (s *Server) handleAppendSlide(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var slide types.Slide
	if err := decodeJSON(w, r, &slide); err != nil {
		s.writeError(w, err)
		return
	}
	if err := prepareSlide(&slide); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.detachEditor(r.Context(), show.ID); err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.store.AppendSlide(r.Context(), show.ID, slide)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, rec)
}

func (s *Server) handleReplaceSlides(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req replaceSlidesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	for i := range req.Slides {
		if err := prepareSlide(&req.Slides[i]); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := db.UniqueSlideIDs(req.Slides); err != nil {
		s.writeError(w, &ErrValidation{Field: "slides", Message: err.Error(), Cause: err})
		return
	}
	if err := s.detachEditor(r.Context(), show.ID); err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.store.ReplaceSlides(r.Context(), show.ID, req.Slides)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []db.SlideRecord{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"slides": records, "count": len(records)})
}

func (s *Server) handleSwapSlides(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req swapSlidesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.I-req.J != 1 && req.J-req.I != 1 {
		s.badRequest(w, "j", "only neighbouring slides can be swapped")
		return
	}
	if err := s.detachEditor(r.Context(), show.ID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.checkOrderIndex(r.Context(), show.ID, req.I, req.J); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SwapSlides(r.Context(), show.ID, req.I, req.J); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkOrderIndex reports ErrIndexOutOfRange unless every index addresses a stored slide
func (s *Server) checkOrderIndex(ctx context.Context, slideshowID uuid.UUID, indexes ...int) error {
	records, err := s.store.ListSlides(ctx, slideshowID)
	if err != nil {
		return err
	}
	for _, i := range indexes {
		if i < 0 || i >= len(records) {
			return editor.ErrIndexOutOfRange
		}
	}
	return nil
}

// checkMove reports whether the slide row id may move to index to. A slide
// stays put or moves one place.
func (s *Server) checkMove(ctx context.Context, slideshowID, id uuid.UUID, to int) error {
	records, err := s.store.ListSlides(ctx, slideshowID)
	if err != nil {
		return err
	}
	if to < 0 || to >= len(records) {
		return editor.ErrIndexOutOfRange
	}
	for _, rec := range records {
		if rec.ID != id {
			continue
		}
		if d := to - rec.OrderIndex; d > 1 || d < -1 {
			return fmt.Errorf("move %d to %d: %w", rec.OrderIndex, to, db.ErrNotAdjacent)
		}
		return nil
	}
	return &ErrNotFound{Resource: "slide"}
}

// ownedSlide loads the slide row named by {id} and the slideshow it belongs to
func (s *Server) ownedSlide(r *http.Request) (*db.SlideRecord, *types.Slideshow, error) {
	userID, err := middleware.UserID(r)
	if err != nil {
		return nil, nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.store.GetSlide(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, &ErrNotFound{Resource: "slide"}
	}
	show, err := s.slideshowFor(r.Context(), rec.SlideshowID, userID)
	if err != nil {
		// do not reveal slides of other users' slideshows
		return nil, nil, &ErrNotFound{Resource: "slide"}
	}
	return rec, show, nil
}

func (s *Server) handleUpdateSlide(w http.ResponseWriter, r *http.Request) {
	rec, show, err := s.ownedSlide(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req updateSlideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Data == nil && req.OrderIndex == nil {
		s.badRequest(w, "", "nothing to update")
		return
	}
	if req.Data != nil {
		if req.Data.ID == "" {
			req.Data.ID = rec.Data.ID
		}
		if err := prepareSlide(req.Data); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := s.detachEditor(r.Context(), show.ID); err != nil {
		s.writeError(w, err)
		return
	}
	if req.OrderIndex != nil {
		if err := s.checkMove(r.Context(), show.ID, rec.ID, *req.OrderIndex); err != nil {
			s.writeError(w, err)
			return
		}
	}

	updated, err := s.store.UpdateSlide(r.Context(), rec.ID, db.SlideUpdate{Data: req.Data, OrderIndex: req.OrderIndex})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSlide(w http.ResponseWriter, r *http.Request) {
	rec, show, err := s.ownedSlide(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.detachEditor(r.Context(), show.ID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.DeleteSlide(r.Context(), rec.ID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
