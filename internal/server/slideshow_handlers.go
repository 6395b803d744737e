package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/server/middleware"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// ownedSlideshow loads the slideshow named by the {id} path value if the
// caller owns it. Foreign slideshows are reported as not found.
func (s *Server) ownedSlideshow(r *http.Request) (*types.Slideshow, error) {
	userID, err := middleware.UserID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	return s.slideshowFor(r.Context(), id, userID)
}

func (s *Server) slideshowFor(ctx context.Context, id, userID uuid.UUID) (*types.Slideshow, error) {
	show, err := s.store.GetSlideshow(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, &ErrNotFound{Resource: "slideshow"}
	}
	return show, nil
}

func (s *Server) handleListSlideshows(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	shows, err := s.store.ListSlideshows(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if shows == nil {
		shows = []types.Slideshow{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"slideshows": shows, "count": len(shows)})
}

func (s *Server) handleCreateSlideshow(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req types.CreateSlideshowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = types.DefaultSlideshowTitle
	}
	settings := types.DefaultGenerationSettings()
	if req.Settings != nil {
		settings = req.Settings.WithDefaults()
	}

	show, err := s.store.CreateSlideshow(r.Context(), userID, title, settings)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("created slideshow", "slideshow_id", show.ID.String(), "user_id", userID.String())
	s.jsonResponse(w, http.StatusCreated, show)
}

func (s *Server) handleGetSlideshow(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, show)
}

func (s *Server) handleUpdateSlideshow(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req types.UpdateSlideshowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	update := db.SlideshowUpdate{Title: req.Title}
	if req.Settings != nil {
		settings := req.Settings.WithDefaults()
		update.Settings = &settings
	}
	updated, err := s.store.UpdateSlideshow(r.Context(), show.ID, show.UserID, update)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if updated == nil {
		s.writeError(w, &ErrNotFound{Resource: "slideshow"})
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSlideshow(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// drop the open editor without saving; its rows are about to go
	s.sessions.Discard(show.ID)
	if err := s.store.DeleteSlideshow(r.Context(), show.ID, show.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
