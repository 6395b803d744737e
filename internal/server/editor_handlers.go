package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/persist"
	"github.com/jonathan/slideshow-studio/internal/rendering"
	"github.com/jonathan/slideshow-studio/internal/sessions"
	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// editorResponse is the body of every editor endpoint
type editorResponse struct {
	Editor editor.Snapshot `json:"editor"`
	Save   persist.Status  `json:"save"`
	Slide  *types.Slide    `json:"slide,omitempty"`
	Added  *int            `json:"added,omitempty"`
}

type generateRequest struct {
	Text     string                    `json:"text"`
	URL      string                    `json:"url"`
	Batch    bool                      `json:"batch"`
	Settings *types.GenerationSettings `json:"settings,omitempty"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type backgroundRequest struct {
	Preset *int    `json:"preset,omitempty"`
	Image  *string `json:"image,omitempty"`
}

type regenerateRequest struct {
	Field string `json:"field"`
}

type masterRequest struct {
	SlideID *string `json:"slide_id"`
}

type applyAllRequest struct {
	Category string `json:"category"`
}

type selectRequest struct {
	Index *int   `json:"index,omitempty"`
	Step  string `json:"step,omitempty"`
}

// loadSaved reads a slideshow's stored editor state for the session store
func (s *Server) loadSaved(ctx context.Context, slideshowID uuid.UUID) (*sessions.Saved, error) {
	state, err := s.store.LoadEditorState(ctx, slideshowID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &ErrNotFound{Resource: "slideshow"}
	}
	return &sessions.Saved{
		Slides:   state.Slides,
		Masters:  state.Masters,
		Settings: state.Slideshow.Settings,
	}, nil
}

// openEditor returns the open editor of the caller's slideshow {id}
func (s *Server) openEditor(r *http.Request) (*sessions.Entry, error) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(r.Context(), show.ID, s.loadSaved)
}

func (s *Server) editorReply(w http.ResponseWriter, status int, entry *sessions.Entry, slide *types.Slide) {
	s.jsonResponse(w, status, editorResponse{
		Editor: entry.Editor.Snapshot(),
		Save:   entry.Flusher.Status(),
		Slide:  slide,
	})
}

// slideIndex resolves the {slide_id} path value to a list position
func slideIndex(r *http.Request, ed *editor.State) (string, int, error) {
	id := r.PathValue("slide_id")
	idx, err := ed.IndexOf(id)
	if err != nil {
		return id, 0, err
	}
	return id, idx, nil
}

func (s *Server) handleEditorSnapshot(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, nil)
}

// handleGenerate replaces the slide list from new source text, or appends the
// next batch from the captured source when batch is set
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	show, err := s.ownedSlideshow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	entry, err := s.sessions.Open(r.Context(), show.ID, s.loadSaved)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ed := entry.Editor

	settings := ed.Settings()
	if req.Settings != nil {
		settings = req.Settings.WithDefaults()
		if err := settings.Validate(); err != nil {
			s.writeError(w, validationError(err))
			return
		}
	}

	var text string
	if !req.Batch {
		switch {
		case req.Text != "" && req.URL != "":
			s.badRequest(w, "url", "give either text or url, not both")
			return
		case req.URL != "":
			src, err := s.fetcher.Fetch(r.Context(), strings.TrimSpace(req.URL))
			if err != nil {
				s.writeError(w, err)
				return
			}
			text = src.Text
		default:
			text = req.Text
		}
	}

	added, err := ed.Generate(r.Context(), s.generator, req.Batch, text, settings)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Settings != nil && settings != show.Settings {
		if _, err := s.store.UpdateSlideshow(r.Context(), show.ID, show.UserID, db.SlideshowUpdate{Settings: &settings}); err != nil {
			s.logger.Warn("failed to store generation settings", "slideshow_id", show.ID.String(), "error", err)
		}
	}

	s.logger.Info("generated slides", "slideshow_id", show.ID.String(), "batch", req.Batch, "added", added)
	s.jsonResponse(w, http.StatusOK, editorResponse{
		Editor: ed.Snapshot(),
		Save:   entry.Flusher.Status(),
		Added:  &added,
	})
}

func (s *Server) handleEditorAddSlide(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	slide := entry.Editor.AddSlide()
	s.editorReply(w, http.StatusCreated, entry, &slide)
}

func (s *Server) handleEditorPatchSlide(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var patch editor.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	if patch.Empty() {
		s.badRequest(w, "", "nothing to update")
		return
	}
	slide, err := entry.Editor.PatchSlide(r.PathValue("slide_id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, &slide)
}

func (s *Server) handleEditorMoveSlide(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	dir, err := editor.ParseDirection(req.Direction)
	if err != nil {
		s.badRequest(w, "direction", err.Error())
		return
	}
	_, idx, err := slideIndex(r, entry.Editor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := entry.Editor.MoveSlide(idx, dir); err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, nil)
}

func (s *Server) handleEditorDeleteSlide(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	_, idx, err := slideIndex(r, entry.Editor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	removed, err := entry.Editor.DeleteSlide(idx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, &removed)
}

// handleEditorBackground switches a slide to a palette preset or an embedded image
func (s *Server) handleEditorBackground(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req backgroundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("slide_id")

	var slide types.Slide
	switch {
	case (req.Preset == nil) == (req.Image == nil):
		s.badRequest(w, "", "give exactly one of preset or image")
		return
	case req.Preset != nil:
		if *req.Preset < 0 || *req.Preset >= len(types.BGPresets) {
			s.badRequest(w, "preset", "unknown background preset")
			return
		}
		slide, err = entry.Editor.SetBackgroundPreset(id, *req.Preset)
	default:
		if _, derr := rendering.DecodeDataURL(*req.Image); derr != nil {
			s.writeError(w, &ErrValidation{Field: "image", Message: "image must be a PNG or JPEG data URL", Cause: derr})
			return
		}
		slide, err = entry.Editor.SetBackgroundImage(id, *req.Image)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, &slide)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req regenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	field, err := generation.ParseField(req.Field)
	if err != nil {
		s.writeError(w, err)
		return
	}
	slide, err := entry.Editor.RegenerateField(r.Context(), s.generator, r.PathValue("slide_id"), field)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, &slide)
}

// handleSetMaster designates a slide as the master of a style category, or
// clears the category when slide_id is null
func (s *Server) handleSetMaster(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	category, err := styles.ParseCategory(r.PathValue("category"))
	if err != nil {
		s.badRequest(w, "category", err.Error())
		return
	}
	var req masterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := entry.Editor.SetMaster(category, req.SlideID); err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, nil)
}

func (s *Server) handleApplyToAll(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req applyAllRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	category, err := styles.ParseCategory(req.Category)
	if err != nil {
		s.badRequest(w, "category", err.Error())
		return
	}
	if err := entry.Editor.ApplyToAll(category); err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, nil)
}

// handleSelect changes the active slide by index or by a prev/next step
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	switch {
	case req.Index != nil:
		err = entry.Editor.Select(*req.Index)
	case req.Step == "prev":
		entry.Editor.Prev()
	case req.Step == "next":
		entry.Editor.Next()
	default:
		err = &ErrValidation{Field: "step", Message: `give an index or a step of "prev" or "next"`}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, nil)
}

// handleFlush writes pending editor changes now
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := entry.Flusher.Flush(r.Context()); err != nil {
		var ferr *persist.FlushError
		if errors.As(err, &ferr) {
			s.logger.Error("flush failed", "slideshow_id", ferr.SlideshowID.String(), "error", ferr.Cause)
		}
		s.writeError(w, err)
		return
	}
	s.editorReply(w, http.StatusOK, entry, nil)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entry.Editor.Loading() {
		s.writeError(w, editor.ErrGenerationInProgress)
		return
	}
	entry.Editor.Reset()
	s.editorReply(w, http.StatusOK, entry, nil)
}
