package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/rendering"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// exportOptions reads ?aspect= and ?format= from the query
func exportOptions(r *http.Request) (types.AspectRatio, types.ImageFormat, error) {
	aspect := types.AspectRatio(r.URL.Query().Get("aspect"))
	if aspect == "" {
		aspect = types.AspectPortrait
	}
	if _, _, err := aspect.Dimensions(); err != nil {
		return "", "", &ErrValidation{Field: "aspect", Message: err.Error()}
	}
	format, err := types.ParseImageFormat(r.URL.Query().Get("format"))
	if err != nil {
		return "", "", &ErrValidation{Field: "format", Message: err.Error()}
	}
	return aspect, format, nil
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	body, err := rendering.ExportJSON(entry.Editor.Slides())
	if err != nil {
		s.writeError(w, err)
		return
	}
	attachment(w, "application/json", "slides.json")
	_, _ = w.Write(body)
}

// handleSlideImage renders one slide of the editor's list
func (s *Server) handleSlideImage(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	aspect, format, err := exportOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.badRequest(w, "index", "index must be an integer")
		return
	}
	slides := entry.Editor.Slides()
	if index < 0 || index >= len(slides) {
		s.writeError(w, editor.ErrIndexOutOfRange)
		return
	}

	data, err := s.renderer.Render(r.Context(), rendering.Job{Slide: slides[index], Index: index, Aspect: aspect, Format: format})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", rendering.FileName(index, format)))
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(data)
}

// handleExportZip renders every slide and returns them as one archive
func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	entry, err := s.openEditor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	aspect, format, err := exportOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	slides := entry.Editor.Slides()
	if len(slides) == 0 {
		s.badRequest(w, "", "slideshow has no slides to export")
		return
	}

	files, err := rendering.RenderAll(r.Context(), s.renderer, slides, rendering.ExportOptions{
		Aspect:      aspect,
		Format:      format,
		Concurrency: s.cfg.RenderConcurrency,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	// buffered so a failure can still become an error response
	var buf bytes.Buffer
	if err := rendering.WriteZip(&buf, files); err != nil {
		s.writeError(w, err)
		return
	}
	attachment(w, "application/zip", "slides.zip")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
