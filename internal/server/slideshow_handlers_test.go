package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/slideshow-studio/internal/types"
)

func TestSlideshowCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("ada@example.com")

	w := env.do(http.MethodPost, "/slideshows", token, map[string]any{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var show types.Slideshow
	decode(t, w, &show)
	assert.Equal(t, types.DefaultSlideshowTitle, show.Title)
	assert.Equal(t, types.DefaultGenerationSettings(), show.Settings)

	w = env.do(http.MethodGet, "/slideshows", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Slideshows []types.Slideshow `json:"slideshows"`
		Count      int               `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = env.do(http.MethodPatch, "/slideshows/"+show.ID.String(), token, map[string]any{
		"title":    "Owls at night",
		"settings": map[string]any{"tone": "casual", "maxSlides": 5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &show)
	assert.Equal(t, "Owls at night", show.Title)
	assert.Equal(t, "casual", show.Settings.Tone)
	assert.Equal(t, 5, show.Settings.MaxSlides)
	assert.Equal(t, "intermediate", show.Settings.Complexity)

	w = env.do(http.MethodGet, "/slideshows/"+show.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/slideshows/"+show.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodGet, "/slideshows/"+show.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSlideshow_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("ada@example.com")
	id := env.newSlideshow(token)

	w := env.do(http.MethodPost, "/slideshows", token, map[string]any{"settings": map[string]any{"tone": "angry"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/slideshows/"+id.String(), token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/slideshows/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlideshow_ForeignIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register("owner@example.com")
	other := env.register("other@example.com")
	id := env.newSlideshow(owner)

	for _, path := range []string{
		"/slideshows/" + id.String(),
		"/slideshows/" + id.String() + "/editor",
		"/slideshows/" + id.String() + "/slides",
		"/slideshows/" + id.String() + "/export.json",
	} {
		w := env.do(http.MethodGet, path, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := env.do(http.MethodDelete, "/slideshows/"+id.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/slideshows/"+uuid.NewString(), owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorOf(t, w).Code)
}
