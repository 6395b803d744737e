package main

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/slideshow-studio/internal/rendering"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// slidesFile writes slides the way generate does and returns the path
func slidesFile(t *testing.T, slides ...types.Slide) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slides.json")
	require.NoError(t, writeSlides(path, nil, slides))
	return path
}

func sampleSlides() []types.Slide {
	hook := types.BaselineSlide("h")
	hook.Type = types.SlideTypeHook
	hook.Title = "Owls see in the dark"
	body := types.BaselineSlide("b")
	body.Title = "Silent flight"
	body.Description = "Serrated feathers break up turbulence."
	return []types.Slide{hook, body}
}

func TestRender_Zip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "deck.zip")
	var stderr bytes.Buffer
	err := render(context.Background(), testConfig(), renderOptions{
		In:      slidesFile(t, sampleSlides()...),
		Out:     out,
		Aspect:  string(types.AspectSquare),
		Format:  "jpg",
		Engine:  "native",
		Verbose: true,
	}, &stderr)
	require.NoError(t, err)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"slide-01.jpg", "slide-02.jpg"}, names)
	assert.Contains(t, stderr.String(), "Rendered 2/2")
	assert.Contains(t, stderr.String(), "Wrote 2 images")
}

func TestRender_Errors(t *testing.T) {
	good := slidesFile(t, sampleSlides()...)
	noID := types.BaselineSlide("")

	tests := []struct {
		name string
		opts renderOptions
		want string
	}{
		{"bad aspect", renderOptions{In: good, Aspect: "640x480"}, "640x480"},
		{"bad format", renderOptions{In: good, Aspect: string(types.AspectPortrait), Format: "gif"}, "unsupported image format"},
		{"missing file", renderOptions{In: filepath.Join(t.TempDir(), "none.json"), Aspect: string(types.AspectPortrait)}, "failed to read slides file"},
		{"empty deck", renderOptions{In: slidesFile(t), Aspect: string(types.AspectPortrait)}, "no slides to render"},
		{"invalid slide", renderOptions{In: slidesFile(t, noID), Aspect: string(types.AspectPortrait)}, "slide 1"},
		{"unknown engine", renderOptions{In: good, Aspect: string(types.AspectPortrait), Engine: "canvas"}, "unknown render engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Out = filepath.Join(t.TempDir(), "out.zip")
			err := render(context.Background(), testConfig(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRenderer_Native(t *testing.T) {
	for _, engine := range []string{"", "native"} {
		r, closeFn, err := newRenderer(context.Background(), engine)
		require.NoError(t, err)
		assert.IsType(t, &rendering.NativeRenderer{}, r)
		closeFn()
	}
}
