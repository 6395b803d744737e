package rendering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/slideshow-studio/internal/types"
)

func TestSlideHTML_Normal(t *testing.T) {
	s := testSlide()
	s.Title = "Owls <b>really</b> hunt"
	s.Align = types.AlignLeft

	page, err := SlideHTML(Job{Slide: s, Index: 2, Aspect: types.AspectSquare})
	require.NoError(t, err)
	assert.Contains(t, page, "width: 1080px; height: 1080px")
	assert.Contains(t, page, `<div class="label">03</div>`)
	assert.Contains(t, page, "Owls &lt;b&gt;really&lt;/b&gt; hunt")
	assert.Contains(t, page, "Silent flight feathers")
	assert.Contains(t, page, `class="divider"`)
	assert.Contains(t, page, "flex-start")
	assert.Contains(t, page, "linear-gradient(160deg,#0d0d1a,#1a1a3a,#0a0a2a)")
	assert.Contains(t, page, "'Bebas Neue'")
	// 30 * 3.2
	assert.Contains(t, page, "font-size: 96.0px")
	assert.NotContains(t, page, `class="eyebrow"`)
}

func TestSlideHTML_Hook(t *testing.T) {
	s := testSlide()
	s.Type = types.SlideTypeHook
	s.ShowDivider = false

	page, err := SlideHTML(Job{Slide: s, Aspect: types.AspectPortrait})
	require.NoError(t, err)
	assert.Contains(t, page, "width: 1080px; height: 1920px")
	assert.Contains(t, page, `<div class="label">HOOK</div>`)
	assert.Contains(t, page, "STOP SCROLLING →")
	assert.NotContains(t, page, "Silent flight feathers")
	assert.NotContains(t, page, `class="divider"`)
}

func TestSlideHTML_BackgroundImage(t *testing.T) {
	s := testSlide()
	require.NoError(t, s.SetBackgroundImage("data:image/png;base64,AAAA"))

	page, err := SlideHTML(Job{Slide: s, Aspect: types.AspectLandscape})
	require.NoError(t, err)
	assert.Contains(t, page, "data:image/png;base64,AAAA")
	assert.Contains(t, page, "center / cover")
	assert.NotContains(t, page, "linear-gradient")
}

func TestSlideHTML_InvalidAspect(t *testing.T) {
	_, err := SlideHTML(Job{Slide: testSlide(), Aspect: "1x1"})
	var terr *TemplateError
	assert.True(t, errors.As(err, &terr))
}
