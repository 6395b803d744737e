package styles

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/slideshow-studio/internal/types"
)

func strPtr(s string) *string { return &s }

func threeSlides() []types.Slide {
	a := types.BaselineSlide("A")
	a.Title, a.Description = "Alpha", "first"
	b := types.BaselineSlide("B")
	b.Title, b.Description = "Beta", "second"
	c := types.BaselineSlide("C")
	c.Title, c.Description = "Gamma", "third"
	return []types.Slide{a, b, c}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("text")
	require.NoError(t, err)
	assert.Equal(t, Text, c)
	c, err = ParseCategory("background")
	require.NoError(t, err)
	assert.Equal(t, Background, c)
	_, err = ParseCategory("layout")
	assert.Error(t, err)
}

func TestCopy_OnlyCategoryFields(t *testing.T) {
	src := types.BaselineSlide("src")
	src.Title = "source title"
	src.Align = types.AlignRight
	src.TitleColor = "#ff0000"
	src.TitleFont = types.FontMono
	src.AccentColor = "#123456"
	require.NoError(t, src.SetBackgroundImage("data:image/png;base64,AAAA"))

	t.Run("text", func(t *testing.T) {
		dst := types.BaselineSlide("dst")
		dst.Title = "keep"
		Copy(Text, src, &dst)
		assert.Equal(t, types.AlignRight, dst.Align)
		assert.Equal(t, "#ff0000", dst.TitleColor)
		assert.Equal(t, types.FontMono, dst.TitleFont)
		assert.Equal(t, "keep", dst.Title)
		assert.Equal(t, "#00d4ff", dst.AccentColor)
		assert.Nil(t, dst.BgImage)
	})

	t.Run("background", func(t *testing.T) {
		dst := types.BaselineSlide("dst")
		Copy(Background, src, &dst)
		assert.Equal(t, "#123456", dst.AccentColor)
		require.NotNil(t, dst.BgImage)
		assert.Equal(t, *src.BgImage, *dst.BgImage)
		assert.NotSame(t, src.BgImage, dst.BgImage)
		assert.Equal(t, types.NoPreset, dst.BgPresetIdx)
		assert.Equal(t, types.AlignCenter, dst.Align)
		assert.Equal(t, "dst", dst.ID)
	})
}

func TestLedger_SetMasterDoesNotMutate(t *testing.T) {
	slides := threeSlides()
	before := threeSlides()
	var l Ledger

	l.SetMaster(Text, strPtr("A"))
	assert.True(t, l.IsMaster(Text, "A"))
	assert.False(t, l.IsMaster(Background, "A"))
	if diff := cmp.Diff(before, slides); diff != "" {
		t.Errorf("slides changed (-want +got):\n%s", diff)
	}

	l.SetMaster(Text, nil)
	_, ok := l.Master(Text)
	assert.False(t, ok)
}

func TestLedger_CascadeFromMaster(t *testing.T) {
	slides := threeSlides()
	var l Ledger
	l.SetMaster(Text, strPtr("A"))

	slides[0].TitleColor = "#ff0000"
	written := l.Cascade(slides, 0)

	assert.Equal(t, 2, written)
	for _, s := range slides {
		assert.Equal(t, "#ff0000", s.TitleColor, s.ID)
	}
	assert.Equal(t, "Beta", slides[1].Title)
	assert.Equal(t, "second", slides[1].Description)
	assert.Equal(t, "Gamma", slides[2].Title)
}

func TestLedger_NonMasterEditStaysLocal(t *testing.T) {
	slides := threeSlides()
	var l Ledger
	l.SetMaster(Text, strPtr("A"))

	slides[1].TitleColor = "#00ff00"
	assert.Equal(t, 0, l.Cascade(slides, 1))
	assert.Equal(t, "#ffffff", slides[0].TitleColor)
	assert.Equal(t, "#ffffff", slides[2].TitleColor)
}

func TestLedger_CascadeBothCategories(t *testing.T) {
	slides := threeSlides()
	var l Ledger
	l.SetMaster(Text, strPtr("B"))
	l.SetMaster(Background, strPtr("B"))

	slides[1].Align = types.AlignLeft
	require.NoError(t, slides[1].SetBackgroundPreset(5))
	l.Cascade(slides, 1)

	for _, s := range slides {
		assert.Equal(t, types.AlignLeft, s.Align, s.ID)
		assert.Equal(t, 5, s.BgPresetIdx, s.ID)
	}
}

func TestLedger_CascadeIdempotent(t *testing.T) {
	slides := threeSlides()
	var l Ledger
	l.SetMaster(Background, strPtr("C"))
	slides[2].OverlayOpacity = 80

	l.Cascade(slides, 2)
	once := append([]types.Slide(nil), slides...)
	l.Cascade(slides, 2)

	if diff := cmp.Diff(once, slides); diff != "" {
		t.Errorf("second cascade drifted (-once +twice):\n%s", diff)
	}
}

func TestLedger_OrderIndependence(t *testing.T) {
	run := func(textFirst bool) []types.Slide {
		slides := threeSlides()
		var l Ledger
		l.SetMaster(Text, strPtr("A"))
		l.SetMaster(Background, strPtr("B"))
		editText := func() {
			slides[0].DescColor = "#111111"
			l.Cascade(slides, 0)
		}
		editBg := func() {
			slides[1].AccentColor = "#222222"
			l.Cascade(slides, 1)
		}
		if textFirst {
			editText()
			editBg()
		} else {
			editBg()
			editText()
		}
		return slides
	}

	if diff := cmp.Diff(run(true), run(false)); diff != "" {
		t.Errorf("result depends on edit order (-text first +bg first):\n%s", diff)
	}
}

func TestLedger_ForgetAndPrune(t *testing.T) {
	var l Ledger
	l.SetMaster(Text, strPtr("A"))
	l.SetMaster(Background, strPtr("A"))

	l.Forget("A")
	_, ok := l.Master(Text)
	assert.False(t, ok)
	_, ok = l.Master(Background)
	assert.False(t, ok)

	l.SetMaster(Text, strPtr("Z"))
	l.SetMaster(Background, strPtr("B"))
	l.Prune(threeSlides())
	_, ok = l.Master(Text)
	assert.False(t, ok, "dangling reference must be cleared")
	assert.True(t, l.IsMaster(Background, "B"))
}

func TestApplyToAll(t *testing.T) {
	slides := threeSlides()
	var l Ledger
	l.SetMaster(Background, strPtr("C"))

	slides[1].Align = types.AlignRight
	slides[1].TitleSize = 48
	ApplyToAll(slides, slides[1], Text)

	for _, s := range slides {
		assert.Equal(t, types.AlignRight, s.Align, s.ID)
		assert.Equal(t, 48, s.TitleSize, s.ID)
	}
	assert.Equal(t, "Alpha", slides[0].Title)
	assert.True(t, l.IsMaster(Background, "C"))
	_, ok := l.Master(Text)
	assert.False(t, ok)
}

func TestLedger_Defaults(t *testing.T) {
	slides := threeSlides()
	var l Ledger

	base := l.Defaults(slides, "new")
	assert.Equal(t, types.BaselineSlide("new"), base)

	slides[0].TitleColor = "#abcdef"
	slides[0].Title = "not copied"
	require.NoError(t, slides[2].SetBackgroundPreset(7))
	l.SetMaster(Text, strPtr("A"))
	l.SetMaster(Background, strPtr("C"))

	got := l.Defaults(slides, "new")
	assert.Equal(t, "new", got.ID)
	assert.Equal(t, "#abcdef", got.TitleColor)
	assert.Equal(t, 7, got.BgPresetIdx)
	assert.Empty(t, got.Title)
}
