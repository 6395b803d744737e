package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/llm"
	"github.com/jonathan/slideshow-studio/internal/llm/llmtest"
	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

const deck = `{"slides":[{"type":"hook","title":"Hook"},{"title":"One","description":"First point."},{"title":"Two","description":"Second point."}]}`

func seqIDs(prefix string) generation.IDFunc {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newGen(client llm.Client) *generation.Generator {
	return generation.New(client, generation.WithIDFunc(seqIDs("g")))
}

func strPtr(s string) *string { return &s }

// abc returns an editor holding slides A, B, C with A active
func abc(t *testing.T, opts ...Option) *State {
	t.Helper()
	s := New(opts...)
	var slides []types.Slide
	for _, id := range []string{"A", "B", "C"} {
		sl := types.BaselineSlide(id)
		sl.Title = "Title " + id
		sl.Description = "Body " + id
		slides = append(slides, sl)
	}
	s.Load(slides, styles.Ledger{}, types.DefaultGenerationSettings())
	return s
}

func ids(slides []types.Slide) []string {
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.ID
	}
	return out
}

func TestGenerate_NonBatchReplacesList(t *testing.T) {
	s := abc(t)
	require.NoError(t, s.Select(2))

	n, err := s.Generate(context.Background(), newGen(llmtest.Respond(deck)), false, strings.Repeat("x", 5000), types.DefaultGenerationSettings())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snap := s.Snapshot()
	assert.Equal(t, []string{"g1", "g2", "g3"}, ids(snap.Slides))
	assert.Equal(t, 0, snap.Active)
	assert.Equal(t, 4000, snap.Session.Offset)
	assert.Equal(t, 5000, snap.Session.Length)
	assert.False(t, snap.Loading)
}

func TestGenerate_BatchOffsetProperty(t *testing.T) {
	for _, length := range []int{1, 3999, 4000, 4001, 12000, 13500} {
		t.Run(fmt.Sprint(length), func(t *testing.T) {
			s := New()
			gen := newGen(llmtest.Respond(deck))
			src := strings.Repeat("a", length)

			_, err := s.Generate(context.Background(), gen, false, src, types.DefaultGenerationSettings())
			require.NoError(t, err)

			for n := 1; ; n++ {
				want := min(n*generation.ChunkSize, length)
				assert.Equal(t, want, s.Snapshot().Session.Offset)
				if want == length {
					break
				}
				_, err := s.Generate(context.Background(), gen, true, "", types.DefaultGenerationSettings())
				require.NoError(t, err)
			}
		})
	}
}

func TestGenerate_BatchAppends(t *testing.T) {
	s := New()
	client := llmtest.Respond(deck)
	gen := newGen(client)

	_, err := s.Generate(context.Background(), gen, false, strings.Repeat("a", 9000), types.DefaultGenerationSettings())
	require.NoError(t, err)
	require.NoError(t, s.Select(1))

	_, err = s.Generate(context.Background(), gen, true, "ignored input", types.DefaultGenerationSettings())
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, []string{"g1", "g2", "g3", "g4", "g5", "g6"}, ids(snap.Slides))
	assert.Equal(t, 1, snap.Active, "batch keeps the selection")
	assert.Equal(t, 8000, snap.Session.Offset)
	assert.NotContains(t, client.Requests()[1].UserContent, "ignored input")
}

func TestGenerate_ExactChunkSource(t *testing.T) {
	s := New()
	client := llmtest.Respond(deck)
	gen := newGen(client)

	_, err := s.Generate(context.Background(), gen, false, strings.Repeat("a", 4000), types.DefaultGenerationSettings())
	require.NoError(t, err)
	before := s.Snapshot()
	assert.Equal(t, 4000, before.Session.Offset)

	_, err = s.Generate(context.Background(), gen, true, "", types.DefaultGenerationSettings())
	assert.ErrorIs(t, err, generation.ErrSourceExhausted)
	assert.Equal(t, 1, client.Calls())

	after := s.Snapshot()
	assert.Equal(t, before.Slides, after.Slides)
	assert.Equal(t, before.Version, after.Version)
	assert.False(t, after.Loading)
}

func TestGenerate_FailureLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		client *llmtest.MockClient
		batch  bool
	}{
		{name: "malformed json", client: llmtest.Respond(`{"slides": [`)},
		{name: "missing slides", client: llmtest.Respond(`{"items":[]}`)},
		{name: "service down", client: llmtest.Fail(errors.New("connection reset"))},
		{name: "empty slides on batch", client: llmtest.Respond(`{"slides":[]}`), batch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := abc(t)
			_, err := s.Generate(context.Background(), newGen(llmtest.Respond(deck)), false, strings.Repeat("z", 6000), types.DefaultGenerationSettings())
			require.NoError(t, err)
			before := s.Snapshot()

			_, err = s.Generate(context.Background(), newGen(tt.client), tt.batch, "new text", types.DefaultGenerationSettings())
			require.Error(t, err)

			after := s.Snapshot()
			assert.Equal(t, before.Slides, after.Slides)
			assert.Equal(t, before.Session, after.Session)
			assert.Equal(t, before.Active, after.Active)
			assert.False(t, after.Loading)
			assert.False(t, s.Loading())
		})
	}
}

func TestGenerate_EmptySourceRejected(t *testing.T) {
	s := abc(t)
	client := llmtest.Respond(deck)

	_, err := s.Generate(context.Background(), newGen(client), false, "", types.DefaultGenerationSettings())
	assert.ErrorIs(t, err, generation.ErrEmptySource)
	assert.Equal(t, 0, client.Calls())
	assert.Len(t, s.Slides(), 3)
}

func TestGenerate_SingleInFlight(t *testing.T) {
	s := New()
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := &llmtest.MockClient{GenerateFunc: func(context.Context, llm.Request) (string, error) {
		close(started)
		<-release
		return deck, nil
	}}

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), newGen(blocking), false, "source", types.DefaultGenerationSettings())
		done <- err
	}()
	<-started
	assert.True(t, s.Loading())

	_, err := s.Generate(context.Background(), newGen(llmtest.Respond(deck)), false, "other", types.DefaultGenerationSettings())
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	s.AddSlide()
	assert.Len(t, s.Slides(), 1, "edits are allowed while generating")

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
	assert.False(t, s.Loading())
	assert.Len(t, s.Slides(), 3)
}

func TestGenerate_InheritsMasterStyle(t *testing.T) {
	s := abc(t)
	_, err := s.PatchSlide("A", Patch{TitleColor: strPtr("#ff0000")})
	require.NoError(t, err)
	_, err = s.SetBackgroundPreset("B", 6)
	require.NoError(t, err)
	require.NoError(t, s.SetMaster(styles.Text, strPtr("A")))
	require.NoError(t, s.SetMaster(styles.Background, strPtr("B")))

	_, err = s.Generate(context.Background(), newGen(llmtest.Respond(deck)), false, "text", types.DefaultGenerationSettings())
	require.NoError(t, err)

	for _, sl := range s.Slides() {
		assert.Equal(t, "#ff0000", sl.TitleColor)
		assert.Equal(t, 6, sl.BgPresetIdx)
	}
	masters := s.Masters()
	_, ok := masters.Master(styles.Text)
	assert.False(t, ok, "replaced list drops masters that no longer exist")
}

func TestGenerate_BatchKeepsMasters(t *testing.T) {
	s := New()
	gen := newGen(llmtest.Respond(deck))
	_, err := s.Generate(context.Background(), gen, false, strings.Repeat("q", 5000), types.DefaultGenerationSettings())
	require.NoError(t, err)

	_, err = s.UpdateSlide("g2", func(sl *types.Slide) error {
		sl.Align = types.AlignLeft
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.SetMaster(styles.Text, strPtr("g2")))

	_, err = s.Generate(context.Background(), gen, true, "", types.DefaultGenerationSettings())
	require.NoError(t, err)

	slides := s.Slides()
	require.Len(t, slides, 6)
	for _, sl := range slides[3:] {
		assert.Equal(t, types.AlignLeft, sl.Align)
	}
	masters := s.Masters()
	assert.True(t, masters.IsMaster(styles.Text, "g2"))
}

func TestAddSlide(t *testing.T) {
	s := New(WithIDFunc(seqIDs("n")))

	first := s.AddSlide()
	assert.Equal(t, "n1", first.ID)
	assert.Equal(t, NewSlideTitle, first.Title)
	assert.Equal(t, NewSlideDescription, first.Description)

	_, err := s.PatchSlide("n1", Patch{AccentColor: strPtr("#abcdef")})
	require.NoError(t, err)
	require.NoError(t, s.SetMaster(styles.Background, strPtr("n1")))

	second := s.AddSlide()
	assert.Equal(t, "#abcdef", second.AccentColor)
	_, idx, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestMoveSlide(t *testing.T) {
	s := abc(t)

	idx, err := s.MoveSlide(0, Down)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"B", "A", "C"}, ids(s.Slides()))
	active, _, _ := s.Active()
	assert.Equal(t, "A", active.ID)

	_, err = s.MoveSlide(0, Up)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.MoveSlide(2, Down)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, []string{"B", "A", "C"}, ids(s.Slides()))
}

func TestDeleteSlide(t *testing.T) {
	tests := []struct {
		name       string
		active     int
		remove     int
		wantIDs    []string
		wantActive string
	}{
		{name: "middle, other active", active: 0, remove: 1, wantIDs: []string{"A", "C"}, wantActive: "A"},
		{name: "active middle", active: 1, remove: 1, wantIDs: []string{"A", "C"}, wantActive: "C"},
		{name: "active last", active: 2, remove: 2, wantIDs: []string{"A", "B"}, wantActive: "B"},
		{name: "before active keeps slide", active: 2, remove: 0, wantIDs: []string{"B", "C"}, wantActive: "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := abc(t)
			require.NoError(t, s.Select(tt.active))

			_, err := s.DeleteSlide(tt.remove)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(s.Slides()))
			active, _, err := s.Active()
			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, active.ID)
		})
	}

	t.Run("last remaining", func(t *testing.T) {
		s := New(WithIDFunc(seqIDs("x")))
		s.AddSlide()
		_, err := s.DeleteSlide(0)
		require.NoError(t, err)
		_, _, err = s.Active()
		assert.ErrorIs(t, err, ErrNoActiveSlide)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := abc(t).DeleteSlide(3)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestDeleteMasterClearsReference(t *testing.T) {
	s := abc(t)
	require.NoError(t, s.SetMaster(styles.Text, strPtr("B")))
	require.NoError(t, s.SetMaster(styles.Background, strPtr("C")))

	_, err := s.DeleteSlide(1)
	require.NoError(t, err)

	masters := s.Masters()
	_, ok := masters.Master(styles.Text)
	assert.False(t, ok)
	assert.True(t, masters.IsMaster(styles.Background, "C"), "no successor, other category untouched")

	_, err = s.PatchSlide("A", Patch{TitleColor: strPtr("#00ff00")})
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", s.Slides()[1].TitleColor, "former siblings no longer follow")
}

func TestMasterCascadeScenario(t *testing.T) {
	s := abc(t)
	require.NoError(t, s.SetMaster(styles.Text, strPtr("A")))

	_, err := s.PatchSlide("A", Patch{TitleColor: strPtr("#ff0000")})
	require.NoError(t, err)

	slides := s.Slides()
	for _, sl := range slides {
		assert.Equal(t, "#ff0000", sl.TitleColor)
	}
	assert.Equal(t, "Title B", slides[1].Title)
	assert.Equal(t, "Body C", slides[2].Description)
}

func TestBackgroundMasterCascadesImage(t *testing.T) {
	s := abc(t)
	require.NoError(t, s.SetMaster(styles.Background, strPtr("B")))

	_, err := s.SetBackgroundImage("B", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	for _, sl := range s.Slides() {
		require.NotNil(t, sl.BgImage)
		assert.Equal(t, types.NoPreset, sl.BgPresetIdx)
	}

	_, err = s.SetBackgroundPreset("B", 2)
	require.NoError(t, err)
	for _, sl := range s.Slides() {
		assert.Nil(t, sl.BgImage)
		assert.Equal(t, 2, sl.BgPresetIdx)
	}
}

func TestUpdateSlide_RejectsInvalid(t *testing.T) {
	s := abc(t)
	before := s.Snapshot()

	_, err := s.PatchSlide("A", Patch{Title: strPtr(strings.Repeat("t", 81))})
	assert.Error(t, err)
	_, err = s.PatchSlide("A", Patch{AccentColor: strPtr("teal")})
	assert.Error(t, err)
	_, err = s.SetBackgroundPreset("A", 40)
	assert.Error(t, err)
	_, err = s.PatchSlide("Z", Patch{})
	assert.ErrorIs(t, err, ErrSlideNotFound)

	assert.Equal(t, before, s.Snapshot())
}

func TestUpdateSlide_ClampsAndKeepsID(t *testing.T) {
	s := abc(t)
	got, err := s.UpdateSlide("A", func(sl *types.Slide) error {
		sl.ID = "hijack"
		sl.TitleSize = 500
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "A", got.ID)
	assert.Equal(t, types.MaxTitleSize, got.TitleSize)
}

func TestSetMaster_UnknownSlide(t *testing.T) {
	s := abc(t)
	assert.ErrorIs(t, s.SetMaster(styles.Text, strPtr("nope")), ErrSlideNotFound)
	require.NoError(t, s.SetMaster(styles.Text, nil))
}

func TestSetMaster_DoesNotMutateSlides(t *testing.T) {
	s := abc(t)
	_, err := s.PatchSlide("A", Patch{TitleColor: strPtr("#123123")})
	require.NoError(t, err)
	before := s.Slides()

	require.NoError(t, s.SetMaster(styles.Text, strPtr("A")))
	assert.Equal(t, before, s.Slides())
}

func TestApplyToAll(t *testing.T) {
	s := abc(t)
	require.NoError(t, s.SetMaster(styles.Background, strPtr("C")))
	_, err := s.PatchSlide("B", Patch{Align: func() *types.Align { a := types.AlignRight; return &a }()})
	require.NoError(t, err)
	require.NoError(t, s.Select(1))

	require.NoError(t, s.ApplyToAll(styles.Text))
	for _, sl := range s.Slides() {
		assert.Equal(t, types.AlignRight, sl.Align)
	}
	masters := s.Masters()
	assert.True(t, masters.IsMaster(styles.Background, "C"))

	empty := New()
	assert.ErrorIs(t, empty.ApplyToAll(styles.Text), ErrNoActiveSlide)
}

func TestPrevNext(t *testing.T) {
	s := abc(t)
	assert.Equal(t, 0, s.Prev())
	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.Next())
	assert.Equal(t, 2, s.Next())
	assert.Equal(t, 1, s.Prev())

	empty := New()
	assert.Equal(t, NoSelection, empty.Next())
}

func TestOnChange(t *testing.T) {
	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	s := abc(t, WithOnChange(func(snap Snapshot) {
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
	}))

	s.AddSlide()
	_, err := s.PatchSlide("A", Patch{Title: strPtr("Changed")})
	require.NoError(t, err)
	_, _ = s.PatchSlide("A", Patch{AccentColor: strPtr("bad")})
	require.NoError(t, s.Select(0))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snaps, 2, "failed edits and selection do not notify")
	assert.Less(t, snaps[0].Version, snaps[1].Version)
	assert.Equal(t, "Changed", snaps[1].Slides[0].Title)
}

func TestRegenerateField(t *testing.T) {
	s := abc(t)
	client := llmtest.Respond(`{"title":"Rewritten"}`)

	got, err := s.RegenerateField(context.Background(), newGen(client), "B", generation.FieldTitle)
	require.NoError(t, err)
	assert.Equal(t, "Rewritten", got.Title)
	assert.Equal(t, "Body B", got.Description)
	assert.Contains(t, client.Requests()[0].UserContent, `Title: "Title B" | Desc: "Body B"`)

	_, err = s.RegenerateField(context.Background(), newGen(llmtest.Fail(errors.New("down"))), "C", generation.FieldBoth)
	require.Error(t, err)
	assert.Equal(t, "Title C", s.Slides()[2].Title)
	assert.False(t, s.Loading())

	_, err = s.RegenerateField(context.Background(), newGen(client), "missing", generation.FieldTitle)
	assert.ErrorIs(t, err, ErrSlideNotFound)
}

func TestExportJSONAndReset(t *testing.T) {
	s := abc(t)
	doc := s.ExportJSON()
	require.Len(t, doc.Slides, 3)
	assert.Equal(t, 3, doc.Slides[2].Index)
	assert.Equal(t, "Title C", doc.Slides[2].Title)

	require.NoError(t, s.SetMaster(styles.Text, strPtr("A")))
	s.Reset()
	snap := s.Snapshot()
	assert.Empty(t, snap.Slides)
	assert.Equal(t, NoSelection, snap.Active)
	_, ok := snap.Masters.Master(styles.Text)
	assert.False(t, ok)
}

func TestLoad_NormalizesAndPrunes(t *testing.T) {
	s := New()
	bad := types.BaselineSlide("A")
	bad.TitleSize = 1
	bad.BgPresetIdx = 99
	s.Load([]types.Slide{bad}, styles.Ledger{Text: strPtr("gone")}, types.GenerationSettings{})

	snap := s.Snapshot()
	assert.Equal(t, types.MinTitleSize, snap.Slides[0].TitleSize)
	assert.Equal(t, 0, snap.Slides[0].BgPresetIdx)
	assert.Nil(t, snap.Masters.Text)
	assert.Equal(t, 8, snap.Session.Settings.MaxSlides)
	assert.Equal(t, 0, snap.Active)
}

func TestLoad_ReassignsRepeatedIDs(t *testing.T) {
	s := New(WithIDFunc(seqIDs("n")))
	a, again, blank := types.BaselineSlide("a"), types.BaselineSlide("a"), types.BaselineSlide("")
	a.Title, again.Title = "First", "Second"
	s.Load([]types.Slide{a, again, blank}, styles.Ledger{Text: strPtr("a")}, types.GenerationSettings{})

	slides := s.Slides()
	require.Len(t, slides, 3)
	assert.Equal(t, "a", slides[0].ID, "first occurrence keeps its id")
	assert.Equal(t, "n1", slides[1].ID)
	assert.Equal(t, "Second", slides[1].Title)
	assert.Equal(t, "n2", slides[2].ID)
	require.NotNil(t, s.Snapshot().Masters.Text)
	assert.Equal(t, "a", *s.Snapshot().Masters.Text)

	_, err := s.PatchSlide("a", Patch{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", s.Slides()[0].Title)
	assert.Equal(t, "Second", s.Slides()[1].Title, "the repeated slide is untouched")
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, Down, d)
	_, err = ParseDirection("left")
	assert.Error(t, err)
}
