// Package editor holds the in-memory editing state of one slideshow: the
// ordered slide list, the selection, the style masters and the generation
// session. Every operation goes through State; there is no package-level state.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/logging"
	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// NoSelection is the active index of an editor with nothing selected
const NoSelection = -1

// Text given to slides added by hand
const (
	NewSlideTitle       = "New Slide"
	NewSlideDescription = "Tap to edit this description."
)

// Direction is a move direction in the slide list
type Direction string

// Move directions
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a direction name
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// SessionInfo is the public view of the generation cursor
type SessionInfo struct {
	Offset    int                      `json:"batchOffset"`
	Length    int                      `json:"sourceLength"`
	Remaining int                      `json:"remaining"`
	Settings  types.GenerationSettings `json:"settings"`
}

// Snapshot is a consistent copy of the editor state
type Snapshot struct {
	Version uint64        `json:"version"`
	Slides  []types.Slide `json:"slides"`
	Active  int           `json:"activeIndex"`
	Masters styles.Ledger `json:"masters"`
	Session SessionInfo   `json:"session"`
	Loading bool          `json:"loading"`
}

// ChangeFunc observes committed changes. It is called without the editor lock held.
type ChangeFunc func(Snapshot)

// State is the editing state of one slideshow. Safe for concurrent use.
type State struct {
	mu       sync.Mutex
	version  uint64
	slides   []types.Slide
	active   int
	ledger   styles.Ledger
	session  generation.Session
	loading  bool
	ids      generation.IDFunc
	onChange ChangeFunc
	logger   *logging.Logger
}

// Option configures a State
type Option func(*State)

// WithIDFunc overrides slide id minting for hand-added slides
func WithIDFunc(f generation.IDFunc) Option {
	return func(s *State) { s.ids = f }
}

// WithOnChange registers the change observer
func WithOnChange(f ChangeFunc) Option {
	return func(s *State) { s.onChange = f }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *State) { s.logger = l.Component("editor") }
}

// New creates an empty editor with default generation settings
func New(opts ...Option) *State {
	s := &State{
		active:  NoSelection,
		session: generation.NewSession("", types.DefaultGenerationSettings()),
		ids:     generation.NewID,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the whole state with previously saved data without firing
// the change observer. Slides are normalized and dangling masters dropped. A
// slide with an empty id, or the id of an earlier slide, gets a fresh one.
func (s *State) Load(slides []types.Slide, masters styles.Ledger, settings types.GenerationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slides = make([]types.Slide, len(slides))
	seen := make(map[string]struct{}, len(slides))
	for i, sl := range slides {
		sl.Normalize()
		if _, dup := seen[sl.ID]; dup || sl.ID == "" {
			old := sl.ID
			sl.ID = s.ids()
			s.logger.Warn("reassigned slide id on load", "index", i, "old_id", old, "new_id", sl.ID)
		}
		seen[sl.ID] = struct{}{}
		s.slides[i] = sl
	}
	s.ledger = masters
	s.ledger.Prune(s.slides)
	s.session = generation.NewSession("", settings.WithDefaults())
	s.active = NoSelection
	if len(s.slides) > 0 {
		s.active = 0
	}
}

// SetOnChange replaces the change observer
func (s *State) SetOnChange(f ChangeFunc) {
	s.mu.Lock()
	s.onChange = f
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Version: s.version,
		Slides:  cloneSlides(s.slides),
		Active:  s.active,
		Masters: cloneLedger(s.ledger),
		Session: SessionInfo{
			Offset:    s.session.Offset,
			Length:    s.session.Len(),
			Remaining: s.session.Remaining(),
			Settings:  s.session.Settings,
		},
		Loading: s.loading,
	}
}

// commitLocked bumps the version and returns the notification to send after unlocking
func (s *State) commitLocked() func() {
	s.version++
	if s.onChange == nil {
		return func() {}
	}
	snap := s.snapshotLocked()
	fn := s.onChange
	return func() { fn(snap) }
}

// Slides returns a copy of the slide list
func (s *State) Slides() []types.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlides(s.slides)
}

// Loading reports whether a remote call is outstanding
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Active returns the selected slide and its index
func (s *State) Active() (types.Slide, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 || s.active >= len(s.slides) {
		return types.Slide{}, NoSelection, ErrNoActiveSlide
	}
	return cloneSlide(s.slides[s.active]), s.active, nil
}

// Select makes the slide at index active. Selection is not persisted, so
// observers are not notified.
func (s *State) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.slides) {
		return fmt.Errorf("select %d: %w", index, ErrIndexOutOfRange)
	}
	s.active = index
	return nil
}

// Prev selects the previous slide. It does nothing at the start of the list.
func (s *State) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 {
		s.active--
	}
	return s.active
}

// Next selects the following slide. It does nothing at the end of the list.
func (s *State) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != NoSelection && s.active < len(s.slides)-1 {
		s.active++
	}
	return s.active
}

// AddSlide appends a hand-authored slide styled like the active masters and selects it
func (s *State) AddSlide() types.Slide {
	s.mu.Lock()
	slide := s.ledger.Defaults(s.slides, s.ids())
	slide.Title = NewSlideTitle
	slide.Description = NewSlideDescription
	s.slides = append(s.slides, slide)
	s.active = len(s.slides) - 1
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return cloneSlide(slide)
}

// MoveSlide swaps the slide at index with its neighbour and selects it at its new position
func (s *State) MoveSlide(index int, dir Direction) (int, error) {
	s.mu.Lock()
	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if index < 0 || index >= len(s.slides) || target < 0 || target >= len(s.slides) {
		s.mu.Unlock()
		return index, fmt.Errorf("move %d %s: %w", index, dir, ErrIndexOutOfRange)
	}
	s.slides[index], s.slides[target] = s.slides[target], s.slides[index]
	s.active = target
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return target, nil
}

// DeleteSlide removes the slide at index. Master references to it are
// cleared. If it was active, the slide now at the same position (or the new
// last slide) becomes active; otherwise the selection stays on the same slide.
func (s *State) DeleteSlide(index int) (types.Slide, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.slides) {
		s.mu.Unlock()
		return types.Slide{}, fmt.Errorf("delete %d: %w", index, ErrIndexOutOfRange)
	}
	removed := s.slides[index]
	s.slides = append(s.slides[:index], s.slides[index+1:]...)
	s.ledger.Forget(removed.ID)

	switch {
	case s.active == index:
		s.active = min(index, len(s.slides)-1)
	case s.active > index:
		s.active--
	}
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return removed, nil
}

// IndexOf returns the list position of id
func (s *State) IndexOf(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id)
}

func (s *State) indexLocked(id string) (int, error) {
	for i := range s.slides {
		if s.slides[i].ID == id {
			return i, nil
		}
	}
	return NoSelection, fmt.Errorf("%s: %w", id, ErrSlideNotFound)
}

// UpdateSlide applies mutate to a copy of the slide, normalizes and validates
// it, then stores it and cascades master styles. A mutation that leaves the
// slide invalid is rejected and nothing changes. The slide id cannot be changed.
func (s *State) UpdateSlide(id string, mutate func(*types.Slide) error) (types.Slide, error) {
	s.mu.Lock()
	idx, err := s.indexLocked(id)
	if err != nil {
		s.mu.Unlock()
		return types.Slide{}, err
	}

	updated := cloneSlide(s.slides[idx])
	if err := mutate(&updated); err != nil {
		s.mu.Unlock()
		return types.Slide{}, err
	}
	updated.ID = id
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return types.Slide{}, fmt.Errorf("invalid slide: %w", err)
	}

	s.slides[idx] = updated
	if n := s.ledger.Cascade(s.slides, idx); n > 0 {
		s.logger.Debug("cascaded master style", "slide", id, "targets", n)
	}
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return cloneSlide(updated), nil
}

// PatchSlide applies a partial update
func (s *State) PatchSlide(id string, p Patch) (types.Slide, error) {
	return s.UpdateSlide(id, func(sl *types.Slide) error {
		p.Apply(sl)
		return nil
	})
}

// SetBackgroundPreset selects a palette entry for the slide and clears its image
func (s *State) SetBackgroundPreset(id string, preset int) (types.Slide, error) {
	return s.UpdateSlide(id, func(sl *types.Slide) error {
		return sl.SetBackgroundPreset(preset)
	})
}

// SetBackgroundImage makes an image payload the slide's background
func (s *State) SetBackgroundImage(id, payload string) (types.Slide, error) {
	return s.UpdateSlide(id, func(sl *types.Slide) error {
		return sl.SetBackgroundImage(payload)
	})
}

// SetMaster designates id as master of the category, or clears it when id
// is nil. Slides are not modified.
func (s *State) SetMaster(c styles.Category, id *string) error {
	s.mu.Lock()
	if id != nil {
		if _, err := s.indexLocked(*id); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.ledger.SetMaster(c, id)
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return nil
}

// Masters returns a copy of the master references
func (s *State) Masters() styles.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLedger(s.ledger)
}

// ApplyToAll copies the active slide's category attributes to every slide once
func (s *State) ApplyToAll(c styles.Category) error {
	s.mu.Lock()
	if s.active < 0 || s.active >= len(s.slides) {
		s.mu.Unlock()
		return ErrNoActiveSlide
	}
	styles.ApplyToAll(s.slides, s.slides[s.active], c)
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return nil
}

// Settings returns the current generation settings
func (s *State) Settings() types.GenerationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Settings
}

// Generate runs one generation through gen. A non-batch run captures rawText
// as the new source and, on success, replaces the list and selects the first
// slide. A batch run reads the next chunk of the captured source and, on
// success, appends. On any failure the list and cursor are unchanged. Only
// one remote call may be outstanding per editor.
func (s *State) Generate(ctx context.Context, gen *generation.Generator, isBatch bool, rawText string, settings types.GenerationSettings) (int, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return 0, ErrGenerationInProgress
	}

	session := s.session
	if isBatch {
		session.Settings = settings.WithDefaults()
	} else {
		session = generation.NewSession(rawText, settings.WithDefaults())
	}
	masters := cloneLedger(s.ledger)
	current := cloneSlides(s.slides)
	s.loading = true
	s.mu.Unlock()

	res, err := gen.Generate(ctx, generation.Request{
		Session: session,
		Batch:   isBatch,
		Template: func(id string) types.Slide {
			return masters.Defaults(current, id)
		},
	})

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("generation failed", "batch", isBatch, "error", err)
		return 0, err
	}

	if isBatch {
		s.slides = append(s.slides, res.Slides...)
		if s.active == NoSelection && len(s.slides) > 0 {
			s.active = 0
		}
	} else {
		s.slides = res.Slides
		s.active = 0
		s.ledger.Prune(s.slides)
	}
	session.Offset = res.NextOffset
	s.session = session
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
	return len(res.Slides), nil
}

// RegenerateField rewrites the title and/or description of a slide. The
// update is applied only if the whole rewrite succeeds and the slide still exists.
func (s *State) RegenerateField(ctx context.Context, gen *generation.Generator, id string, field generation.Field) (types.Slide, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return types.Slide{}, ErrGenerationInProgress
	}
	idx, err := s.indexLocked(id)
	if err != nil {
		s.mu.Unlock()
		return types.Slide{}, err
	}
	slide := cloneSlide(s.slides[idx])
	settings := s.session.Settings
	s.loading = true
	s.mu.Unlock()

	update, err := gen.Regenerate(ctx, slide, field, settings)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	if err != nil {
		return types.Slide{}, err
	}

	return s.UpdateSlide(id, func(sl *types.Slide) error {
		update.Apply(sl)
		return nil
	})
}

// ExportJSON flattens the slide list in order
func (s *State) ExportJSON() types.ExportDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.NewExportDocument(s.slides)
}

// Reset clears slides, masters and the generation session
func (s *State) Reset() {
	s.mu.Lock()
	s.slides = nil
	s.active = NoSelection
	s.ledger = styles.Ledger{}
	s.session = generation.NewSession("", s.session.Settings)
	notify := s.commitLocked()
	s.mu.Unlock()

	notify()
}

func cloneSlide(sl types.Slide) types.Slide {
	if sl.BgImage != nil {
		img := *sl.BgImage
		sl.BgImage = &img
	}
	return sl
}

func cloneSlides(in []types.Slide) []types.Slide {
	out := make([]types.Slide, len(in))
	for i, sl := range in {
		out[i] = cloneSlide(sl)
	}
	return out
}

func cloneLedger(l styles.Ledger) styles.Ledger {
	var out styles.Ledger
	for _, c := range styles.Categories() {
		if m, ok := l.Master(c); ok {
			out.SetMaster(c, &m)
		}
	}
	return out
}
