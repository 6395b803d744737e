// Package sessions keeps open editor states in memory, one per slideshow.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/logging"
	"github.com/jonathan/slideshow-studio/internal/persist"
	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute

	evictFlushTimeout = 15 * time.Second
)

// Saved is the persisted state an editor is opened from
type Saved struct {
	Slides   []types.Slide
	Masters  styles.Ledger
	Settings types.GenerationSettings
}

// Loader reads a slideshow's saved state
type Loader func(ctx context.Context, slideshowID uuid.UUID) (*Saved, error)

// Entry is one open slideshow
type Entry struct {
	SlideshowID uuid.UUID
	Editor      *editor.State
	Flusher     *persist.Flusher
	OpenedAt    time.Time

	// set once the entry is being dropped on purpose
	closing atomic.Bool
}

// Options configures a Store
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	SaveDelay       time.Duration
	Logger          *logging.Logger
}

// Store caches open editors keyed by slideshow id. Entries idle longer than the
// TTL are evicted; eviction writes any pending changes first and keeps the
// entry when that save fails.
type Store struct {
	cache  *cache.Cache
	saver  persist.Saver
	delay  time.Duration
	logger *logging.Logger

	// serializes Open so a slideshow is loaded once
	openMu sync.Mutex
}

// NewStore creates a Store that saves through saver
func NewStore(saver persist.Saver, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	switch {
	case opts.CleanupInterval == 0:
		opts.CleanupInterval = DefaultCleanupInterval
	case opts.CleanupInterval < 0:
		// no janitor; expired entries go on Sweep
		opts.CleanupInterval = 0
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	s := &Store{
		cache:  cache.New(opts.TTL, opts.CleanupInterval),
		saver:  saver,
		delay:  opts.SaveDelay,
		logger: opts.Logger.Component("sessions"),
	}
	s.cache.OnEvicted(s.onEvicted)
	return s
}

// Get returns an open entry and refreshes its TTL
func (s *Store) Get(slideshowID uuid.UUID) (*Entry, bool) {
	key := slideshowID.String()
	x, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	e := x.(*Entry)
	s.cache.Set(key, e, cache.DefaultExpiration)
	return e, true
}

// Open returns the open entry for a slideshow, loading it with loader on first use
func (s *Store) Open(ctx context.Context, slideshowID uuid.UUID, loader Loader) (*Entry, error) {
	if e, ok := s.Get(slideshowID); ok {
		return e, nil
	}

	s.openMu.Lock()
	defer s.openMu.Unlock()
	if e, ok := s.Get(slideshowID); ok {
		return e, nil
	}

	saved, err := loader(ctx, slideshowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slideshow %s: %w", slideshowID, err)
	}
	if saved == nil {
		saved = &Saved{Settings: types.DefaultGenerationSettings()}
	}

	flusher := persist.NewFlusher(slideshowID, s.saver, s.delay, s.logger)
	ed := editor.New(editor.WithLogger(s.logger))
	ed.Load(saved.Slides, saved.Masters, saved.Settings)
	ed.SetOnChange(flusher.Observe)

	e := &Entry{
		SlideshowID: slideshowID,
		Editor:      ed,
		Flusher:     flusher,
		OpenedAt:    time.Now(),
	}
	s.cache.Set(slideshowID.String(), e, cache.DefaultExpiration)
	s.logger.Info("opened editor", "slideshow_id", slideshowID.String(), "slides", len(saved.Slides))
	return e, nil
}

// Close writes pending changes and drops the entry. Closing an entry that is
// not open is a no-op. An entry whose save fails stays open so the edits are
// not lost, and an entry with a generation in flight is not closed.
func (s *Store) Close(ctx context.Context, slideshowID uuid.UUID) error {
	key := slideshowID.String()
	x, found := s.cache.Get(key)
	if !found {
		return nil
	}
	e := x.(*Entry)
	if e.Editor.Loading() {
		return fmt.Errorf("close slideshow %s: %w", slideshowID, editor.ErrGenerationInProgress)
	}
	if err := e.Flusher.Flush(ctx); err != nil {
		return err
	}
	s.remove(key, e)
	return nil
}

// Discard drops the entry without saving pending changes
func (s *Store) Discard(slideshowID uuid.UUID) {
	key := slideshowID.String()
	x, found := s.cache.Get(key)
	if !found {
		return
	}
	e := x.(*Entry)
	e.Flusher.Discard()
	s.remove(key, e)
}

func (s *Store) remove(key string, e *Entry) {
	e.closing.Store(true)
	s.cache.Delete(key)
}

// CloseAll closes every open entry and returns the first save error
func (s *Store) CloseAll(ctx context.Context) error {
	s.cache.DeleteExpired()
	var first error
	for key := range s.cache.Items() {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		if err := s.Close(ctx, id); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Sweep evicts expired entries now
func (s *Store) Sweep() {
	s.cache.DeleteExpired()
}

// Len returns the number of open entries, including expired ones not yet swept
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func (s *Store) onEvicted(key string, value interface{}) {
	e, ok := value.(*Entry)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), evictFlushTimeout)
	defer cancel()
	if !e.closing.Load() {
		// a generation still running would lose its result
		if e.Editor.Loading() {
			s.cache.Set(key, e, cache.DefaultExpiration)
			return
		}
		if err := e.Flusher.Flush(ctx); err != nil {
			s.logger.Error("flush on evict failed, keeping editor", "slideshow_id", key, "error", err)
			s.cache.Set(key, e, cache.DefaultExpiration)
			return
		}
	}
	if err := e.Flusher.Close(ctx); err != nil {
		s.logger.Error("flush on evict failed", "slideshow_id", key, "error", err)
		return
	}
	s.logger.Debug("evicted editor", "slideshow_id", key)
}
