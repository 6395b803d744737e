package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/logging"
	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// saveTimeout bounds a background save
const saveTimeout = 15 * time.Second

// Saver writes a slideshow's slide list and masters to the store
type Saver interface {
	SaveEditorState(ctx context.Context, slideshowID uuid.UUID, slides []types.Slide, masters styles.Ledger) error
}

// FlushError is a failed save. In-memory state stays authoritative; the next
// edit schedules another attempt.
type FlushError struct {
	SlideshowID uuid.UUID
	Version     uint64
	Cause       error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("failed to save slideshow %s (version %d): %v", e.SlideshowID, e.Version, e.Cause)
}

func (e *FlushError) Unwrap() error {
	return e.Cause
}

// Status is the non-blocking save indicator
type Status struct {
	Saving       bool      `json:"saving"`
	Dirty        bool      `json:"dirty"`
	SavedVersion uint64    `json:"saved_version"`
	LastSavedAt  time.Time `json:"last_saved_at,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	Err          error     `json:"-"`
}

// Flusher debounces editor changes into saves for one slideshow
type Flusher struct {
	slideshowID uuid.UUID
	saver       Saver
	debouncer   *Debouncer
	logger      *logging.Logger
	now         func() time.Time

	saveMu sync.Mutex

	mu     sync.Mutex
	latest *editor.Snapshot
	status Status
}

// NewFlusher creates a Flusher. Attach it with editor.WithOnChange(f.Observe).
func NewFlusher(slideshowID uuid.UUID, saver Saver, delay time.Duration, logger *logging.Logger) *Flusher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Flusher{
		slideshowID: slideshowID,
		saver:       saver,
		debouncer:   NewDebouncer(delay),
		logger:      logger.Component("persist").With("slideshow_id", slideshowID.String()),
		now:         time.Now,
	}
}

// Observe records a committed change and reschedules the save
func (f *Flusher) Observe(snap editor.Snapshot) {
	f.mu.Lock()
	if f.latest == nil || snap.Version >= f.latest.Version {
		f.latest = &snap
	}
	f.status.Dirty = true
	f.mu.Unlock()

	f.debouncer.Schedule(func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_ = f.save(ctx)
	})
}

// Flush writes pending changes now. A change whose background save failed is
// retried. It returns nil when nothing is left unsaved.
func (f *Flusher) Flush(ctx context.Context) error {
	if !f.debouncer.Cancel() {
		f.mu.Lock()
		unsaved := f.status.Dirty || f.status.Err != nil
		f.mu.Unlock()
		if !unsaved {
			return nil
		}
	}
	return f.save(ctx)
}

// Close writes pending changes and stops the debouncer
func (f *Flusher) Close(ctx context.Context) error {
	err := f.Flush(ctx)
	f.debouncer.Stop()
	return err
}

// Discard drops pending changes without saving and stops the debouncer
func (f *Flusher) Discard() {
	f.debouncer.Stop()
	f.mu.Lock()
	f.latest = nil
	f.status.Dirty = false
	f.mu.Unlock()
}

// Status returns the current save status
func (f *Flusher) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Flusher) save(ctx context.Context) error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.mu.Lock()
	snap := f.latest
	if snap == nil || (snap.Version <= f.status.SavedVersion && !f.status.LastSavedAt.IsZero()) {
		f.status.Dirty = false
		f.mu.Unlock()
		return nil
	}
	f.status.Saving = true
	f.mu.Unlock()

	err := f.saver.SaveEditorState(ctx, f.slideshowID, snap.Slides, snap.Masters)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Saving = false
	if err != nil {
		ferr := &FlushError{SlideshowID: f.slideshowID, Version: snap.Version, Cause: err}
		f.status.Err = ferr
		f.status.LastError = ferr.Error()
		f.logger.Error("save failed", "version", snap.Version, "error", err)
		return ferr
	}
	f.status.Err = nil
	f.status.LastError = ""
	f.status.SavedVersion = snap.Version
	f.status.LastSavedAt = f.now()
	f.status.Dirty = f.latest.Version > snap.Version
	f.logger.Debug("saved", "version", snap.Version, "slides", len(snap.Slides))
	return nil
}
