// Package persist writes editor state to the store after a quiet period.
package persist

import (
	"sync"
	"time"
)

// DefaultDelay is the idle window before pending changes are written
const DefaultDelay = 2 * time.Second

// Debouncer runs the most recently scheduled task once no new task has been
// scheduled for the delay. Scheduling cancels the pending task.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	seq     uint64
	stopped bool
	running sync.WaitGroup
}

// NewDebouncer creates a Debouncer. A non-positive delay uses DefaultDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Schedule cancels any pending task and schedules fn. It is a no-op after Stop.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil && d.timer.Stop() {
		d.running.Done()
	}
	d.seq++
	seq := d.seq
	d.pending = fn
	d.running.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.running.Done()
		d.fire(seq)
	})
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// take removes the pending task. A superseded timer callback that already
// started sees a changed sequence number and returns without running anything.
func (d *Debouncer) take() func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return nil
	}
	fn := d.pending
	d.pending = nil
	d.seq++
	if d.timer != nil && d.timer.Stop() {
		// the callback will never run, so release its slot
		d.running.Done()
	}
	d.timer = nil
	return fn
}

// Cancel drops the pending task without running it. It reports whether a task was pending.
func (d *Debouncer) Cancel() bool {
	return d.take() != nil
}

// Flush runs the pending task now on the calling goroutine. It reports whether a task ran.
func (d *Debouncer) Flush() bool {
	fn := d.take()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a task is waiting to run
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending task, refuses new ones and waits for a running task to finish
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.take()
	d.running.Wait()
}
