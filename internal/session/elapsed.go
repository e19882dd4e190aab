package session

import (
	"sync"
	"time"

	"github.com/claude/liveset/internal/clock"
)

// ElapsedTracker reports how long the workout has been running.
// Duration is always now - startedAt; the 1 Hz tick carries no state and
// only tells listeners to re-read, so a suspended process shows the
// right value as soon as it wakes.
type ElapsedTracker struct {
	clock clock.Clock

	mu        sync.Mutex
	startedAt time.Time
	stop      func()

	// OnTick runs once a second while the tracker is started.
	OnTick func()
}

// NewElapsedTracker returns a stopped tracker.
func NewElapsedTracker(c clock.Clock) *ElapsedTracker {
	return &ElapsedTracker{clock: c}
}

// Start fixes the start time and begins the display tick.
func (e *ElapsedTracker) Start(startedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		e.stop()
	}
	e.startedAt = startedAt
	e.stop = e.clock.Every(time.Second, func() {
		e.mu.Lock()
		fn := e.OnTick
		e.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// Stop clears the start time and cancels the tick.
func (e *ElapsedTracker) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
	e.startedAt = time.Time{}
}

// Seconds returns whole seconds since start, or 0 when stopped.
func (e *ElapsedTracker) Seconds() int {
	e.mu.Lock()
	started := e.startedAt
	e.mu.Unlock()
	return ElapsedSeconds(started, e.clock.Now())
}

// ElapsedSeconds floors now - startedAt to whole seconds. A zero start or
// a clock that reads earlier than the start yields 0.
func ElapsedSeconds(startedAt, now time.Time) int {
	if startedAt.IsZero() {
		return 0
	}
	d := now.Sub(startedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
