package session

import (
	"sync"
	"time"

	"github.com/claude/liveset/internal/clock"
	"github.com/claude/liveset/internal/models"
)

// DefaultRestSeconds is the countdown length when none is configured.
const DefaultRestSeconds = 90

// Sound plays the rest-finished notification.
type Sound interface {
	Play()
}

// RestTimer is the countdown between sets.
//
// Each Start bumps a generation counter and ticks carrying an older
// generation are dropped, so a retarget can never leave two schedules
// decrementing remaining.
type RestTimer struct {
	clock clock.Clock
	sound Sound

	mu             sync.Mutex
	defaultSeconds int
	remaining      int
	running        bool
	notify         bool
	gen            uint64
	stop           func()

	// OnTick runs after every decrement, outside the timer lock.
	OnTick func(models.RestConfig)
	// OnFinished runs once each time a countdown reaches zero.
	OnFinished func()
}

// NewRestTimer returns an idle timer showing defaultSeconds.
func NewRestTimer(c clock.Clock, sound Sound, defaultSeconds int, notify bool) *RestTimer {
	if defaultSeconds <= 0 {
		defaultSeconds = DefaultRestSeconds
	}
	return &RestTimer{
		clock:          c,
		sound:          sound,
		defaultSeconds: defaultSeconds,
		remaining:      defaultSeconds,
		notify:         notify,
	}
}

// Start cancels any countdown and begins a new one from seconds.
// A non-positive duration leaves the timer idle at zero.
func (t *RestTimer) Start(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked(seconds)
}

// Resume continues a countdown restored from a snapshot.
func (t *RestTimer) Resume(remaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked(remaining)
}

// Reset cancels the countdown and shows the default duration again.
// It never fires OnFinished.
func (t *RestTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.remaining = t.defaultSeconds
	t.running = false
}

// Stop cancels the countdown and leaves remaining where it is.
func (t *RestTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.running = false
}

// SetDefault changes the duration used by Reset and by set completion.
// An idle timer shows the new default immediately.
func (t *RestTimer) SetDefault(seconds int) {
	if seconds <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defaultSeconds = seconds
	if !t.running {
		t.remaining = seconds
	}
}

// SetNotify toggles the finish sound.
func (t *RestTimer) SetNotify(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = on
}

// Restore loads timer state from a snapshot without starting a countdown.
func (t *RestTimer) Restore(cfg models.RestConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	if cfg.DefaultSeconds > 0 {
		t.defaultSeconds = cfg.DefaultSeconds
	}
	t.remaining = cfg.ActiveSecondsRemaining
	t.running = false
	t.notify = cfg.NotifyOnFinish
}

// DefaultSeconds returns the configured countdown length.
func (t *RestTimer) DefaultSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.defaultSeconds
}

// State returns the timer as a RestConfig.
func (t *RestTimer) State() models.RestConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *RestTimer) stateLocked() models.RestConfig {
	return models.RestConfig{
		DefaultSeconds:         t.defaultSeconds,
		ActiveSecondsRemaining: t.remaining,
		IsRunning:              t.running,
		NotifyOnFinish:         t.notify,
	}
}

func (t *RestTimer) startLocked(seconds int) {
	t.cancelLocked()
	if seconds <= 0 {
		t.remaining = 0
		t.running = false
		return
	}
	t.remaining = seconds
	t.running = true
	gen := t.gen
	t.stop = t.clock.Every(time.Second, func() { t.tick(gen) })
}

func (t *RestTimer) cancelLocked() {
	t.gen++
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

func (t *RestTimer) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.remaining--
	finished := false
	if t.remaining <= 0 {
		t.remaining = 0
		t.running = false
		t.cancelLocked()
		finished = true
	}
	state := t.stateLocked()
	onTick, onFinished := t.OnTick, t.OnFinished
	t.mu.Unlock()

	if onTick != nil {
		onTick(state)
	}
	if !finished {
		return
	}
	if onFinished != nil {
		onFinished()
	}
	if state.NotifyOnFinish && t.sound != nil {
		t.sound.Play()
	}
}
