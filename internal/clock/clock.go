package clock

import (
	"sync"
	"time"
)

// Clock abstracts wall time and periodic callbacks so timers can be driven
// by a virtual clock in tests.
type Clock interface {
	// Now returns the current wall time.
	Now() time.Time
	// Every calls fn every d until the returned stop func is called.
	// Stop is safe to call more than once and from inside fn.
	Every(d time.Duration, fn func()) (stop func())
}

// Real is a Clock backed by the time package. Callbacks run on a
// dedicated goroutine per schedule.
type Real struct{}

// NewReal returns the production clock.
func NewReal() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A stop racing with a tick must win.
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
