// Package sound provides the rest-finished notification.
package sound

import (
	"io"
	"log/slog"
	"sync"
)

// Bell rings the terminal bell on a writer, typically os.Stdout of an
// attached console.
type Bell struct {
	mu  sync.Mutex
	w   io.Writer
	log *slog.Logger
}

// NewBell creates a Bell writing to w.
func NewBell(w io.Writer, log *slog.Logger) *Bell {
	return &Bell{w: w, log: log}
}

// Play writes a BEL character. Failures are logged; a missed chime never
// interrupts the workout.
func (b *Bell) Play() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		b.log.Warn("playing rest notification", "error", err)
		return
	}
	b.log.Debug("rest notification played")
}

// Silent discards notifications.
type Silent struct{}

func (Silent) Play() {}
