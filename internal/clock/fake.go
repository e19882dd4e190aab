package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a virtual Clock. Time only moves when Advance or Set is called,
// and scheduled callbacks run synchronously on the caller's goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	scheds map[int]*schedule
}

type schedule struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, scheds: make(map[int]*schedule)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(d time.Duration, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s := &schedule{id: f.nextID, interval: d, next: f.now.Add(d), fn: fn}
	f.scheds[s.id] = s
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		s.stopped = true
		delete(f.scheds, s.id)
	}
}

// Advance moves time forward by d, firing every due callback in time order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		s := f.earliestDue(target)
		if s == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = s.next
		s.next = s.next.Add(s.interval)
		fn := s.fn
		f.mu.Unlock()

		fn()
	}
}

// Set jumps the clock to t without firing anything, the way a suspended
// process observes time on resume. Pending schedules are re-based on t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
	for _, s := range f.scheds {
		s.next = t.Add(s.interval)
	}
}

// Pending reports the number of live schedules.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheds)
}

func (f *Fake) earliestDue(target time.Time) *schedule {
	due := make([]*schedule, 0, len(f.scheds))
	for _, s := range f.scheds {
		if !s.stopped && !s.next.After(target) {
			due = append(due, s)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})
	return due[0]
}
