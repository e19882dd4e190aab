package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultWorkoutName is used until the user renames the session.
const DefaultWorkoutName = "Workout"

// Lifecycle is the state of a live session.
type Lifecycle string

const (
	LifecycleIdle     Lifecycle = "idle"
	LifecycleActive   Lifecycle = "active"
	LifecycleFinished Lifecycle = "finished"
)

// Session is the in-progress workout aggregate.
type Session struct {
	ID          string     `json:"id"`
	UserID      int        `json:"user_id"`
	WorkoutName string     `json:"workout_name"`
	TemplateID  *string    `json:"template_id"`
	Exercises   []Exercise `json:"exercises"`
	Rest        RestConfig `json:"rest"`
	StartedAt   *time.Time `json:"started_at"`
	Lifecycle   Lifecycle  `json:"lifecycle"`
}

// RestConfig mirrors the rest countdown state inside the session.
type RestConfig struct {
	DefaultSeconds         int  `json:"default_seconds"`
	ActiveSecondsRemaining int  `json:"active_seconds_remaining"`
	IsRunning              bool `json:"is_running"`
	NotifyOnFinish         bool `json:"notify_on_finish"`
}

// Exercise is a catalog exercise being performed in the session.
type Exercise struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	Muscles   []string `json:"muscles,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
	Sets      []Set    `json:"sets"`
}

// Set is one unit of work. Weight and Reps stay strings so partially
// typed values survive editing.
type Set struct {
	ID             string `json:"id"`
	Weight         string `json:"weight"`
	Reps           string `json:"reps"`
	Completed      bool   `json:"completed"`
	PreviousWeight string `json:"previous_weight"`
	PreviousReps   string `json:"previous_reps"`
}

// Ready reports whether the set may be marked completed: a finite,
// non-zero weight and at least one whole rep.
func (s Set) Ready() bool {
	return filled(s.Weight) && RepCount(s.Reps) > 0
}

// CompletedCount returns the number of completed sets.
func (e Exercise) CompletedCount() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (e Exercise) Clone() Exercise {
	c := e
	c.Muscles = append([]string(nil), e.Muscles...)
	c.Equipment = append([]string(nil), e.Equipment...)
	c.Sets = append([]Set(nil), e.Sets...)
	return c
}

// CloneExercises deep-copies an exercise collection.
func CloneExercises(exs []Exercise) []Exercise {
	if exs == nil {
		return nil
	}
	out := make([]Exercise, len(exs))
	for i, e := range exs {
		out[i] = e.Clone()
	}
	return out
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Exercises = CloneExercises(s.Exercises)
	if s.TemplateID != nil {
		id := *s.TemplateID
		c.TemplateID = &id
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	return &c
}

// HasCompletedWork reports whether any exercise has a completed set.
func (s *Session) HasCompletedWork() bool {
	for _, e := range s.Exercises {
		if e.CompletedCount() > 0 {
			return true
		}
	}
	return false
}

// filled reports whether v holds a finite, non-zero number. European
// decimal commas are accepted ("102,5").
func filled(v string) bool {
	f, err := ParseQuantity(v)
	return err == nil && f != 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RepCount returns reps rounded to the nearest whole rep, the value that
// is saved. Unparseable or non-finite input counts as zero.
func RepCount(v string) int {
	f, err := ParseQuantity(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// ParseQuantity parses a weight or rep count typed by the user.
func ParseQuantity(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
}
