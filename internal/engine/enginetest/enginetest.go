// Package enginetest provides an in-memory backend and a ready-wired
// engine.Service for tests of the surfaces built on it.
package enginetest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/liveset/internal/clock"
	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/persister"
	"github.com/claude/liveset/internal/session"
	"github.com/claude/liveset/internal/storage"
	"github.com/google/uuid"
)

// Epoch is the fake clock's starting time.
var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	_ persister.PersistenceService = (*Backend)(nil)
	_ engine.Catalog               = (*Backend)(nil)
)

// Backend is an in-memory persistence backend and catalog.
type Backend struct {
	mu sync.Mutex

	// FailWrites makes every write return an error.
	FailWrites bool

	Exercises map[string]*models.CatalogExercise
	Templates map[string]*models.Template
	Previous  map[string][]models.PreviousSet

	Workouts         []models.WorkoutRecord
	WorkoutExercises []models.WorkoutExerciseRecord
	Sets             map[uuid.UUID][]models.SetRecord
}

// NewBackend returns a backend with a small catalog: bench, squat, row.
func NewBackend() *Backend {
	chest, legs := "chest", "quads"
	return &Backend{
		Exercises: map[string]*models.CatalogExercise{
			"bench": {ID: "bench", Name: "Bench Press", Type: "strength", Muscle: &chest, Equipment: []string{"barbell"}},
			"squat": {ID: "squat", Name: "Back Squat", Type: "strength", Muscle: &legs, Equipment: []string{"barbell", "rack"}},
			"row":   {ID: "row", Name: "Cable Row", Type: "strength"},
		},
		Templates: map[string]*models.Template{
			"push": {ID: "push", Name: "Push Day", Exercises: []models.TemplateExercise{
				{ExerciseID: "bench", Name: "Bench Press", SetCount: 2},
			}},
		},
		Previous: map[string][]models.PreviousSet{},
		Sets:     map[uuid.UUID][]models.SetRecord{},
	}
}

var errWrite = errors.New("backend unavailable")

func (b *Backend) CreateWorkout(_ context.Context, rec models.WorkoutRecord) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		return uuid.Nil, errWrite
	}
	b.Workouts = append(b.Workouts, rec)
	return uuid.New(), nil
}

func (b *Backend) CreateWorkoutExercise(_ context.Context, rec models.WorkoutExerciseRecord) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		return uuid.Nil, errWrite
	}
	b.WorkoutExercises = append(b.WorkoutExercises, rec)
	return uuid.New(), nil
}

func (b *Backend) CreateWorkoutSets(_ context.Context, id uuid.UUID, sets []models.SetRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		return errWrite
	}
	b.Sets[id] = sets
	return nil
}

func (b *Backend) TrimWorkoutExercises(context.Context, uuid.UUID, int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		return errWrite
	}
	return nil
}

func (b *Backend) QueryPreviousSets(_ context.Context, _ int, exerciseID string) ([]models.PreviousSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Previous[exerciseID], nil
}

func (b *Backend) GetTemplate(_ context.Context, _ int, id string) (*models.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.Templates[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t, nil
}

func (b *Backend) GetExercise(_ context.Context, id string) (*models.CatalogExercise, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.Exercises[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

func (b *Backend) ListExercises(context.Context) ([]models.CatalogExercise, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.CatalogExercise, 0, len(b.Exercises))
	for _, id := range []string{"bench", "row", "squat"} {
		if e, ok := b.Exercises[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (b *Backend) QueryWorkouts(_ context.Context, userID, limit int) ([]storage.WorkoutSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []storage.WorkoutSummary
	for i := len(b.Workouts) - 1; i >= 0 && len(out) < limit; i-- {
		w := b.Workouts[i]
		if w.UserID != userID {
			continue
		}
		out = append(out, storage.WorkoutSummary{Name: w.Name, Date: w.Date, Duration: w.DurationLabel})
	}
	return out, nil
}

func (b *Backend) GetTrainingStats(_ context.Context, userID int) (*storage.TrainingStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := &storage.TrainingStats{}
	for _, w := range b.Workouts {
		if w.UserID == userID {
			stats.TotalWorkouts++
		}
	}
	for _, sets := range b.Sets {
		stats.TotalSets += int64(len(sets))
	}
	return stats, nil
}

// Snapshots is an in-memory resume snapshot slot.
type Snapshots struct {
	mu   sync.Mutex
	snap *models.Snapshot
}

func (s *Snapshots) Save(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.snap = &cp
	return nil
}

func (s *Snapshots) Load(context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func (s *Snapshots) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}

// Saved returns the current snapshot, or nil.
func (s *Snapshots) Saved() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Env is a wired service with its fakes.
type Env struct {
	Service   *engine.Service
	Store     *session.Store
	Backend   *Backend
	Snapshots *Snapshots
	Clock     *clock.Fake
}

// New wires a Service over a fake clock, in-memory snapshots and b.
func New(t testing.TB, b *Backend) *Env {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	fc := clock.NewFake(Epoch)
	snaps := &Snapshots{}
	store := session.NewStore(fc, snaps, nil, session.Options{RestDefaultSeconds: 90, NotifyOnFinish: true, DefaultSets: 3}, log)
	p := persister.New(b, 3, log)
	return &Env{
		Service:   engine.New(store, p, b, log),
		Store:     store,
		Backend:   b,
		Snapshots: snaps,
		Clock:     fc,
	}
}
