// Package engine binds the live session store, the persister and the
// exercise catalog into the operations the HTTP and MCP surfaces expose.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/persister"
	"github.com/claude/liveset/internal/session"
	"github.com/claude/liveset/internal/storage"
)

// ErrInvalidRequest marks malformed input from a client.
var ErrInvalidRequest = errors.New("invalid request")

// Catalog is the read side of the backend used outside the finish
// transaction. *storage.DB satisfies it.
type Catalog interface {
	GetExercise(ctx context.Context, id string) (*models.CatalogExercise, error)
	ListExercises(ctx context.Context) ([]models.CatalogExercise, error)
	QueryWorkouts(ctx context.Context, userID, limit int) ([]storage.WorkoutSummary, error)
	GetTrainingStats(ctx context.Context, userID int) (*storage.TrainingStats, error)
}

var _ Catalog = (*storage.DB)(nil)

// Service is the single entry point for driving the live workout. The
// live session belongs to the user who started it; intents from anyone
// else fail with session.ErrNotOwner.
type Service struct {
	store     *session.Store
	persister *persister.Persister
	catalog   Catalog
	log       *slog.Logger

	// mu makes the owner check and the intent it guards one step.
	mu sync.Mutex
}

// New creates a Service.
func New(store *session.Store, p *persister.Persister, catalog Catalog, log *slog.Logger) *Service {
	return &Service{store: store, persister: p, catalog: catalog, log: log}
}

// Store returns the underlying session store.
func (s *Service) Store() *session.Store { return s.store }

// State returns the current session state as seen by userID.
func (s *Service) State(userID int) (session.State, error) {
	if err := s.store.CheckOwner(userID); err != nil {
		return session.State{}, err
	}
	return s.store.State(), nil
}

// as runs fn if userID owns the live session, or no session is live.
func (s *Service) as(userID int, fn func() error) (session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.CheckOwner(userID); err != nil {
		return session.State{}, err
	}
	if err := fn(); err != nil {
		return session.State{}, err
	}
	return s.store.State(), nil
}

// Start begins a workout for userID, from a template when templateID is
// set. A blank name falls back to the template's name.
func (s *Service) Start(ctx context.Context, userID int, name, templateID string) (session.State, error) {
	return s.as(userID, func() error {
		if templateID != "" {
			return s.persister.StartFromTemplate(ctx, s.store, userID, templateID, name)
		}
		return s.store.StartWorkout(ctx, userID, name, nil, nil)
	})
}

// Update merges name and rest settings into the active workout.
func (s *Service) Update(ctx context.Context, userID int, u session.WorkoutUpdate) (session.State, error) {
	return s.as(userID, func() error { return s.store.UpdateWorkout(ctx, u) })
}

// AddExercise appends an exercise. Metadata missing from spec is filled
// from the catalog; an exercise with no name must exist there.
func (s *Service) AddExercise(ctx context.Context, userID int, spec session.ExerciseSpec) (session.State, error) {
	spec.ID = strings.TrimSpace(spec.ID)
	if spec.ID == "" {
		return session.State{}, fmt.Errorf("%w: exercise id is required", ErrInvalidRequest)
	}
	if spec.Name == "" {
		ex, err := s.catalog.GetExercise(ctx, spec.ID)
		if err != nil {
			return session.State{}, err
		}
		spec = specFromCatalog(ex)
	}
	return s.as(userID, func() error { return s.store.AddExercise(ctx, spec) })
}

func specFromCatalog(ex *models.CatalogExercise) session.ExerciseSpec {
	spec := session.ExerciseSpec{
		ID:        ex.ID,
		Name:      ex.Name,
		Type:      ex.Type,
		Equipment: append([]string(nil), ex.Equipment...),
	}
	if ex.Muscle != nil && *ex.Muscle != "" {
		spec.Muscles = []string{*ex.Muscle}
	}
	return spec
}

// RemoveExercise drops an exercise from the workout.
func (s *Service) RemoveExercise(ctx context.Context, userID int, exerciseID string) (session.State, error) {
	return s.as(userID, func() error { return s.store.RemoveExercise(ctx, exerciseID) })
}

// ReorderExercises moves the exercise at from to to.
func (s *Service) ReorderExercises(ctx context.Context, userID, from, to int) (session.State, error) {
	return s.as(userID, func() error { return s.store.ReorderExercises(ctx, from, to) })
}

// AddSet appends a set to an exercise.
func (s *Service) AddSet(ctx context.Context, userID int, exerciseID string) (session.State, error) {
	return s.as(userID, func() error { return s.store.AddSet(ctx, exerciseID) })
}

// RemoveSet drops the last set of an exercise.
func (s *Service) RemoveSet(ctx context.Context, userID int, exerciseID string) (session.State, error) {
	return s.as(userID, func() error { return s.store.RemoveSet(ctx, exerciseID) })
}

// UpdateSet writes one field of a set.
func (s *Service) UpdateSet(ctx context.Context, userID int, exerciseID string, index int, field, value string) (session.State, error) {
	f, err := session.ParseField(field)
	if err != nil {
		return session.State{}, err
	}
	return s.as(userID, func() error { return s.store.UpdateSet(ctx, exerciseID, index, f, value) })
}

// StartRest starts the rest countdown; seconds <= 0 uses the default.
func (s *Service) StartRest(ctx context.Context, userID, seconds int) (session.State, error) {
	return s.as(userID, func() error { return s.store.StartRest(ctx, seconds) })
}

// ResetRest cancels the rest countdown.
func (s *Service) ResetRest(ctx context.Context, userID int) (session.State, error) {
	return s.as(userID, func() error { return s.store.ResetRest(ctx) })
}

// Finish saves the workout under its owner and ends it. The save runs
// outside mu; the store refuses edits while it is in flight.
func (s *Service) Finish(ctx context.Context, userID int) (*persister.SaveResult, error) {
	if err := s.store.CheckOwner(userID); err != nil {
		return nil, err
	}
	return s.persister.Finish(ctx, s.store, userID)
}

// Discard ends the workout without saving.
func (s *Service) Discard(ctx context.Context, userID int) (session.State, error) {
	return s.as(userID, func() error { return s.store.Discard(ctx) })
}

// Background forces a snapshot write before the host suspends.
func (s *Service) Background(ctx context.Context) error {
	return s.store.EnterBackground(ctx)
}

// Foreground republishes state after a resume.
func (s *Service) Foreground(userID int) (session.State, error) {
	s.store.EnterForeground()
	return s.State(userID)
}

// Template expands a template with the user's previous performance.
func (s *Service) Template(ctx context.Context, userID int, templateID string) (*persister.TemplateSession, error) {
	return s.persister.LoadTemplate(ctx, userID, templateID)
}

// Exercises lists the catalog.
func (s *Service) Exercises(ctx context.Context) ([]models.CatalogExercise, error) {
	return s.catalog.ListExercises(ctx)
}

// RecentWorkouts lists the user's saved workouts, newest first.
func (s *Service) RecentWorkouts(ctx context.Context, userID, limit int) ([]storage.WorkoutSummary, error) {
	return s.catalog.QueryWorkouts(ctx, userID, limit)
}

// Stats returns aggregate training statistics.
func (s *Service) Stats(ctx context.Context, userID int) (*storage.TrainingStats, error) {
	return s.catalog.GetTrainingStats(ctx, userID)
}

// IsNotFound reports whether err means a referenced exercise, template or
// set does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, session.ErrExerciseNotFound)
}
