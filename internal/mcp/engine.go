package mcp

import (
	"context"

	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/persister"
	"github.com/claude/liveset/internal/session"
	"github.com/claude/liveset/internal/storage"
)

// Engine abstracts the live session for MCP tools. Both Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type Engine interface {
	Session(ctx context.Context) (session.State, error)
	StartWorkout(ctx context.Context, name, templateID string) (session.State, error)
	AddExercise(ctx context.Context, spec session.ExerciseSpec) (session.State, error)
	RemoveExercise(ctx context.Context, exerciseID string) (session.State, error)
	AddSet(ctx context.Context, exerciseID string) (session.State, error)
	UpdateSet(ctx context.Context, exerciseID string, index int, field, value string) (session.State, error)
	StartRest(ctx context.Context, seconds int) (session.State, error)
	Finish(ctx context.Context) (*persister.SaveResult, error)
	Discard(ctx context.Context) (session.State, error)
	RecentWorkouts(ctx context.Context, limit int) ([]storage.WorkoutSummary, error)
}

// Local drives an in-process engine.Service. The user comes from the
// request context.
type Local struct {
	svc *engine.Service
}

var _ Engine = (*Local)(nil)

// NewLocal wraps svc.
func NewLocal(svc *engine.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) Session(ctx context.Context) (session.State, error) {
	return l.svc.State(UserIDFromContext(ctx))
}

func (l *Local) StartWorkout(ctx context.Context, name, templateID string) (session.State, error) {
	return l.svc.Start(ctx, UserIDFromContext(ctx), name, templateID)
}

func (l *Local) AddExercise(ctx context.Context, spec session.ExerciseSpec) (session.State, error) {
	return l.svc.AddExercise(ctx, UserIDFromContext(ctx), spec)
}

func (l *Local) RemoveExercise(ctx context.Context, exerciseID string) (session.State, error) {
	return l.svc.RemoveExercise(ctx, UserIDFromContext(ctx), exerciseID)
}

func (l *Local) AddSet(ctx context.Context, exerciseID string) (session.State, error) {
	return l.svc.AddSet(ctx, UserIDFromContext(ctx), exerciseID)
}

func (l *Local) UpdateSet(ctx context.Context, exerciseID string, index int, field, value string) (session.State, error) {
	return l.svc.UpdateSet(ctx, UserIDFromContext(ctx), exerciseID, index, field, value)
}

func (l *Local) StartRest(ctx context.Context, seconds int) (session.State, error) {
	return l.svc.StartRest(ctx, UserIDFromContext(ctx), seconds)
}

func (l *Local) Finish(ctx context.Context) (*persister.SaveResult, error) {
	return l.svc.Finish(ctx, UserIDFromContext(ctx))
}

func (l *Local) Discard(ctx context.Context) (session.State, error) {
	return l.svc.Discard(ctx, UserIDFromContext(ctx))
}

func (l *Local) RecentWorkouts(ctx context.Context, limit int) ([]storage.WorkoutSummary, error) {
	return l.svc.RecentWorkouts(ctx, UserIDFromContext(ctx), limit)
}
