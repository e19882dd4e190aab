package persister

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/session"
	"github.com/google/uuid"
)

// PersistenceService is the backend the finish transaction writes to.
// *storage.DB implements it against PostgreSQL.
//
// Writes are keyed so that a retry of a partially failed save converges
// on the final session: CreateWorkout reuses the row with the same client
// key, CreateWorkoutExercise replaces the row at the same position,
// CreateWorkoutSets replaces the exercise's set rows and
// TrimWorkoutExercises drops positions a shorter retry no longer uses.
type PersistenceService interface {
	CreateWorkout(ctx context.Context, rec models.WorkoutRecord) (uuid.UUID, error)
	CreateWorkoutExercise(ctx context.Context, rec models.WorkoutExerciseRecord) (uuid.UUID, error)
	CreateWorkoutSets(ctx context.Context, workoutExerciseID uuid.UUID, sets []models.SetRecord) error
	TrimWorkoutExercises(ctx context.Context, workoutID uuid.UUID, count int) error
	QueryPreviousSets(ctx context.Context, userID int, exerciseID string) ([]models.PreviousSet, error)
	GetTemplate(ctx context.Context, userID int, templateID string) (*models.Template, error)
}

// SessionStore is the part of session.Store the persister drives.
type SessionStore interface {
	StartWorkout(ctx context.Context, userID int, name string, templateID *string, exercises []models.Exercise) error
	BeginFinish() (*models.Session, int, error)
	AbortFinish()
	CompleteFinish(ctx context.Context, sessionID string) error
}

var _ SessionStore = (*session.Store)(nil)

// Persister turns finished sessions into backend rows and seeds template
// sessions with the user's previous performance.
type Persister struct {
	svc         PersistenceService
	log         *slog.Logger
	defaultSets int
	now         func() time.Time
}

// New creates a Persister.
func New(svc PersistenceService, defaultSets int, log *slog.Logger) *Persister {
	if defaultSets < 1 {
		defaultSets = session.DefaultSetCount
	}
	return &Persister{svc: svc, log: log, defaultSets: defaultSets, now: time.Now}
}

// SavedExercise records one exercise written by Save.
type SavedExercise struct {
	ExerciseID        string    `json:"exercise_id"`
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	Sets              int       `json:"sets"`
}

// SaveResult describes how far a save got. It is returned alongside a
// SaveError so callers can tell which rows already exist.
type SaveResult struct {
	WorkoutID uuid.UUID       `json:"workout_id"`
	Exercises []SavedExercise `json:"exercises"`
}

// Step names a stage of the finish transaction.
type Step string

const (
	StepCreateWorkout  Step = "create workout"
	StepCreateExercise Step = "create workout exercise"
	StepCreateSets     Step = "create workout sets"
	StepTrim           Step = "trim workout exercises"
)

// SaveError reports the step at which a save stopped. Rows written before
// it are not rolled back.
type SaveError struct {
	Step       Step
	ExerciseID string
	Position   int
	Err        error
}

func (e *SaveError) Error() string {
	if e.Step == StepCreateWorkout || e.Step == StepTrim {
		return fmt.Sprintf("saving workout: %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("saving workout: %s for %s (position %d): %v", e.Step, e.ExerciseID, e.Position, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Save writes the session: the parent workout, then for each exercise
// with completed sets, in display order, its workout-exercise row and its
// completed sets, then drops rows an earlier attempt left past the last
// position. Writes are strictly sequential and the first failure aborts
// the rest.
func (p *Persister) Save(ctx context.Context, userID int, sess *models.Session, durationSeconds int) (*SaveResult, error) {
	date := p.now().UTC()
	if sess.StartedAt != nil {
		date = sess.StartedAt.UTC()
	}

	result := &SaveResult{}
	workoutID, err := p.svc.CreateWorkout(ctx, models.WorkoutRecord{
		UserID:        userID,
		ClientKey:     sess.ID,
		Name:          sess.WorkoutName,
		Date:          date,
		DurationLabel: models.DurationLabel(durationSeconds),
	})
	if err != nil {
		return result, &SaveError{Step: StepCreateWorkout, Err: err}
	}
	result.WorkoutID = workoutID

	position := 0
	for _, ex := range sess.Exercises {
		sets := completedSets(ex)
		if len(sets) == 0 {
			continue
		}

		weID, err := p.svc.CreateWorkoutExercise(ctx, models.WorkoutExerciseRecord{
			WorkoutID:  workoutID,
			ExerciseID: ex.ID,
			SetCount:   len(sets),
			OrderIndex: position,
		})
		if err != nil {
			return result, &SaveError{Step: StepCreateExercise, ExerciseID: ex.ID, Position: position, Err: err}
		}

		if err := p.svc.CreateWorkoutSets(ctx, weID, sets); err != nil {
			return result, &SaveError{Step: StepCreateSets, ExerciseID: ex.ID, Position: position, Err: err}
		}

		result.Exercises = append(result.Exercises, SavedExercise{ExerciseID: ex.ID, WorkoutExerciseID: weID, Sets: len(sets)})
		position++
	}

	if err := p.svc.TrimWorkoutExercises(ctx, workoutID, position); err != nil {
		return result, &SaveError{Step: StepTrim, Position: position, Err: err}
	}
	return result, nil
}

// Finish validates and saves the store's active session, then ends it.
// The workout is written for the user who started it; another user gets
// session.ErrNotOwner. On any error the session stays active so the user
// can retry.
func (p *Persister) Finish(ctx context.Context, store SessionStore, userID int) (*SaveResult, error) {
	sess, duration, err := store.BeginFinish()
	if err != nil {
		return nil, err
	}
	owner := sess.UserID
	if owner == 0 {
		owner = userID
	}
	if owner != userID {
		store.AbortFinish()
		return nil, session.ErrNotOwner
	}

	result, err := p.Save(ctx, owner, sess, duration)
	if err != nil {
		store.AbortFinish()
		var se *SaveError
		if errors.As(err, &se) {
			p.log.Error("finish failed", "session", sess.ID, "step", se.Step, "exercise", se.ExerciseID, "error", se.Err)
		}
		return result, err
	}

	p.log.Info("workout saved", "session", sess.ID, "workout", result.WorkoutID, "exercises", len(result.Exercises))
	if err := store.CompleteFinish(ctx, sess.ID); err != nil {
		// The rows are written; a stale snapshot is the only casualty.
		p.log.Warn("ending finished workout", "session", sess.ID, "error", err)
	}
	return result, nil
}

// completedSets returns the completed sets of ex with zero-based order
// local to the exercise. Uncompleted sets are never persisted.
func completedSets(ex models.Exercise) []models.SetRecord {
	var out []models.SetRecord
	for _, s := range ex.Sets {
		if !s.Completed {
			continue
		}
		weight, _ := models.ParseQuantity(s.Weight)
		out = append(out, models.SetRecord{
			Reps:   models.RepCount(s.Reps),
			Weight: weight,
			Order:  len(out),
		})
	}
	return out
}
