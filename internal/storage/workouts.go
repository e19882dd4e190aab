package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/persister"
	"github.com/google/uuid"
)

var _ persister.PersistenceService = (*DB)(nil)

// CreateWorkout inserts the parent workout row and returns its id. A row
// with the same client key is reused, so a retried save does not create a
// second workout.
func (db *DB) CreateWorkout(ctx context.Context, rec models.WorkoutRecord) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.conn().QueryRow(ctx,
		`INSERT INTO workouts (user_id, client_key, name, date, duration, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, client_key) DO UPDATE
			SET name = EXCLUDED.name, duration = EXCLUDED.duration
		 RETURNING id`,
		rec.UserID, rec.ClientKey, rec.Name, rec.Date, rec.DurationLabel, rec.Notes).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating workout: %w", err)
	}
	return id, nil
}

// CreateWorkoutExercise writes one exercise of a workout at its display
// position and returns the row id. A row already at that position is
// taken over, and its set rows are replaced by the CreateWorkoutSets call
// that follows.
func (db *DB) CreateWorkoutExercise(ctx context.Context, rec models.WorkoutExerciseRecord) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.conn().QueryRow(ctx,
		`INSERT INTO workout_exercises (workout_id, exercise_id, sets, order_index)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (workout_id, order_index) DO UPDATE
			SET exercise_id = EXCLUDED.exercise_id, sets = EXCLUDED.sets
		 RETURNING id`,
		rec.WorkoutID, rec.ExerciseID, rec.SetCount, rec.OrderIndex).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating workout exercise: %w", err)
	}
	return id, nil
}

// TrimWorkoutExercises deletes the workout's exercise rows at positions
// count and above, with their sets. A retried save calls it once the
// final positions are written.
func (db *DB) TrimWorkoutExercises(ctx context.Context, workoutID uuid.UUID, count int) error {
	_, err := db.conn().Exec(ctx,
		`DELETE FROM workout_exercises WHERE workout_id = $1 AND order_index >= $2`,
		workoutID, count)
	if err != nil {
		return fmt.Errorf("trimming workout exercises: %w", err)
	}
	return nil
}

// WorkoutSummary is one saved workout in the history list.
type WorkoutSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Duration  string    `json:"duration"`
	Exercises int       `json:"exercises"`
	Sets      int       `json:"sets"`
}

// QueryWorkouts returns the user's most recent saved workouts.
func (db *DB) QueryWorkouts(ctx context.Context, userID, limit int) ([]WorkoutSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.name, w.date, w.duration,
		 COUNT(DISTINCT we.id), COUNT(ws.id)
		 FROM workouts w
		 LEFT JOIN workout_exercises we ON we.workout_id = w.id
		 LEFT JOIN workout_sets ws ON ws.workout_exercise_id = we.id
		 WHERE w.user_id = $1
		 GROUP BY w.id
		 ORDER BY w.date DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []WorkoutSummary
	for rows.Next() {
		var w WorkoutSummary
		if err := rows.Scan(&w.ID, &w.Name, &w.Date, &w.Duration, &w.Exercises, &w.Sets); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
