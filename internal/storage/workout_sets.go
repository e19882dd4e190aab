package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/liveset/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateWorkoutSets writes the completed sets of one workout exercise.
// Rows from an earlier attempt are overwritten by set order, and rows past
// the last set are deleted.
func (db *DB) CreateWorkoutSets(ctx context.Context, workoutExerciseID uuid.UUID, sets []models.SetRecord) error {
	if len(sets) > 0 {
		query, args := setInsert(workoutExerciseID, sets)
		if _, err := db.conn().Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting workout sets: %w", err)
		}
	}
	_, err := db.conn().Exec(ctx,
		`DELETE FROM workout_sets WHERE workout_exercise_id = $1 AND set_order >= $2`,
		workoutExerciseID, len(sets))
	if err != nil {
		return fmt.Errorf("trimming workout sets: %w", err)
	}
	return nil
}

func setInsert(workoutExerciseID uuid.UUID, sets []models.SetRecord) (string, []any) {
	query := `INSERT INTO workout_sets (workout_exercise_id, reps, weight, set_order) VALUES `
	args := make([]any, 0, len(sets)*4)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 4
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, workoutExerciseID, s.Reps, s.Weight, s.Order)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT (workout_exercise_id, set_order) DO UPDATE SET reps = EXCLUDED.reps, weight = EXCLUDED.weight"
	return query, args
}

// QueryPreviousSets returns the sets of the user's most recent performance
// of an exercise, ordered by set order. Rows are matched through the
// owning workout first, then through the legacy per-row user column. A
// matched row with no set rows falls back to its embedded legacy payload.
func (db *DB) QueryPreviousSets(ctx context.Context, userID int, exerciseID string) ([]models.PreviousSet, error) {
	weID, legacy, err := db.latestWorkoutExercise(ctx,
		`SELECT we.id, we.legacy_sets
		 FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.user_id = $1 AND we.exercise_id = $2
		 ORDER BY w.date DESC, we.created_at DESC
		 LIMIT 1`,
		userID, exerciseID)
	if errors.Is(err, pgx.ErrNoRows) {
		weID, legacy, err = db.latestWorkoutExercise(ctx,
			`SELECT id, legacy_sets
			 FROM workout_exercises
			 WHERE user_id = $1 AND exercise_id = $2
			 ORDER BY created_at DESC
			 LIMIT 1`,
			userID, exerciseID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying previous workout exercise: %w", err)
	}

	rows, err := db.conn().Query(ctx,
		`SELECT weight, reps, set_order
		 FROM workout_sets
		 WHERE workout_exercise_id = $1
		 ORDER BY set_order ASC`,
		weID)
	if err != nil {
		return nil, fmt.Errorf("querying previous sets: %w", err)
	}
	defer rows.Close()

	var result []models.PreviousSet
	for rows.Next() {
		var s models.PreviousSet
		if err := rows.Scan(&s.Weight, &s.Reps, &s.Order); err != nil {
			return nil, fmt.Errorf("scanning previous set: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		return result, nil
	}
	return decodeLegacySets(legacy)
}

func (db *DB) latestWorkoutExercise(ctx context.Context, query string, args ...any) (uuid.UUID, []byte, error) {
	var id uuid.UUID
	var legacy []byte
	err := db.conn().QueryRow(ctx, query, args...).Scan(&id, &legacy)
	return id, legacy, err
}

// decodeLegacySets reads the JSON payload older rows carry in place of set
// rows. Field synonyms are resolved by models.NormalizeLegacySets.
func decodeLegacySets(raw []byte) ([]models.PreviousSet, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding legacy sets: %w", err)
	}
	switch v := payload.(type) {
	case map[string]any:
		return models.NormalizeLegacySets(v), nil
	case []any:
		// bare set list
		return models.NormalizeLegacySets(map[string]any{models.LegacySets: v}), nil
	}
	return nil, nil
}
