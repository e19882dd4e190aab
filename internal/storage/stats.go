package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingStats holds aggregate statistics about a user's saved workouts.
type TrainingStats struct {
	TotalWorkouts int64             `json:"total_workouts"`
	TotalSets     int64             `json:"total_sets"`
	TotalVolume   float64           `json:"total_volume"`
	FirstWorkout  *time.Time        `json:"first_workout"`
	LastWorkout   *time.Time        `json:"last_workout"`
	TopExercises  []ExerciseSetStat `json:"top_exercises"`
}

// ExerciseSetStat holds summary stats for a single exercise.
type ExerciseSetStat struct {
	ExerciseID string  `json:"exercise_id"`
	Name       string  `json:"name"`
	Sets       int64   `json:"sets"`
	MaxWeight  float64 `json:"max_weight"`
}

// GetTrainingStats returns aggregate statistics for a user's saved workouts.
func (db *DB) GetTrainingStats(ctx context.Context, userID int) (*TrainingStats, error) {
	stats := &TrainingStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.FirstWorkout, &stats.LastWorkout)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(ws.weight * ws.reps), 0)
		 FROM workout_sets ws
		 JOIN workout_exercises we ON we.id = ws.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.user_id = $1`, userID,
	).Scan(&stats.TotalSets, &stats.TotalVolume)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT we.exercise_id, COALESCE(e.name, we.exercise_id), COUNT(*), MAX(ws.weight)
		 FROM workout_sets ws
		 JOIN workout_exercises we ON we.id = ws.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 LEFT JOIN exercises e ON e.id = we.exercise_id
		 WHERE w.user_id = $1
		 GROUP BY we.exercise_id, e.name
		 ORDER BY COUNT(*) DESC
		 LIMIT 10`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseSetStat
		if err := rows.Scan(&s.ExerciseID, &s.Name, &s.Sets, &s.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TopExercises = append(stats.TopExercises, s)
	}
	return stats, rows.Err()
}
