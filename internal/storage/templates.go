package storage

import (
	"context"
	"fmt"

	"github.com/claude/liveset/internal/models"
)

// GetTemplate returns a template with its exercises in display order.
// Shared templates have no owner and are visible to every user.
func (db *DB) GetTemplate(ctx context.Context, userID int, templateID string) (*models.Template, error) {
	t := &models.Template{}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name FROM workout_templates
		 WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)`,
		templateID, userID).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, fmt.Errorf("querying template %s: %w", templateID, notFound(err))
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT te.exercise_id, COALESCE(e.name, te.exercise_id), COALESCE(e.type, ''),
		 e.muscle, COALESCE(e.equipment, '{}'), te.sets
		 FROM template_exercises te
		 LEFT JOIN exercises e ON e.id = te.exercise_id
		 WHERE te.template_id = $1
		 ORDER BY te.order_index ASC`,
		templateID)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var te models.TemplateExercise
		var muscle *string
		if err := rows.Scan(&te.ExerciseID, &te.Name, &te.Type, &muscle, &te.Equipment, &te.SetCount); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		if muscle != nil && *muscle != "" {
			te.Muscles = []string{*muscle}
		}
		t.Exercises = append(t.Exercises, te)
	}
	return t, rows.Err()
}
