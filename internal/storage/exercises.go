package storage

import (
	"context"
	"fmt"

	"github.com/claude/liveset/internal/models"
	"github.com/jackc/pgx/v5"
)

const exerciseColumns = `id, name, instructions, video_url, type, difficulty, category_id,
	is_variation, equipment, muscle, created_at`

// GetExercise returns one catalog exercise.
func (db *DB) GetExercise(ctx context.Context, id string) (*models.CatalogExercise, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
	e, err := scanExercise(row)
	if err != nil {
		return nil, fmt.Errorf("querying exercise %s: %w", id, notFound(err))
	}
	return e, nil
}

// ListExercises returns the whole catalog ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.CatalogExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.CatalogExercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func scanExercise(row pgx.Row) (*models.CatalogExercise, error) {
	var e models.CatalogExercise
	err := row.Scan(&e.ID, &e.Name, &e.Instructions, &e.VideoURL, &e.Type, &e.Difficulty,
		&e.CategoryID, &e.IsVariation, &e.Equipment, &e.Muscle, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
