// Package export writes the exercise catalog in the column layout of the
// catalog CSV export.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liveset/internal/models"
)

// Columns is the CSV header, in order.
var Columns = []string{
	"id", "name", "instructions", "video_url", "created_at",
	"type", "difficulty", "category_id", "is_variation",
	"equipment", "muscle",
}

// WriteCatalogCSV writes a header row and one row per exercise. Equipment
// is written as a Postgres array literal, e.g. {barbell,rack}.
func WriteCatalogCSV(w io.Writer, exercises []models.CatalogExercise) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, ex := range exercises {
		if err := cw.Write(row(ex)); err != nil {
			return fmt.Errorf("writing exercise %s: %w", ex.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func row(ex models.CatalogExercise) []string {
	created := ""
	if !ex.CreatedAt.IsZero() {
		created = ex.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		ex.ID,
		ex.Name,
		ex.Instructions,
		ex.VideoURL,
		created,
		ex.Type,
		deref(ex.Difficulty),
		deref(ex.CategoryID),
		strconv.FormatBool(ex.IsVariation),
		"{" + strings.Join(ex.Equipment, ",") + "}",
		deref(ex.Muscle),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
