package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkoutRecord is the parent row written first by the finish transaction.
type WorkoutRecord struct {
	UserID        int
	ClientKey     string // session id; lets a retried save find the same workout
	Name          string
	Date          time.Time
	DurationLabel string
	Notes         string
}

// WorkoutExerciseRecord links a catalog exercise to a saved workout.
type WorkoutExerciseRecord struct {
	WorkoutID  uuid.UUID
	ExerciseID string
	SetCount   int
	OrderIndex int
}

// SetRecord is one completed set as written to the backend.
// Order is zero-based within its exercise.
type SetRecord struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
	Order  int     `json:"order"`
}

// PreviousSet is a set from the user's most recent performance of an exercise.
type PreviousSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Order  int     `json:"order"`
}

// Template is a predefined workout used to seed a session.
type Template struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
}

// TemplateExercise is one catalog exercise in a template.
type TemplateExercise struct {
	ExerciseID string   `json:"exercise_id"`
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Muscles    []string `json:"muscles,omitempty"`
	Equipment  []string `json:"equipment,omitempty"`
	SetCount   int      `json:"set_count"`
}

// CatalogExercise is a row of the exercise catalog.
type CatalogExercise struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Type         string    `json:"type,omitempty"`
	Difficulty   *string   `json:"difficulty,omitempty"`
	CategoryID   *string   `json:"category_id,omitempty"`
	IsVariation  bool      `json:"is_variation"`
	Equipment    []string  `json:"equipment,omitempty"`
	Muscle       *string   `json:"muscle,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DurationLabel formats an elapsed duration as whole minutes.
func DurationLabel(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d min", seconds/60)
}

// FormatWeight renders a stored weight for display ("102.5", "80").
func FormatWeight(w float64) string {
	return fmt.Sprintf("%g", w)
}
