package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/liveset/internal/models"
	"github.com/google/uuid"
)

// DefaultSetCount is the number of sets a newly added exercise starts with.
const DefaultSetCount = 3

// Field names a mutable set field.
type Field string

const (
	FieldWeight    Field = "weight"
	FieldReps      Field = "reps"
	FieldCompleted Field = "completed"
)

// ParseField validates a field name from a client.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldWeight, FieldReps, FieldCompleted:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// ExerciseSpec describes a catalog exercise being added to a session.
type ExerciseSpec struct {
	ID        string
	Name      string
	Type      string
	Muscles   []string
	Equipment []string
}

// Mutator holds the pure transformations over a session's exercises.
// Every method returns a new collection and never touches its input.
type Mutator struct {
	NewID       func() string
	DefaultSets int
}

// NewMutator returns a Mutator generating UUID set ids.
func NewMutator(defaultSets int) Mutator {
	if defaultSets < 1 {
		defaultSets = DefaultSetCount
	}
	return Mutator{NewID: uuid.NewString, DefaultSets: defaultSets}
}

// AddSet appends a set to the exercise. The weight carries over from the
// previous set, reps start empty.
func (m Mutator) AddSet(exs []models.Exercise, exerciseID string) ([]models.Exercise, error) {
	out := models.CloneExercises(exs)
	i := indexOf(out, exerciseID)
	if i < 0 {
		return exs, ErrExerciseNotFound
	}
	ex := &out[i]
	next := models.Set{ID: m.newID(), Weight: "0"}
	if n := len(ex.Sets); n > 0 {
		last := ex.Sets[n-1]
		next.Weight = last.Weight
		next.PreviousWeight = last.PreviousWeight
		next.PreviousReps = last.PreviousReps
	}
	ex.Sets = append(ex.Sets, next)
	return out, nil
}

// RemoveSet drops the last set. An exercise never goes below one set;
// removing from a single-set exercise returns the collection unchanged.
func (m Mutator) RemoveSet(exs []models.Exercise, exerciseID string) ([]models.Exercise, error) {
	out := models.CloneExercises(exs)
	i := indexOf(out, exerciseID)
	if i < 0 {
		return exs, ErrExerciseNotFound
	}
	if len(out[i].Sets) <= 1 {
		return out, nil
	}
	out[i].Sets = out[i].Sets[:len(out[i].Sets)-1]
	return out, nil
}

// UpdateSet writes one field of one set.
//
// Weight cascades forward: every later set in the same exercise takes the
// new value. Reps and completion never cascade. Completing a set requires
// non-zero weight and reps; a false to true transition returns a
// SetCompleted event.
func (m Mutator) UpdateSet(exs []models.Exercise, exerciseID string, setIndex int, field Field, value string) ([]models.Exercise, *SetCompleted, error) {
	out := models.CloneExercises(exs)
	i := indexOf(out, exerciseID)
	if i < 0 {
		return exs, nil, ErrExerciseNotFound
	}
	sets := out[i].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return exs, nil, fmt.Errorf("set %d of %d: %w", setIndex, len(sets), ErrIndexOutOfRange)
	}

	switch field {
	case FieldWeight:
		for j := setIndex; j < len(sets); j++ {
			sets[j].Weight = value
		}
	case FieldReps:
		sets[setIndex].Reps = value
	case FieldCompleted:
		done, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return exs, nil, fmt.Errorf("completed value %q: %w", value, ErrInvalidValue)
		}
		set := &sets[setIndex]
		if !done {
			set.Completed = false
			return out, nil, nil
		}
		if set.Completed {
			return out, nil, nil
		}
		if !set.Ready() {
			return exs, nil, ErrSetIncomplete
		}
		set.Completed = true
		return out, &SetCompleted{ExerciseID: exerciseID, SetIndex: setIndex, SetID: set.ID}, nil
	default:
		return exs, nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return out, nil, nil
}

// AddExercise appends a catalog exercise seeded with the default sets.
func (m Mutator) AddExercise(exs []models.Exercise, spec ExerciseSpec) ([]models.Exercise, error) {
	if indexOf(exs, spec.ID) >= 0 {
		return exs, ErrDuplicateExercise
	}
	n := m.DefaultSets
	if n < 1 {
		n = DefaultSetCount
	}
	ex := models.Exercise{
		ID:        spec.ID,
		Name:      spec.Name,
		Type:      spec.Type,
		Muscles:   append([]string(nil), spec.Muscles...),
		Equipment: append([]string(nil), spec.Equipment...),
		Sets:      make([]models.Set, n),
	}
	for j := range ex.Sets {
		ex.Sets[j] = models.Set{ID: m.newID(), Weight: "0"}
	}
	return append(models.CloneExercises(exs), ex), nil
}

// RemoveExercise drops the exercise and all of its sets.
func (m Mutator) RemoveExercise(exs []models.Exercise, exerciseID string) ([]models.Exercise, error) {
	i := indexOf(exs, exerciseID)
	if i < 0 {
		return exs, ErrExerciseNotFound
	}
	out := models.CloneExercises(exs)
	return append(out[:i], out[i+1:]...), nil
}

// ReorderExercises moves the exercise at from to position to. Indices
// come from the drag-and-drop layer and are only bounds-checked here.
func (m Mutator) ReorderExercises(exs []models.Exercise, from, to int) ([]models.Exercise, error) {
	n := len(exs)
	if from < 0 || from >= n || to < 0 || to >= n {
		return exs, fmt.Errorf("move %d to %d of %d: %w", from, to, n, ErrIndexOutOfRange)
	}
	out := models.CloneExercises(exs)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]models.Exercise{moved}, out[to:]...)...)
	return out, nil
}

func (m Mutator) newID() string {
	if m.NewID == nil {
		return uuid.NewString()
	}
	return m.NewID()
}

func indexOf(exs []models.Exercise, id string) int {
	for i, e := range exs {
		if e.ID == id {
			return i
		}
	}
	return -1
}
