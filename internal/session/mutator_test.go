package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/claude/liveset/internal/models"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("set-%d", n)
	}
}

func testMutator() Mutator {
	return Mutator{NewID: seqIDs(), DefaultSets: 3}
}

func benchWithSets(weights ...string) []models.Exercise {
	ex := models.Exercise{ID: "bench", Name: "Bench Press"}
	for i, w := range weights {
		ex.Sets = append(ex.Sets, models.Set{ID: fmt.Sprintf("s%d", i), Weight: w})
	}
	return []models.Exercise{ex}
}

// TestUpdateSetWeightCascadesForward verifies editing a weight carries the
// value to every later set and leaves earlier sets alone.
func TestUpdateSetWeightCascadesForward(t *testing.T) {
	m := testMutator()
	in := benchWithSets("40", "40", "40")

	out, ev, err := m.UpdateSet(in, "bench", 1, FieldWeight, "50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Errorf("weight edit emitted %+v, want no event", ev)
	}
	sets := out[0].Sets
	if sets[0].Weight != "40" {
		t.Errorf("S0.weight = %q, want 40", sets[0].Weight)
	}
	if sets[1].Weight != "50" || sets[2].Weight != "50" {
		t.Errorf("S1,S2 weight = %q,%q, want 50,50", sets[1].Weight, sets[2].Weight)
	}
	if in[0].Sets[2].Weight != "40" {
		t.Errorf("input mutated: S2.weight = %q", in[0].Sets[2].Weight)
	}
}

// TestUpdateSetRepsDoesNotCascade verifies reps only touch the target set.
func TestUpdateSetRepsDoesNotCascade(t *testing.T) {
	m := testMutator()
	out, _, err := m.UpdateSet(benchWithSets("40", "40", "40"), "bench", 0, FieldReps, "8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Sets[0].Reps != "8" {
		t.Errorf("S0.reps = %q, want 8", out[0].Sets[0].Reps)
	}
	if out[0].Sets[1].Reps != "" || out[0].Sets[2].Reps != "" {
		t.Errorf("later reps changed: %q, %q", out[0].Sets[1].Reps, out[0].Sets[2].Reps)
	}
}

// TestUpdateSetCompletionGating verifies a set without weight or reps
// cannot be completed and a ready set emits exactly one event.
func TestUpdateSetCompletionGating(t *testing.T) {
	tests := []struct {
		name    string
		weight  string
		reps    string
		wantErr error
	}{
		{"empty reps", "50", "", ErrSetIncomplete},
		{"zero weight", "0", "8", ErrSetIncomplete},
		{"empty weight", "", "8", ErrSetIncomplete},
		{"zero reps", "50", "0", ErrSetIncomplete},
		{"NaN weight", "NaN", "8", ErrSetIncomplete},
		{"infinite weight", "Inf", "8", ErrSetIncomplete},
		{"reps round to zero", "50", "0.3", ErrSetIncomplete},
		{"ready", "50", "8", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMutator()
			in := []models.Exercise{{ID: "bench", Sets: []models.Set{{ID: "a", Weight: tt.weight, Reps: tt.reps}}}}

			out, ev, err := m.UpdateSet(in, "bench", 0, FieldCompleted, "true")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if ev != nil {
					t.Errorf("rejected completion emitted %+v", ev)
				}
				if out[0].Sets[0].Completed {
					t.Error("rejected completion marked the set completed")
				}
				return
			}
			if ev == nil || ev.ExerciseID != "bench" || ev.SetIndex != 0 || ev.SetID != "a" {
				t.Errorf("event = %+v, want bench/0/a", ev)
			}
			if !out[0].Sets[0].Completed {
				t.Error("set not completed")
			}

			// Completing again is not a transition.
			_, ev, err = m.UpdateSet(out, "bench", 0, FieldCompleted, "true")
			if err != nil || ev != nil {
				t.Errorf("second completion = (%+v, %v), want (nil, nil)", ev, err)
			}
		})
	}
}

// TestUpdateSetUncomplete verifies un-completing is allowed and silent.
func TestUpdateSetUncomplete(t *testing.T) {
	m := testMutator()
	in := []models.Exercise{{ID: "bench", Sets: []models.Set{{ID: "a", Weight: "50", Reps: "8", Completed: true}}}}
	out, ev, err := m.UpdateSet(in, "bench", 0, FieldCompleted, "false")
	if err != nil || ev != nil {
		t.Fatalf("got (%+v, %v), want (nil, nil)", ev, err)
	}
	if out[0].Sets[0].Completed {
		t.Error("set still completed")
	}
}

// TestUpdateSetErrors verifies lookups and field validation.
func TestUpdateSetErrors(t *testing.T) {
	m := testMutator()
	in := benchWithSets("40")
	if _, _, err := m.UpdateSet(in, "squat", 0, FieldReps, "5"); !errors.Is(err, ErrExerciseNotFound) {
		t.Errorf("unknown exercise err = %v", err)
	}
	if _, _, err := m.UpdateSet(in, "bench", 3, FieldReps, "5"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("bad index err = %v", err)
	}
	if _, _, err := m.UpdateSet(in, "bench", 0, Field("rir"), "2"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("bad field err = %v", err)
	}
	if _, _, err := m.UpdateSet(in, "bench", 0, FieldCompleted, "maybe"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unparseable completed err = %v", err)
	}
}

// TestAddSetCarriesPreviousWeight verifies a new set copies the last
// set's weight and previous-performance values but not reps or completion.
func TestAddSetCarriesPreviousWeight(t *testing.T) {
	m := testMutator()
	in := []models.Exercise{{ID: "bench", Sets: []models.Set{
		{ID: "a", Weight: "60", Reps: "8", Completed: true, PreviousWeight: "57.5", PreviousReps: "8"},
	}}}
	out, err := m.AddSet(in, "bench")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out[0].Sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(out[0].Sets))
	}
	got := out[0].Sets[1]
	want := models.Set{ID: "set-1", Weight: "60", PreviousWeight: "57.5", PreviousReps: "8"}
	if got != want {
		t.Errorf("new set = %+v, want %+v", got, want)
	}
	if len(in[0].Sets) != 1 {
		t.Error("input mutated")
	}
}

// TestRemoveSetKeepsOne verifies the one-set minimum is an idempotent no-op.
func TestRemoveSetKeepsOne(t *testing.T) {
	m := testMutator()
	out, err := m.RemoveSet(benchWithSets("40", "45"), "bench")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out[0].Sets) != 1 || out[0].Sets[0].ID != "s0" {
		t.Fatalf("after first remove: %+v", out[0].Sets)
	}
	for i := 0; i < 2; i++ {
		out, err = m.RemoveSet(out, "bench")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out[0].Sets) != 1 {
			t.Errorf("sets = %d, want 1", len(out[0].Sets))
		}
	}
}

// TestAddExerciseDefaults verifies new exercises start with the default
// number of zero-weight sets and reject duplicates.
func TestAddExerciseDefaults(t *testing.T) {
	m := testMutator()
	out, err := m.AddExercise(nil, ExerciseSpec{ID: "squat", Name: "Back Squat", Muscles: []string{"quads"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || len(out[0].Sets) != 3 {
		t.Fatalf("got %+v", out)
	}
	for i, s := range out[0].Sets {
		if s.Weight != "0" || s.Reps != "" || s.Completed || s.ID == "" {
			t.Errorf("set %d = %+v", i, s)
		}
	}
	if _, err := m.AddExercise(out, ExerciseSpec{ID: "squat"}); !errors.Is(err, ErrDuplicateExercise) {
		t.Errorf("duplicate err = %v, want ErrDuplicateExercise", err)
	}
}

// TestRemoveExercise verifies removal down to an empty collection.
func TestRemoveExercise(t *testing.T) {
	m := testMutator()
	out, err := m.RemoveExercise(benchWithSets("40"), "bench")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("exercises = %d, want 0", len(out))
	}
	if _, err := m.RemoveExercise(out, "bench"); !errors.Is(err, ErrExerciseNotFound) {
		t.Errorf("err = %v, want ErrExerciseNotFound", err)
	}
}

// TestReorderExercises verifies array moves in both directions.
func TestReorderExercises(t *testing.T) {
	exs := []models.Exercise{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	tests := []struct {
		from, to int
		want     string
	}{
		{0, 2, "bcad"},
		{3, 0, "dabc"},
		{1, 1, "abcd"},
		{2, 3, "abdc"},
	}
	m := testMutator()
	for _, tt := range tests {
		out, err := m.ReorderExercises(exs, tt.from, tt.to)
		if err != nil {
			t.Fatalf("move %d->%d: %v", tt.from, tt.to, err)
		}
		got := ""
		for _, e := range out {
			got += e.ID
		}
		if got != tt.want {
			t.Errorf("move %d->%d = %s, want %s", tt.from, tt.to, got, tt.want)
		}
	}
	if _, err := m.ReorderExercises(exs, 0, 4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("out of range err = %v", err)
	}
}

// TestParseField verifies client field names are validated.
func TestParseField(t *testing.T) {
	if f, err := ParseField(" Weight "); err != nil || f != FieldWeight {
		t.Errorf("ParseField(Weight) = %q, %v", f, err)
	}
	if _, err := ParseField("notes"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ParseField(notes) err = %v", err)
	}
}
