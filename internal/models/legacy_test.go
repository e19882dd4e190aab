package models

import "testing"

// TestNormalizeLegacyField verifies synonyms map to canonical names
// regardless of casing or surrounding space.
func TestNormalizeLegacyField(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"weight", LegacyWeight},
		{"Weight_KG", LegacyWeight},
		{"kg", LegacyWeight},
		{"rep_count", LegacyReps},
		{"Repetitions", LegacyReps},
		{"is_completed", LegacyCompleted},
		{" done ", LegacyCompleted},
		{"set_number", LegacyOrder},
		{"set_data", LegacySets},
	}
	for _, tc := range cases {
		got, known := NormalizeLegacyField(tc.input)
		if !known {
			t.Errorf("NormalizeLegacyField(%q): expected known=true", tc.input)
		}
		if got != tc.want {
			t.Errorf("NormalizeLegacyField(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// TestNormalizeLegacyFieldUnknown verifies unknown names come back as-is.
func TestNormalizeLegacyFieldUnknown(t *testing.T) {
	got, known := NormalizeLegacyField("notes")
	if known {
		t.Error("expected known=false for unknown field")
	}
	if got != "notes" {
		t.Errorf("expected original string returned, got %q", got)
	}
}

// TestNormalizeLegacySetsNested verifies a nested set list with mixed
// naming conventions, string quantities and an uncompleted set.
func TestNormalizeLegacySetsNested(t *testing.T) {
	raw := map[string]any{
		"set_data": []any{
			map[string]any{"weight_kg": 60.0, "rep_count": 8.0, "set_number": 1.0},
			map[string]any{"kg": "62,5", "repetitions": "6", "set_number": 2.0, "done": true},
			map[string]any{"weight": 65.0, "reps": 4.0, "set_number": 3.0, "is_completed": false},
			"garbage",
		},
	}
	got := NormalizeLegacySets(raw)
	if len(got) != 2 {
		t.Fatalf("sets = %d, want 2", len(got))
	}
	if got[0].Weight != 60 || got[0].Reps != 8 || got[0].Order != 0 {
		t.Errorf("set 0 = %+v, want {60 8 0}", got[0])
	}
	if got[1].Weight != 62.5 || got[1].Reps != 6 || got[1].Order != 1 {
		t.Errorf("set 1 = %+v, want {62.5 6 1}", got[1])
	}
}

// TestNormalizeLegacySetsFlat verifies a flat record expands to one set
// per recorded set count.
func TestNormalizeLegacySetsFlat(t *testing.T) {
	got := NormalizeLegacySets(map[string]any{"Weight": 40.0, "reps": 10.0, "num_sets": 3.0})
	if len(got) != 3 {
		t.Fatalf("sets = %d, want 3", len(got))
	}
	for i, s := range got {
		if s.Weight != 40 || s.Reps != 10 || s.Order != i {
			t.Errorf("set %d = %+v", i, s)
		}
	}
}

// TestNormalizeLegacySetsEmpty verifies records without quantities yield nothing.
func TestNormalizeLegacySetsEmpty(t *testing.T) {
	if got := NormalizeLegacySets(map[string]any{"notes": "felt strong"}); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
	if got := NormalizeLegacySets(nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}
