package storage

import (
	"strings"
	"testing"

	"github.com/claude/liveset/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestSetInsertPlaceholders(t *testing.T) {
	id := uuid.MustParse("9d3c1f2e-5b7a-4c1d-8e2f-0a1b2c3d4e5f")
	sets := []models.SetRecord{
		{Reps: 8, Weight: 60, Order: 0},
		{Reps: 6, Weight: 62.5, Order: 1},
	}

	query, args := setInsert(id, sets)

	if !strings.Contains(query, "($1,$2,$3,$4),($5,$6,$7,$8)") {
		t.Errorf("query placeholders wrong: %s", query)
	}
	if !strings.HasSuffix(query, "ON CONFLICT (workout_exercise_id, set_order) DO UPDATE SET reps = EXCLUDED.reps, weight = EXCLUDED.weight") {
		t.Errorf("query missing conflict clause: %s", query)
	}
	want := []any{id, 8, 60.0, 0, id, 6, 62.5, 1}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestDecodeLegacySets(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.PreviousSet
	}{
		{"empty", "", nil},
		{"null", "null", nil},
		{
			name: "flat record",
			raw:  `{"WeightKg": 50, "rep_count": 12, "num_sets": 2}`,
			want: []models.PreviousSet{{Weight: 50, Reps: 12, Order: 0}, {Weight: 50, Reps: 12, Order: 1}},
		},
		{
			name: "nested list",
			raw:  `{"setData": [{"kg": 70, "reps": 5, "order": 1}, {"kg": 65, "reps": 8, "order": 0}]}`,
			want: []models.PreviousSet{{Weight: 65, Reps: 8, Order: 0}, {Weight: 70, Reps: 5, Order: 1}},
		},
		{
			name: "bare list",
			raw:  `[{"weight": 20, "reps": 15}]`,
			want: []models.PreviousSet{{Weight: 20, Reps: 15, Order: 0}},
		},
		{"scalar", `42`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeLegacySets([]byte(tt.raw))
			if err != nil {
				t.Fatalf("decodeLegacySets: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeLegacySetsMalformed(t *testing.T) {
	if _, err := decodeLegacySets([]byte(`{"sets": [`)); err == nil {
		t.Error("expected error for truncated payload")
	}
}
