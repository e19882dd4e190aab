package persister

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/liveset/internal/clock"
	"github.com/claude/liveset/internal/models"
)

func benchTemplate() *models.Template {
	return &models.Template{
		ID:   "tmpl-push",
		Name: "Push Day",
		Exercises: []models.TemplateExercise{
			{ExerciseID: "bench", Name: "Bench Press", Type: "strength", Muscles: []string{"chest"}, SetCount: 3},
			{ExerciseID: "dips", Name: "Dips", SetCount: 0},
		},
	}
}

// TestLoadTemplateJoinsPreviousSets verifies previous performance is
// joined by position and pre-fills weight only.
func TestLoadTemplateJoinsPreviousSets(t *testing.T) {
	svc := newRecordingService()
	svc.templates = map[string]*models.Template{"tmpl-push": benchTemplate()}
	svc.previous = map[string][]models.PreviousSet{
		"bench": {{Weight: 80, Reps: 8, Order: 0}, {Weight: 82.5, Reps: 6, Order: 1}},
	}
	p := New(svc, 4, quietLog())

	ts, err := p.LoadTemplate(context.Background(), 1, "tmpl-push")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if ts.Name != "Push Day" || len(ts.Exercises) != 2 {
		t.Fatalf("template = %q with %d exercises", ts.Name, len(ts.Exercises))
	}

	bench := ts.Exercises[0]
	if len(bench.Sets) != 3 {
		t.Fatalf("bench sets = %d, want 3", len(bench.Sets))
	}
	tests := []struct {
		weight, reps, prevWeight, prevReps string
	}{
		{"80", "", "80", "8"},
		{"82.5", "", "82.5", "6"},
		{"0", "", "", ""},
	}
	for i, tt := range tests {
		s := bench.Sets[i]
		if s.Weight != tt.weight || s.Reps != tt.reps || s.PreviousWeight != tt.prevWeight || s.PreviousReps != tt.prevReps {
			t.Errorf("set %d = %+v, want weight %q prev %q/%q", i, s, tt.weight, tt.prevWeight, tt.prevReps)
		}
		if s.ID == "" || s.Completed {
			t.Errorf("set %d id=%q completed=%v", i, s.ID, s.Completed)
		}
	}

	if got := len(ts.Exercises[1].Sets); got != 4 {
		t.Errorf("dips sets = %d, want default 4", got)
	}
}

// TestLoadTemplateDegradesWithoutHistory verifies a failing history
// lookup still produces a usable template.
func TestLoadTemplateDegradesWithoutHistory(t *testing.T) {
	svc := newRecordingService()
	svc.templates = map[string]*models.Template{"tmpl-push": benchTemplate()}
	svc.previousErr = errors.New("relation does not exist")
	p := New(svc, 3, quietLog())

	ts, err := p.LoadTemplate(context.Background(), 1, "tmpl-push")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	for _, s := range ts.Exercises[0].Sets {
		if s.PreviousWeight != "" || s.PreviousReps != "" || s.Weight != "0" {
			t.Errorf("set = %+v, want blank history", s)
		}
	}
	if got := p.PreviousSets(context.Background(), 1, "bench"); got != nil {
		t.Errorf("PreviousSets = %v, want nil", got)
	}
}

func TestLoadTemplateMissing(t *testing.T) {
	p := New(newRecordingService(), 3, quietLog())
	if _, err := p.LoadTemplate(context.Background(), 1, "nope"); err == nil {
		t.Error("expected error for unknown template")
	}
}

// TestStartFromTemplate verifies the store receives the template name,
// id and seeded exercises.
func TestStartFromTemplate(t *testing.T) {
	svc := newRecordingService()
	svc.templates = map[string]*models.Template{"tmpl-push": benchTemplate()}
	svc.previous = map[string][]models.PreviousSet{"bench": {{Weight: 60, Reps: 10}}}
	p := New(svc, 3, quietLog())

	s := newStore(t, clock.NewFake(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)))
	if err := p.StartFromTemplate(context.Background(), s, 4, "tmpl-push", ""); err != nil {
		t.Fatalf("StartFromTemplate: %v", err)
	}

	st := s.State()
	if st.Lifecycle != models.LifecycleActive {
		t.Fatalf("lifecycle = %s, want active", st.Lifecycle)
	}
	if st.Session.WorkoutName != "Push Day" {
		t.Errorf("name = %q, want Push Day", st.Session.WorkoutName)
	}
	if st.Session.TemplateID == nil || *st.Session.TemplateID != "tmpl-push" {
		t.Errorf("template id = %v, want tmpl-push", st.Session.TemplateID)
	}
	if got := st.Session.Exercises[0].Sets[0].PreviousReps; got != "10" {
		t.Errorf("previous reps = %q, want 10", got)
	}
	if st.Session.UserID != 4 {
		t.Errorf("owner = %d, want 4", st.Session.UserID)
	}
}

func TestStartFromTemplateNamed(t *testing.T) {
	svc := newRecordingService()
	svc.templates = map[string]*models.Template{"tmpl-push": benchTemplate()}
	p := New(svc, 3, quietLog())

	s := newStore(t, clock.NewFake(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)))
	if err := p.StartFromTemplate(context.Background(), s, 1, "tmpl-push", "Deload Push"); err != nil {
		t.Fatalf("StartFromTemplate: %v", err)
	}
	st := s.State()
	if st.Session.WorkoutName != "Deload Push" {
		t.Errorf("name = %q, want Deload Push", st.Session.WorkoutName)
	}
	if len(st.Session.Exercises) == 0 || st.Session.Exercises[0].ID != "bench" {
		t.Errorf("exercises = %+v, want template exercises", st.Session.Exercises)
	}
}
