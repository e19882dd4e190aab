package persister

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/liveset/internal/models"
	"github.com/google/uuid"
)

// TemplateSession is a template expanded into session exercises, ready
// to hand to the store.
type TemplateSession struct {
	TemplateID string            `json:"template_id"`
	Name       string            `json:"name"`
	Exercises  []models.Exercise `json:"exercises"`
}

// PreviousSets returns the user's most recent completed sets for an
// exercise. Lookup failures degrade to no history and are only logged.
func (p *Persister) PreviousSets(ctx context.Context, userID int, exerciseID string) []models.PreviousSet {
	sets, err := p.svc.QueryPreviousSets(ctx, userID, exerciseID)
	if err != nil {
		p.log.Warn("previous performance lookup failed", "exercise", exerciseID, "error", err)
		return nil
	}
	return sets
}

// LoadTemplate expands a template and joins previous performance into
// each set by position. Weights are pre-filled from the previous set;
// reps start blank.
func (p *Persister) LoadTemplate(ctx context.Context, userID int, templateID string) (*TemplateSession, error) {
	tmpl, err := p.svc.GetTemplate(ctx, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", templateID, err)
	}

	out := &TemplateSession{TemplateID: tmpl.ID, Name: tmpl.Name, Exercises: make([]models.Exercise, 0, len(tmpl.Exercises))}
	for _, te := range tmpl.Exercises {
		prev := p.PreviousSets(ctx, userID, te.ExerciseID)
		count := te.SetCount
		if count < 1 {
			count = p.defaultSets
		}

		ex := models.Exercise{
			ID:        te.ExerciseID,
			Name:      te.Name,
			Type:      te.Type,
			Muscles:   append([]string(nil), te.Muscles...),
			Equipment: append([]string(nil), te.Equipment...),
			Sets:      make([]models.Set, count),
		}
		for i := range ex.Sets {
			set := models.Set{ID: uuid.NewString(), Weight: "0"}
			if i < len(prev) {
				set.Weight = models.FormatWeight(prev[i].Weight)
				set.PreviousWeight = models.FormatWeight(prev[i].Weight)
				set.PreviousReps = strconv.Itoa(prev[i].Reps)
			}
			ex.Sets[i] = set
		}
		out.Exercises = append(out.Exercises, ex)
	}
	return out, nil
}

// StartFromTemplate loads a template with previous performance and
// starts it on the store for userID. A blank name uses the template's.
func (p *Persister) StartFromTemplate(ctx context.Context, store SessionStore, userID int, templateID, name string) error {
	ts, err := p.LoadTemplate(ctx, userID, templateID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = ts.Name
	}
	id := ts.TemplateID
	return store.StartWorkout(ctx, userID, name, &id, ts.Exercises)
}
