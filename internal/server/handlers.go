package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/persister"
	"github.com/claude/liveset/internal/session"
	"github.com/go-chi/chi/v5"
)

type startRequest struct {
	Name       string `json:"name"`
	TemplateID string `json:"template_id"`
}

type addExerciseRequest struct {
	ExerciseID string   `json:"exercise_id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Muscles    []string `json:"muscles"`
	Equipment  []string `json:"equipment"`
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type updateSetRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type restRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.State(userIDFromContext(r))
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.svc.Start(r.Context(), userIDFromContext(r), req.Name, req.TemplateID)
	s.respond(w, http.StatusCreated, st, err)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	var req session.WorkoutUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.svc.Update(r.Context(), userIDFromContext(r), req)
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req addExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.svc.AddExercise(r.Context(), userIDFromContext(r), session.ExerciseSpec{
		ID:        req.ExerciseID,
		Name:      req.Name,
		Type:      req.Type,
		Muscles:   req.Muscles,
		Equipment: req.Equipment,
	})
	s.respond(w, http.StatusCreated, st, err)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.RemoveExercise(r.Context(), userIDFromContext(r), chi.URLParam(r, "exerciseID"))
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.svc.ReorderExercises(r.Context(), userIDFromContext(r), req.From, req.To)
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.AddSet(r.Context(), userIDFromContext(r), chi.URLParam(r, "exerciseID"))
	s.respond(w, http.StatusCreated, st, err)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.RemoveSet(r.Context(), userIDFromContext(r), chi.URLParam(r, "exerciseID"))
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set index"})
		return
	}
	var req updateSetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.svc.UpdateSet(r.Context(), userIDFromContext(r), chi.URLParam(r, "exerciseID"), index, req.Field, req.Value)
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleStartRest(w http.ResponseWriter, r *http.Request) {
	var req restRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.svc.StartRest(r.Context(), userIDFromContext(r), req.Seconds)
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleResetRest(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.ResetRest(r.Context(), userIDFromContext(r))
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Finish(r.Context(), userIDFromContext(r))
	if err != nil {
		status := errorStatus(err)
		body := map[string]any{"error": err.Error()}
		var se *persister.SaveError
		if errors.As(err, &se) {
			body["step"] = se.Step
			body["saved"] = result
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Discard(r.Context(), userIDFromContext(r))
	s.respond(w, http.StatusOK, st, err)
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Background(r.Context()); err != nil {
		s.log.Error("background snapshot failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleForeground(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Foreground(userIDFromContext(r))
	s.respond(w, http.StatusOK, st, err)
}

// respond writes the new state, or maps err to a status.
func (s *Server) respond(w http.ResponseWriter, status int, st session.State, err error) {
	if err != nil {
		code := errorStatus(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("session request failed", "error", err)
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, status, st)
}

func errorStatus(err error) int {
	var se *persister.SaveError
	switch {
	case errors.As(err, &se):
		return http.StatusBadGateway
	case engine.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrFinishInProgress),
		errors.Is(err, session.ErrDuplicateExercise):
		return http.StatusConflict
	case errors.Is(err, session.ErrNothingToSave),
		errors.Is(err, session.ErrSetIncomplete),
		errors.Is(err, session.ErrUnknownField),
		errors.Is(err, session.ErrInvalidValue),
		errors.Is(err, session.ErrIndexOutOfRange),
		errors.Is(err, engine.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody decodes an optional JSON body. An empty body leaves v zero.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
