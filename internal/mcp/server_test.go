package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/liveset/internal/engine/enginetest"
	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

func newHandlers(t *testing.T) (*handlers, *enginetest.Env) {
	t.Helper()
	env := enginetest.New(t, enginetest.NewBackend())
	return &handlers{eng: NewLocal(env.Service), log: slog.New(slog.DiscardHandler)}, env
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func resultState(t *testing.T, res *mcp.CallToolResult) session.State {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var st session.State
	if err := json.Unmarshal([]byte(resultText(t, res)), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

// TestToolsDriveWorkout runs a workout through the tool handlers and
// checks the save is attributed to the context user.
func TestToolsDriveWorkout(t *testing.T) {
	h, env := newHandlers(t)
	ctx := WithUserID(context.Background(), 9)

	res, _ := h.startWorkout(ctx, call(map[string]any{"name": "Upper"}))
	if st := resultState(t, res); st.Lifecycle != models.LifecycleActive {
		t.Fatalf("lifecycle = %s, want active", st.Lifecycle)
	}

	res, _ = h.addExercise(ctx, call(map[string]any{"exercise_id": "bench"}))
	st := resultState(t, res)
	if got := st.Session.Exercises[0].Name; got != "Bench Press" {
		t.Errorf("exercise name = %q, want catalog name", got)
	}

	for _, u := range []struct{ field, value string }{
		{"weight", "70"}, {"reps", "8"}, {"completed", "true"},
	} {
		res, _ = h.updateSet(ctx, call(map[string]any{
			"exercise_id": "bench", "set_index": float64(0), "field": u.field, "value": u.value,
		}))
		st = resultState(t, res)
	}
	if !st.Session.Exercises[0].Sets[0].Completed {
		t.Fatal("set 0 not completed")
	}
	if !st.Rest.IsRunning {
		t.Error("completing a set should start the rest timer")
	}

	res, _ = h.finishWorkout(ctx, call(nil))
	if res.IsError {
		t.Fatalf("finish: %s", resultText(t, res))
	}
	if len(env.Backend.Workouts) != 1 || env.Backend.Workouts[0].UserID != 9 {
		t.Fatalf("saved workouts = %+v, want one for user 9", env.Backend.Workouts)
	}

	res, _ = h.getRecentWorkouts(ctx, call(nil))
	if !strings.Contains(resultText(t, res), "Upper") {
		t.Errorf("recent workouts = %s, want Upper", resultText(t, res))
	}
}

// TestToolErrors verifies engine and parameter errors become tool errors,
// not protocol errors.
func TestToolErrors(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args map[string]any
		want string
	}{
		{"add set while idle", h.addSet, map[string]any{"exercise_id": "bench"}, "no workout in progress"},
		{"missing exercise id", h.addExercise, nil, "exercise_id parameter is required"},
		{"missing set index", h.updateSet, map[string]any{"exercise_id": "bench", "field": "reps", "value": "5"}, "set_index"},
		{"finish while idle", h.finishWorkout, nil, "finish_workout failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.fn(ctx, call(tt.args))
			if err != nil {
				t.Fatalf("protocol error: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("error = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

// TestCurrentSessionResource verifies the resource carries the live state.
func TestCurrentSessionResource(t *testing.T) {
	h, env := newHandlers(t)
	if _, err := env.Service.Start(context.Background(), 1, "Legs", ""); err != nil {
		t.Fatal(err)
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = resCurrentSession.URI
	contents, err := h.currentSession(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents = %T", contents[0])
	}
	if text.URI != "liveset://session" || !strings.Contains(text.Text, `"Legs"`) {
		t.Errorf("resource = %s %s", text.URI, text.Text)
	}
}

// TestToolsRefuseOtherUsersWorkout verifies a workout started by one user
// cannot be driven through another user's tool calls.
func TestToolsRefuseOtherUsersWorkout(t *testing.T) {
	h, env := newHandlers(t)
	if _, err := env.Service.Start(context.Background(), 4, "Legs", ""); err != nil {
		t.Fatal(err)
	}
	other := WithUserID(context.Background(), 5)

	res, err := h.discardWorkout(other, call(nil))
	if err != nil {
		t.Fatalf("protocol error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "another user") {
		t.Errorf("discard by other user = %s, want ownership error", resultText(t, res))
	}
	if _, err := h.currentSession(other, mcp.ReadResourceRequest{}); err == nil {
		t.Error("session resource readable by other user")
	}
	if st := env.Store.State(); st.Lifecycle != models.LifecycleActive {
		t.Errorf("lifecycle = %s, want still active", st.Lifecycle)
	}
}
