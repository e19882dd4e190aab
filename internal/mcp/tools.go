package mcp

import (
	"context"

	"github.com/claude/liveset/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get the workout in progress: lifecycle (idle or active), exercises with their sets, elapsed seconds and the rest timer."),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a new workout. With template_id the exercises are seeded from the template and pre-filled with the weights from the last time each exercise was done. Fails if a workout is already in progress."),
	mcp.WithString("name", mcp.Description("Workout name. Defaults to the template name, or 'Workout'.")),
	mcp.WithString("template_id", mcp.Description("Template to start from")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Add an exercise to the workout in progress. When only exercise_id is given, the name and metadata come from the exercise catalog."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Catalog exercise ID (e.g. 'bench')")),
	mcp.WithString("name", mcp.Description("Display name for an exercise not in the catalog")),
	mcp.WithString("type", mcp.Description("Exercise type (e.g. 'strength')")),
	mcp.WithArray("muscles", mcp.Description("Muscles worked"), mcp.WithStringItems()),
	mcp.WithArray("equipment", mcp.Description("Equipment used"), mcp.WithStringItems()),
)

var toolRemoveExercise = mcp.NewTool("remove_exercise",
	mcp.WithDescription("Remove an exercise and all its sets from the workout in progress."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolAddSet = mcp.NewTool("add_set",
	mcp.WithDescription("Append an empty set to an exercise. The weight is carried over from the exercise's last set."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolUpdateSet = mcp.NewTool("update_set",
	mcp.WithDescription("Set the weight or reps of a set, or mark it completed. A set can only be completed once it has a non-zero weight and reps; completing a set starts the rest timer."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithNumber("set_index", mcp.Required(), mcp.Description("Zero-based position of the set within the exercise")),
	mcp.WithString("field", mcp.Required(), mcp.Description("Field to change"), mcp.Enum("weight", "reps", "completed")),
	mcp.WithString("value", mcp.Required(), mcp.Description("New value. Weight accepts a comma or dot decimal; completed accepts true or false.")),
)

var toolStartRest = mcp.NewTool("start_rest",
	mcp.WithDescription("Start (or restart) the rest countdown."),
	mcp.WithNumber("seconds", mcp.Description("Rest length in seconds. Defaults to the workout's rest setting.")),
)

var toolFinishWorkout = mcp.NewTool("finish_workout",
	mcp.WithDescription("Save the workout in progress and end it. Only completed sets are saved, and exercises without completed sets are skipped. If saving fails the workout stays in progress and can be finished again."),
)

var toolDiscardWorkout = mcp.NewTool("discard_workout",
	mcp.WithDescription("End the workout in progress without saving anything."),
)

var toolGetRecentWorkouts = mcp.NewTool("get_recent_workouts",
	mcp.WithDescription("List saved workouts, newest first, with exercise and set counts."),
	mcp.WithNumber("limit", mcp.Description("Maximum workouts to return. Defaults to 10.")),
)

// --- Tool handlers ---

func (h *handlers) getSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.eng.Session(ctx)
	return h.result("get_session", st, err)
}

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.eng.StartWorkout(ctx, req.GetString("name", ""), req.GetString("template_id", ""))
	return h.result("start_workout", st, err)
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}

	st, err := h.eng.AddExercise(ctx, session.ExerciseSpec{
		ID:        id,
		Name:      req.GetString("name", ""),
		Type:      req.GetString("type", ""),
		Muscles:   req.GetStringSlice("muscles", nil),
		Equipment: req.GetStringSlice("equipment", nil),
	})
	return h.result("add_exercise", st, err)
}

func (h *handlers) removeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	st, err := h.eng.RemoveExercise(ctx, id)
	return h.result("remove_exercise", st, err)
}

func (h *handlers) addSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	st, err := h.eng.AddSet(ctx, id)
	return h.result("add_set", st, err)
}

func (h *handlers) updateSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	index, err := req.RequireInt("set_index")
	if err != nil {
		return mcp.NewToolResultError("set_index parameter is required"), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError("field parameter is required"), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value parameter is required"), nil
	}

	st, err := h.eng.UpdateSet(ctx, id, index, field, value)
	return h.result("update_set", st, err)
}

func (h *handlers) startRest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.eng.StartRest(ctx, req.GetInt("seconds", 0))
	return h.result("start_rest", st, err)
}

func (h *handlers) finishWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.eng.Finish(ctx)
	return h.result("finish_workout", res, err)
}

func (h *handlers) discardWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.eng.Discard(ctx)
	return h.result("discard_workout", st, err)
}

func (h *handlers) getRecentWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.eng.RecentWorkouts(ctx, req.GetInt("limit", recentWorkoutsLimit))
	return h.result("get_recent_workouts", workouts, err)
}

// result turns an engine call into a tool result. Engine errors are
// reported to the model rather than failing the call.
func (h *handlers) result(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.log.Warn("mcp "+tool, "error", err)
		return mcp.NewToolResultError(tool + " failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
