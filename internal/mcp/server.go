package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(eng Engine, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiveSet", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiveSet drives a single live strength workout. Start a workout, add exercises and sets, record weight and reps, run rest timers, then finish to save it. Only one workout can be in progress at a time."),
	)

	h := &handlers{eng: eng, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolRemoveExercise, Handler: h.removeExercise},
		server.ServerTool{Tool: toolAddSet, Handler: h.addSet},
		server.ServerTool{Tool: toolUpdateSet, Handler: h.updateSet},
		server.ServerTool{Tool: toolStartRest, Handler: h.startRest},
		server.ServerTool{Tool: toolFinishWorkout, Handler: h.finishWorkout},
		server.ServerTool{Tool: toolDiscardWorkout, Handler: h.discardWorkout},
		server.ServerTool{Tool: toolGetRecentWorkouts, Handler: h.getRecentWorkouts},
	)

	s.AddResources(
		server.ServerResource{Resource: resCurrentSession, Handler: h.currentSession},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	eng Engine
	log *slog.Logger
}

// --- Resource definitions ---

var resCurrentSession = mcp.NewResource(
	"liveset://session",
	"Current Session",
	mcp.WithResourceDescription("The workout in progress: exercises, sets, elapsed time and rest timer"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"liveset://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The 10 most recently saved workouts"),
	mcp.WithMIMEType("application/json"),
)
