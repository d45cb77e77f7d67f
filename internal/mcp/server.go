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
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftPlan double-progression planner. Inspect exercise prescriptions, dry-run or record session outcomes, and query progression history. Recording an outcome advances the plan; plan_next does not."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExercise, Handler: h.getExercise},
		server.ServerTool{Tool: toolPlanNext, Handler: h.planNext},
		server.ServerTool{Tool: toolRecordOutcome, Handler: h.recordOutcome},
		server.ServerTool{Tool: toolGetProgressionHistory, Handler: h.getProgressionHistory},
		server.ServerTool{Tool: toolGetProgressionStats, Handler: h.getProgressionStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCurrentPlan, Handler: h.currentPlan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resCurrentPlan = mcp.NewResource(
	"liftplan://current_plan",
	"Current Plan",
	mcp.WithResourceDescription("Every exercise's current prescription: weight, rep target, rep range, increments, deload amount, and failure streak"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) currentPlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	rows, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		h.log.Error("mcp current_plan", "error", err)
		return nil, err
	}
	return jsonResourceContents(req.Params.URI, rows)
}
