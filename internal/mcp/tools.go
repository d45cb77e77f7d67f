package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/liftplan/internal/progression"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 90 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -90)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

func jsonResourceContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List every exercise's current prescription: weight, rep target, rep range, increments, deload amount, and consecutive failure count."),
)

var toolGetExercise = mcp.NewTool("get_exercise",
	mcp.WithDescription("Get one exercise's current prescription by name."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (exact match, e.g. 'Bench Press')")),
)

var toolPlanNext = mcp.NewTool("plan_next",
	mcp.WithDescription("Dry-run the progression planner: compute the next prescription for a given session outcome WITHOUT saving anything. Use record_outcome to actually advance the plan."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (exact match)")),
	mcp.WithBoolean("success", mcp.Required(), mcp.Description("Whether the session hit its prescribed weight and reps")),
)

var toolRecordOutcome = mcp.NewTool("record_outcome",
	mcp.WithDescription("Record a completed session's outcome for an exercise. Advances the prescription (rep climb, weight rollover, or deload after 3 consecutive failures) and appends to the outcome log."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (exact match)")),
	mcp.WithBoolean("success", mcp.Required(), mcp.Description("Whether the session hit its prescribed weight and reps")),
)

var toolGetProgressionHistory = mcp.NewTool("get_progression_history",
	mcp.WithDescription("Session-by-session outcome log for an exercise: date, success, prescribed weight/reps after the session, and whether a deload fired."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (partial match, e.g. 'bench')")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetProgressionStats = mcp.NewTool("get_progression_stats",
	mcp.WithDescription("Per-exercise progression aggregates over a time range: sessions, success rate, deload count, and net weight change, plus plan-wide totals."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	rows, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)

	row, err := h.ds.GetExercise(ctx, name, uid)
	if err != nil {
		return mcp.NewToolResultError("lookup failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) planNext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	success, err := req.RequireBool("success")
	if err != nil {
		return mcp.NewToolResultError("success parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)

	row, err := h.ds.GetExercise(ctx, name, uid)
	if err != nil {
		return mcp.NewToolResultError("lookup failed: " + err.Error()), nil
	}

	// The planner is pure, so the dry run works identically over a local
	// database or a remote REST data source.
	next := progression.PlanNext(row.ToState(), success)

	result, err := mcp.NewToolResultJSON(next)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) recordOutcome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	success, err := req.RequireBool("success")
	if err != nil {
		return mcp.NewToolResultError("success parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)

	row, err := h.ds.RecordOutcome(ctx, name, success, uid)
	if err != nil {
		h.log.Error("mcp record_outcome", "error", err)
		return mcp.NewToolResultError("recording failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := UserIDFromContext(ctx)

	outcomes, err := h.ds.QueryOutcomes(ctx, start, end, uid, exercise)
	if err != nil {
		h.log.Error("mcp get_progression_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(outcomes)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressionStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := UserIDFromContext(ctx)

	stats, err := h.ds.GetProgressionStats(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_progression_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	overview, err := h.ds.GetPlanOverview(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_progression_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"overview":  overview,
		"exercises": stats,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
