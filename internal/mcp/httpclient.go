package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftPlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. The API
// key is only needed for record_outcome, which hits a write endpoint.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, reqBody any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, respBody)
	}

	return respBody, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func exercisePath(name, suffix string) string {
	return "/api/v1/exercises/" + url.PathEscape(name) + suffix
}

func (c *HTTPClient) ListExercises(ctx context.Context, _ int) ([]models.ExerciseRow, error) {
	body, err := c.get(ctx, "/api/v1/exercises", nil)
	if err != nil {
		return nil, err
	}

	var rows []models.ExerciseRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return rows, nil
}

func (c *HTTPClient) GetExercise(ctx context.Context, name string, _ int) (*models.ExerciseRow, error) {
	body, err := c.get(ctx, exercisePath(name, ""), nil)
	if err != nil {
		return nil, err
	}

	var row models.ExerciseRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercise: %w", err)
	}
	return &row, nil
}

// resolveExercise maps a possibly-partial name onto a stored exercise name,
// mirroring the substring filter the server applies locally. An exact
// (case-folded) match wins over the first substring match.
func (c *HTTPClient) resolveExercise(ctx context.Context, filter string) (string, error) {
	rows, err := c.ListExercises(ctx, 0)
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(filter)
	var partial string
	for _, r := range rows {
		name := strings.ToLower(r.Name)
		if name == lower {
			return r.Name, nil
		}
		if partial == "" && strings.Contains(name, lower) {
			partial = r.Name
		}
	}
	if partial != "" {
		return partial, nil
	}
	return "", fmt.Errorf("httpclient: no exercise matches %q", filter)
}

// QueryOutcomes resolves the filter against the exercise list first, since
// the history endpoint is keyed by exact name.
func (c *HTTPClient) QueryOutcomes(ctx context.Context, start, end time.Time, _ int, exerciseFilter string) ([]models.OutcomeRow, error) {
	name, err := c.resolveExercise(ctx, exerciseFilter)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, exercisePath(name, "/history"), timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var rows []models.OutcomeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return rows, nil
}

// statsResponse is the shape of GET /api/v1/stats.
type statsResponse struct {
	Overview  *storage.PlanOverview   `json:"overview"`
	Exercises []storage.ExerciseStats `json:"exercises"`
}

func (c *HTTPClient) getStats(ctx context.Context, start, end time.Time) (*statsResponse, error) {
	body, err := c.get(ctx, "/api/v1/stats", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var resp statsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &resp, nil
}

func (c *HTTPClient) GetProgressionStats(ctx context.Context, start, end time.Time, _ int) ([]storage.ExerciseStats, error) {
	resp, err := c.getStats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return resp.Exercises, nil
}

// GetPlanOverview reads the overview field of the stats endpoint. The
// server computes it over all time regardless of the window params, which
// only scope the per-exercise array, so any window returns the same totals.
func (c *HTTPClient) GetPlanOverview(ctx context.Context, _ int) (*storage.PlanOverview, error) {
	end := time.Now()
	resp, err := c.getStats(ctx, end.AddDate(0, 0, -90), end)
	if err != nil {
		return nil, err
	}
	return resp.Overview, nil
}

func (c *HTTPClient) RecordOutcome(ctx context.Context, name string, success bool, _ int) (*models.ExerciseRow, error) {
	body, err := c.do(ctx, http.MethodPost, exercisePath(name, "/outcome"), nil,
		map[string]bool{"success": success})
	if err != nil {
		return nil, err
	}

	var row models.ExerciseRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("httpclient: decode outcome: %w", err)
	}
	return &row, nil
}
