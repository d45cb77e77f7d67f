package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestHTTPClientListExercises verifies the list call hits the right path and
// decodes the response rows.
func TestHTTPClientListExercises(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/exercises" {
			t.Errorf("path = %q, want /api/v1/exercises", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"Bench Press","weight_kg":100,"reps":8}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	rows, err := c.ListExercises(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Bench Press" || rows[0].WeightKg != 100 {
		t.Errorf("rows = %+v", rows)
	}
}

// TestHTTPClientGetExerciseEscapesName verifies exercise names with spaces
// are path-escaped in the request URL.
func TestHTTPClientGetExerciseEscapesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"name":"Hack Squats"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	row, err := c.GetExercise(context.Background(), "Hack Squats", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/exercises/Hack%20Squats" {
		t.Errorf("path = %q, want escaped name", gotPath)
	}
	if row.Name != "Hack Squats" {
		t.Errorf("name = %q", row.Name)
	}
}

// TestHTTPClientQueryOutcomesResolvesPartialName verifies a lowercase
// partial filter is resolved against the exercise list before the history
// request, matching the substring semantics of the local data source.
func TestHTTPClientQueryOutcomesResolvesPartialName(t *testing.T) {
	var historyPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/exercises":
			w.Write([]byte(`[{"name":"Hack Squats"},{"name":"Bench Press"}]`))
		default:
			historyPath = r.URL.EscapedPath()
			w.Write([]byte(`[{"exercise_name":"Bench Press","success":true}]`))
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	start := time.Now().AddDate(0, 0, -90)
	rows, err := c.QueryOutcomes(context.Background(), start, time.Now(), 1, "bench")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if historyPath != "/api/v1/exercises/Bench%20Press/history" {
		t.Errorf("history path = %q, want resolved exact name", historyPath)
	}
	if len(rows) != 1 || rows[0].ExerciseName != "Bench Press" {
		t.Errorf("rows = %+v", rows)
	}
}

// TestHTTPClientQueryOutcomesUnknownFilter verifies an unmatched filter is
// an error rather than a request for a nonexistent path.
func TestHTTPClientQueryOutcomesUnknownFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Bench Press"}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	if _, err := c.QueryOutcomes(context.Background(), time.Time{}, time.Now(), 1, "deadlift"); err == nil {
		t.Fatal("expected error for unmatched filter")
	}
}

// TestHTTPClientRecordOutcome verifies the write path POSTs with the API key
// header and the success flag in the body.
func TestHTTPClientRecordOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if key := r.Header.Get("X-API-Key"); key != "secret" {
			t.Errorf("api key = %q, want secret", key)
		}
		var body map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if !body["success"] {
			t.Error("body success = false, want true")
		}
		w.Write([]byte(`{"name":"Bench Press","reps":9}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret")
	row, err := c.RecordOutcome(context.Background(), "Bench Press", true, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Reps != 9 {
		t.Errorf("reps = %d, want 9", row.Reps)
	}
}

// TestHTTPClientErrorStatus verifies non-200 responses surface the status
// and body in the error.
func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"exercise not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	if _, err := c.GetExercise(context.Background(), "Nope", 1); err == nil {
		t.Fatal("expected error for 404")
	}
}
