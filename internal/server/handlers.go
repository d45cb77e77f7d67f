package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleIngestPlan(w http.ResponseWriter, r *http.Request) {
	result, err := s.csv.IngestPlan(r.Context(), r.Body, userIDFromContext(r))
	if err != nil {
		s.log.Error("plan ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngestOutcomes(w http.ResponseWriter, r *http.Request) {
	result, err := s.csv.IngestOutcomes(r.Context(), r.Body, userIDFromContext(r))
	if err != nil {
		s.log.Error("outcomes ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookupExercise(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var state progression.State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := state.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	row := models.ExerciseRow{
		ID:                uuid.New(),
		UserID:            userIDFromContext(r),
		Name:              state.Name,
		RepLow:            state.RepLow,
		RepHigh:           state.RepHigh,
		RepIncrement:      state.RepIncrement,
		WeightIncrementKg: state.WeightIncrementKg,
		DeloadKg:          state.DeloadKg,
	}
	row.ApplyState(state)

	created, err := s.db.CreateExercise(r.Context(), row)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !created {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "exercise already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// handlePlanNext computes the next prescription without persisting it, a
// dry run of the planner against the stored state.
func (s *Server) handlePlanNext(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookupExercise(w, r)
	if !ok {
		return
	}

	success, err := parseSuccessParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	next := progression.PlanNext(row.ToState(), success)
	writeJSON(w, http.StatusOK, next)
}

// outcomeRequest is the body of POST /api/v1/exercises/{name}/outcome.
type outcomeRequest struct {
	Success bool       `json:"success"`
	Date    *time.Time `json:"date,omitempty"`
}

func (s *Server) handleRecordOutcome(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookupExercise(w, r)
	if !ok {
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sessionDate := time.Now()
	if req.Date != nil {
		sessionDate = *req.Date
	}

	state := row.ToState()
	next := progression.PlanNext(state, req.Success)
	deloaded := !req.Success && next.Failures == 0 && state.Failures > 0

	if next.WeightKg < 0 {
		// Data-quality warning, not a fault: a deload larger than the load
		// means the deload amount is misconfigured for this exercise.
		s.log.Warn("deload drove weight negative", "exercise", row.Name, "weight_kg", next.WeightKg)
	}

	row.ApplyState(next)
	if err := s.db.UpdateExerciseState(r.Context(), *row); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	outcome := models.OutcomeRow{
		ID:           uuid.New(),
		UserID:       userIDFromContext(r),
		ExerciseID:   row.ID,
		ExerciseName: row.Name,
		SessionDate:  sessionDate,
		Success:      req.Success,
		WeightKg:     next.WeightKg,
		Reps:         next.Reps,
		Failures:     next.Failures,
		Deloaded:     deloaded,
	}
	if err := s.db.InsertOutcome(r.Context(), outcome); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookupExercise(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteExercise(r.Context(), row.ID, row.UserID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": row.Name})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookupExercise(w, r)
	if !ok {
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	outcomes, err := s.db.QueryOutcomes(r.Context(), start, end, userIDFromContext(r), row.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := s.db.GetProgressionStats(r.Context(), start, end, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	overview, err := s.db.GetPlanOverview(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"overview":  overview,
		"exercises": stats,
	})
}

// lookupExercise resolves the {name} URL param to a stored exercise, writing
// the error response itself when the lookup fails.
func (s *Server) lookupExercise(w http.ResponseWriter, r *http.Request) (*models.ExerciseRow, bool) {
	name := chi.URLParam(r, "name")
	row, err := s.db.GetExercise(r.Context(), name, userIDFromContext(r))
	if errors.Is(err, storage.ErrExerciseNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return row, true
}

func parseSuccessParam(r *http.Request) (bool, error) {
	switch r.URL.Query().Get("success") {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, errors.New("success parameter required (true or false)")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 90 days
		end = time.Now()
		start = end.AddDate(0, 0, -90)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
