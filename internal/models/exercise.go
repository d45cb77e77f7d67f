package models

import (
	"time"

	"github.com/claude/liftplan/internal/progression"
	"github.com/google/uuid"
)

// ExerciseRow is a row of the exercises table: one current prescription per
// exercise per user.
type ExerciseRow struct {
	ID                uuid.UUID `json:"id"`
	UserID            int       `json:"user_id"`
	Name              string    `json:"name"`
	WeightKg          float64   `json:"weight_kg"`
	Reps              int       `json:"reps"`
	RepLow            int       `json:"rep_low"`
	RepHigh           int       `json:"rep_high"`
	RepIncrement      int       `json:"rep_increment"`
	WeightIncrementKg float64   `json:"weight_increment_kg"`
	DeloadKg          float64   `json:"deload_kg"`
	Failures          int       `json:"failures"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToState converts the row into the engine's value type.
func (r ExerciseRow) ToState() progression.State {
	return progression.State{
		Name:              r.Name,
		WeightKg:          r.WeightKg,
		Reps:              r.Reps,
		RepLow:            r.RepLow,
		RepHigh:           r.RepHigh,
		RepIncrement:      r.RepIncrement,
		WeightIncrementKg: r.WeightIncrementKg,
		DeloadKg:          r.DeloadKg,
		Failures:          r.Failures,
	}
}

// ApplyState writes an engine result back onto the row. Only the fields the
// planner owns (weight, reps, failures) are taken from the state; identity
// and configuration stay with the row.
func (r *ExerciseRow) ApplyState(s progression.State) {
	r.WeightKg = s.WeightKg
	r.Reps = s.Reps
	r.Failures = s.Failures
}

// OutcomeRow is a row of the session_outcomes table: one planning call, with
// the prescription it produced.
type OutcomeRow struct {
	ID           uuid.UUID `json:"id"`
	UserID       int       `json:"user_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	SessionDate  time.Time `json:"session_date"`
	Success      bool      `json:"success"`
	WeightKg     float64   `json:"weight_kg"`
	Reps         int       `json:"reps"`
	Failures     int       `json:"failures"`
	Deloaded     bool      `json:"deloaded"`
}
