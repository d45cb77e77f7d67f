package storage

import (
	"context"
	"fmt"
	"time"
)

// ExerciseStats holds per-exercise aggregate progression numbers.
type ExerciseStats struct {
	Name           string   `json:"name"`
	Sessions       int      `json:"sessions"`
	Successes      int      `json:"successes"`
	Deloads        int      `json:"deloads"`
	FirstWeightKg  float64  `json:"first_weight_kg"`
	LastWeightKg   float64  `json:"last_weight_kg"`
	NetChangeKg    float64  `json:"net_change_kg"`
	SuccessRatePct float64  `json:"success_rate_pct"`
	LastSession    *string  `json:"last_session,omitempty"`
}

// PlanOverview holds plan-wide counts for the dashboard.
type PlanOverview struct {
	Exercises     int `json:"exercises"`
	TotalSessions int `json:"total_sessions"`
	TotalDeloads  int `json:"total_deloads"`
}

// GetProgressionStats returns per-exercise aggregates over the outcome log
// in a time range: session counts, deloads, and net weight movement.
func (db *DB) GetProgressionStats(ctx context.Context, start, end time.Time, userID int) ([]ExerciseStats, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_name,
		        COUNT(*)::int,
		        COUNT(*) FILTER (WHERE success)::int,
		        COUNT(*) FILTER (WHERE deloaded)::int,
		        (ARRAY_AGG(weight_kg ORDER BY session_date ASC))[1],
		        (ARRAY_AGG(weight_kg ORDER BY session_date DESC))[1],
		        TO_CHAR(MAX(session_date), 'YYYY-MM-DD')
		 FROM session_outcomes
		 WHERE session_date >= $1 AND session_date < $2 AND user_id = $3
		 GROUP BY exercise_name
		 ORDER BY exercise_name ASC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying progression stats: %w", err)
	}
	defer rows.Close()

	var result []ExerciseStats
	for rows.Next() {
		var s ExerciseStats
		if err := rows.Scan(&s.Name, &s.Sessions, &s.Successes, &s.Deloads,
			&s.FirstWeightKg, &s.LastWeightKg, &s.LastSession); err != nil {
			return nil, fmt.Errorf("scanning progression stats: %w", err)
		}
		s.NetChangeKg = s.LastWeightKg - s.FirstWeightKg
		if s.Sessions > 0 {
			s.SuccessRatePct = float64(s.Successes) / float64(s.Sessions) * 100
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetPlanOverview returns plan-wide counts for a user.
func (db *DB) GetPlanOverview(ctx context.Context, userID int) (*PlanOverview, error) {
	var o PlanOverview
	err := db.Pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM exercises WHERE user_id = $1)::int,
			(SELECT COUNT(*) FROM session_outcomes WHERE user_id = $1)::int,
			(SELECT COUNT(*) FROM session_outcomes WHERE user_id = $1 AND deloaded)::int`,
		userID).Scan(&o.Exercises, &o.TotalSessions, &o.TotalDeloads)
	if err != nil {
		return nil, fmt.Errorf("querying plan overview: %w", err)
	}
	return &o, nil
}
