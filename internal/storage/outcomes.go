package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// InsertOutcome records a single planning call's result.
func (db *DB) InsertOutcome(ctx context.Context, row models.OutcomeRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO session_outcomes (id, user_id, exercise_id, exercise_name, session_date,
		 success, weight_kg, reps, failures, deloaded)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT DO NOTHING`,
		row.ID, row.UserID, row.ExerciseID, row.ExerciseName, row.SessionDate,
		row.Success, row.WeightKg, row.Reps, row.Failures, row.Deloaded)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}
	return nil
}

// InsertOutcomes batch-inserts outcome rows. Returns count inserted.
func (db *DB) InsertOutcomes(ctx context.Context, rows []models.OutcomeRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO session_outcomes (id, user_id, exercise_id, exercise_name, session_date, success, weight_kg, reps, failures, deloaded) VALUES `
	args := make([]any, 0, len(rows)*10)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 10
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args, r.ID, r.UserID, r.ExerciseID, r.ExerciseName, r.SessionDate,
			r.Success, r.WeightKg, r.Reps, r.Failures, r.Deloaded)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting outcomes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryOutcomes retrieves outcomes in a time range, optionally filtered by
// exercise name (partial match), newest first.
func (db *DB) QueryOutcomes(ctx context.Context, start, end time.Time, userID int, exerciseFilter string) ([]models.OutcomeRow, error) {
	query := `SELECT id, user_id, exercise_id, exercise_name, session_date,
		 success, weight_kg, reps, failures, deloaded
		 FROM session_outcomes
		 WHERE session_date >= $1 AND session_date < $2 AND user_id = $3`
	args := []any{start, end, userID}

	if exerciseFilter != "" {
		query += ` AND exercise_name ILIKE '%' || $4 || '%'`
		args = append(args, exerciseFilter)
	}
	query += ` ORDER BY session_date DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomeRows(rows)
}

// QueryOutcomesByExercise retrieves the full outcome log for one exercise in
// session order. The outcome ingest uses it to skip sessions that are
// already recorded before replaying a log through the planner.
func (db *DB) QueryOutcomesByExercise(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.OutcomeRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, exercise_id, exercise_name, session_date,
		 success, weight_kg, reps, failures, deloaded
		 FROM session_outcomes
		 WHERE exercise_id = $1 AND user_id = $2
		 ORDER BY session_date ASC`,
		exerciseID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying outcome log: %w", err)
	}
	defer rows.Close()

	return scanOutcomeRows(rows)
}

func scanOutcomeRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.OutcomeRow, error) {
	var result []models.OutcomeRow
	for rows.Next() {
		var o models.OutcomeRow
		if err := rows.Scan(&o.ID, &o.UserID, &o.ExerciseID, &o.ExerciseName, &o.SessionDate,
			&o.Success, &o.WeightKg, &o.Reps, &o.Failures, &o.Deloaded); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
