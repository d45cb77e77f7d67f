package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrExerciseNotFound is returned when no exercise matches the lookup.
var ErrExerciseNotFound = errors.New("exercise not found")

const exerciseColumns = `id, user_id, name, weight_kg, reps, rep_low, rep_high,
	 rep_increment, weight_increment_kg, deload_kg, failures, updated_at`

// CreateExercise inserts a new exercise prescription. Returns false when an
// exercise with the same name already exists for the user.
func (db *DB) CreateExercise(ctx context.Context, row models.ExerciseRow) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, user_id, name, weight_kg, reps, rep_low, rep_high,
		 rep_increment, weight_increment_kg, deload_kg, failures)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (user_id, name) DO NOTHING`,
		row.ID, row.UserID, row.Name, row.WeightKg, row.Reps, row.RepLow, row.RepHigh,
		row.RepIncrement, row.WeightIncrementKg, row.DeloadKg, row.Failures)
	if err != nil {
		return false, fmt.Errorf("inserting exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertExercise inserts or fully replaces an exercise prescription, keyed by
// (user_id, name). Used by the CSV plan ingest so re-imports reflect the
// latest file contents.
func (db *DB) UpsertExercise(ctx context.Context, row models.ExerciseRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, user_id, name, weight_kg, reps, rep_low, rep_high,
		 rep_increment, weight_increment_kg, deload_kg, failures)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (user_id, name) DO UPDATE SET
			weight_kg = EXCLUDED.weight_kg,
			reps = EXCLUDED.reps,
			rep_low = EXCLUDED.rep_low,
			rep_high = EXCLUDED.rep_high,
			rep_increment = EXCLUDED.rep_increment,
			weight_increment_kg = EXCLUDED.weight_increment_kg,
			deload_kg = EXCLUDED.deload_kg,
			failures = EXCLUDED.failures,
			updated_at = NOW()`,
		row.ID, row.UserID, row.Name, row.WeightKg, row.Reps, row.RepLow, row.RepHigh,
		row.RepIncrement, row.WeightIncrementKg, row.DeloadKg, row.Failures)
	if err != nil {
		return fmt.Errorf("upserting exercise: %w", err)
	}
	return nil
}

// GetExercise retrieves a single exercise by name for a user.
func (db *DB) GetExercise(ctx context.Context, name string, userID int) (*models.ExerciseRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE name = $1 AND user_id = $2`,
		name, userID)

	var e models.ExerciseRow
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.WeightKg, &e.Reps, &e.RepLow, &e.RepHigh,
		&e.RepIncrement, &e.WeightIncrementKg, &e.DeloadKg, &e.Failures, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise: %w", err)
	}
	return &e, nil
}

// ListExercises retrieves all exercises for a user, ordered by name.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.ExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE user_id = $1 ORDER BY name ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var e models.ExerciseRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.WeightKg, &e.Reps, &e.RepLow, &e.RepHigh,
			&e.RepIncrement, &e.WeightIncrementKg, &e.DeloadKg, &e.Failures, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateExerciseState writes the planner-owned fields (weight, reps,
// failures) back to an exercise row by id.
func (db *DB) UpdateExerciseState(ctx context.Context, row models.ExerciseRow) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises
		 SET weight_kg = $1, reps = $2, failures = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5`,
		row.WeightKg, row.Reps, row.Failures, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("updating exercise state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

// DeleteExercise removes an exercise and its outcome log.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID, userID int) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM session_outcomes WHERE exercise_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("deleting outcomes: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM exercises WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}
