package mcp

import (
	"context"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Local (direct database)
// and HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	ListExercises(ctx context.Context, userID int) ([]models.ExerciseRow, error)
	GetExercise(ctx context.Context, name string, userID int) (*models.ExerciseRow, error)
	QueryOutcomes(ctx context.Context, start, end time.Time, userID int, exerciseFilter string) ([]models.OutcomeRow, error)
	GetProgressionStats(ctx context.Context, start, end time.Time, userID int) ([]storage.ExerciseStats, error)
	GetPlanOverview(ctx context.Context, userID int) (*storage.PlanOverview, error)
	RecordOutcome(ctx context.Context, name string, success bool, userID int) (*models.ExerciseRow, error)
}

// Local is a DataSource backed directly by the database.
type Local struct {
	db *storage.DB
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal creates a DataSource over a direct database connection.
func NewLocal(db *storage.DB) *Local {
	return &Local{db: db}
}

func (l *Local) ListExercises(ctx context.Context, userID int) ([]models.ExerciseRow, error) {
	return l.db.ListExercises(ctx, userID)
}

func (l *Local) GetExercise(ctx context.Context, name string, userID int) (*models.ExerciseRow, error) {
	return l.db.GetExercise(ctx, name, userID)
}

func (l *Local) QueryOutcomes(ctx context.Context, start, end time.Time, userID int, exerciseFilter string) ([]models.OutcomeRow, error) {
	return l.db.QueryOutcomes(ctx, start, end, userID, exerciseFilter)
}

func (l *Local) GetProgressionStats(ctx context.Context, start, end time.Time, userID int) ([]storage.ExerciseStats, error) {
	return l.db.GetProgressionStats(ctx, start, end, userID)
}

func (l *Local) GetPlanOverview(ctx context.Context, userID int) (*storage.PlanOverview, error) {
	return l.db.GetPlanOverview(ctx, userID)
}

// RecordOutcome runs one planning call against the stored prescription and
// persists the result plus its outcome row.
func (l *Local) RecordOutcome(ctx context.Context, name string, success bool, userID int) (*models.ExerciseRow, error) {
	row, err := l.db.GetExercise(ctx, name, userID)
	if err != nil {
		return nil, err
	}

	state := row.ToState()
	next := progression.PlanNext(state, success)
	deloaded := !success && next.Failures == 0 && state.Failures > 0

	row.ApplyState(next)
	if err := l.db.UpdateExerciseState(ctx, *row); err != nil {
		return nil, err
	}

	outcome := models.OutcomeRow{
		ID:           uuid.New(),
		UserID:       userID,
		ExerciseID:   row.ID,
		ExerciseName: row.Name,
		SessionDate:  time.Now(),
		Success:      success,
		WeightKg:     next.WeightKg,
		Reps:         next.Reps,
		Failures:     next.Failures,
		Deloaded:     deloaded,
	}
	if err := l.db.InsertOutcome(ctx, outcome); err != nil {
		return nil, err
	}
	return row, nil
}
