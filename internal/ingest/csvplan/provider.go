package csvplan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/liftplan/internal/ingest"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// Provider processes plan and outcome-log CSV files.
type Provider struct {
	db  *storage.DB
	log *slog.Logger
}

// NewProvider creates a new CSV ingest provider.
func NewProvider(db *storage.DB, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// IngestPlan parses a plan CSV and upserts each valid exercise. Records that
// fail validation are rejected by name; the rest are stored, so one bad row
// does not block the file.
func (p *Provider) IngestPlan(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	states, err := ParsePlan(r)
	if err != nil {
		return nil, fmt.Errorf("parsing plan CSV: %w", err)
	}

	result := &ingest.Result{RecordsReceived: len(states)}
	for _, s := range states {
		if err := s.Validate(); err != nil {
			p.log.Warn("rejecting plan record", "exercise", s.Name, "error", err)
			result.RecordsRejected++
			result.RejectedNames = append(result.RejectedNames, s.Name)
			continue
		}

		row := models.ExerciseRow{ID: uuid.New(), UserID: userID}
		row.Name = s.Name
		row.RepLow = s.RepLow
		row.RepHigh = s.RepHigh
		row.RepIncrement = s.RepIncrement
		row.WeightIncrementKg = s.WeightIncrementKg
		row.DeloadKg = s.DeloadKg
		row.ApplyState(s)

		if err := p.db.UpsertExercise(ctx, row); err != nil {
			return nil, fmt.Errorf("upserting %s: %w", s.Name, err)
		}
		result.RecordsInserted++
	}
	return result, nil
}

// IngestOutcomes parses an outcome-log CSV and replays each exercise's
// sessions through the planner in date order, persisting the resulting
// prescription and one outcome row per session. Outcomes for unknown
// exercises are rejected by name. Sessions whose date is already in the
// outcome log are skipped before the replay, so re-ingesting the same
// export leaves the stored prescription untouched.
func (p *Provider) IngestOutcomes(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	records, err := ParseOutcomes(r)
	if err != nil {
		return nil, fmt.Errorf("parsing outcomes CSV: %w", err)
	}

	// Group per exercise, preserving the date order ParseOutcomes established.
	grouped := make(map[string][]OutcomeRecord)
	var order []string
	for _, rec := range records {
		if _, seen := grouped[rec.Exercise]; !seen {
			order = append(order, rec.Exercise)
		}
		grouped[rec.Exercise] = append(grouped[rec.Exercise], rec)
	}

	result := &ingest.Result{OutcomesReceived: len(records)}
	rejected := map[string]bool{}
	var allRows []models.OutcomeRow

	for _, name := range order {
		outcomes := grouped[name]
		row, err := p.db.GetExercise(ctx, name, userID)
		if errors.Is(err, storage.ErrExerciseNotFound) {
			if !rejected[name] {
				p.log.Warn("rejecting outcomes for unknown exercise", "exercise", name)
				result.RejectedNames = append(result.RejectedNames, name)
				rejected[name] = true
			}
			result.RecordsRejected += len(outcomes)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}

		existing, err := p.db.QueryOutcomesByExercise(ctx, row.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("loading outcome log for %s: %w", name, err)
		}
		fresh := filterNewOutcomes(existing, outcomes)
		result.OutcomesSkipped += len(outcomes) - len(fresh)
		if len(fresh) == 0 {
			continue
		}

		state := row.ToState()
		for _, rec := range fresh {
			next := progression.PlanNext(state, rec.Success)
			deloaded := !rec.Success && next.Failures == 0
			if next.WeightKg < 0 {
				p.log.Warn("deload drove weight negative",
					"exercise", name, "weight_kg", next.WeightKg, "date", rec.Date.Format("2006-01-02"))
			}
			allRows = append(allRows, models.OutcomeRow{
				ID:           uuid.New(),
				UserID:       userID,
				ExerciseID:   row.ID,
				ExerciseName: name,
				SessionDate:  rec.Date,
				Success:      rec.Success,
				WeightKg:     next.WeightKg,
				Reps:         next.Reps,
				Failures:     next.Failures,
				Deloaded:     deloaded,
			})
			if deloaded {
				result.Deloads++
			}
			state = next
		}

		row.ApplyState(state)
		if err := p.db.UpdateExerciseState(ctx, *row); err != nil {
			return nil, fmt.Errorf("updating %s: %w", name, err)
		}
	}

	if len(allRows) > 0 {
		inserted, err := p.db.InsertOutcomes(ctx, allRows)
		if err != nil {
			return nil, fmt.Errorf("inserting outcomes: %w", err)
		}
		result.OutcomesInserted = inserted
	}
	return result, nil
}

// filterNewOutcomes drops records whose session date already has a stored
// outcome. Dates compare at day granularity, one planning call per exercise
// per day, so replaying a previously ingested log is a no-op.
func filterNewOutcomes(existing []models.OutcomeRow, recs []OutcomeRecord) []OutcomeRecord {
	if len(existing) == 0 {
		return recs
	}
	seen := make(map[string]bool, len(existing))
	for _, o := range existing {
		seen[o.SessionDate.UTC().Format("2006-01-02")] = true
	}
	var fresh []OutcomeRecord
	for _, r := range recs {
		if seen[r.Date.UTC().Format("2006-01-02")] {
			continue
		}
		fresh = append(fresh, r)
	}
	return fresh
}
