package csvplan

import (
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestFilterNewOutcomesSkipsRecordedSessions verifies that records whose
// session date is already in the outcome log are dropped, so a re-ingested
// export replays nothing and leaves the stored prescription where it was.
func TestFilterNewOutcomesSkipsRecordedSessions(t *testing.T) {
	existing := []models.OutcomeRow{
		{ExerciseName: "Bench Press", SessionDate: day("2026-03-01")},
		{ExerciseName: "Bench Press", SessionDate: day("2026-03-03")},
	}
	recs := []OutcomeRecord{
		{Date: day("2026-03-01"), Exercise: "Bench Press", Success: true},
		{Date: day("2026-03-03"), Exercise: "Bench Press", Success: false},
	}

	if fresh := filterNewOutcomes(existing, recs); len(fresh) != 0 {
		t.Errorf("re-ingested log produced %d records to replay, want 0", len(fresh))
	}
}

// TestFilterNewOutcomesKeepsNewSessions verifies only sessions past the end
// of the stored log are replayed when an export grows.
func TestFilterNewOutcomesKeepsNewSessions(t *testing.T) {
	existing := []models.OutcomeRow{
		{ExerciseName: "Bench Press", SessionDate: day("2026-03-01")},
	}
	recs := []OutcomeRecord{
		{Date: day("2026-03-01"), Exercise: "Bench Press", Success: true},
		{Date: day("2026-03-05"), Exercise: "Bench Press", Success: true},
	}

	fresh := filterNewOutcomes(existing, recs)
	if len(fresh) != 1 || !fresh[0].Date.Equal(day("2026-03-05")) {
		t.Fatalf("fresh = %+v, want only the 2026-03-05 session", fresh)
	}

	// The single new session advances the state exactly once.
	state := progression.State{
		Name: "Bench Press", WeightKg: 100, Reps: 9,
		RepLow: 8, RepHigh: 12, RepIncrement: 1, WeightIncrementKg: 5, DeloadKg: 10,
	}
	next := progression.PlanNext(state, fresh[0].Success)
	if next.Reps != 10 || next.WeightKg != 100 {
		t.Errorf("next = %+v, want reps 10 at 100kg", next)
	}
}

// TestFilterNewOutcomesEmptyLog verifies a first-time ingest replays the
// whole file.
func TestFilterNewOutcomesEmptyLog(t *testing.T) {
	recs := []OutcomeRecord{
		{Date: day("2026-03-01"), Exercise: "Bench Press", Success: true},
	}
	if fresh := filterNewOutcomes(nil, recs); len(fresh) != 1 {
		t.Errorf("fresh = %d records, want 1", len(fresh))
	}
}
