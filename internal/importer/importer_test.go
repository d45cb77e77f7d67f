package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

const planCSV = `name,weight,reps,rep_low,rep_high,rep_increment,weight_increment,deload,failures
Bench Press,100,8,8,12,1,5,10,0
Broken Row,-5,8,8,12,1,5,10,0
`

const outcomesCSV = `date,exercise,success
2026-03-01,Bench Press,1
2026-03-03,Bench Press,0
`

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeExportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for sub, content := range map[string]string{
		filepath.Join("plan", "plan.csv"):         planCSV,
		filepath.Join("outcomes", "sessions.csv"): outcomesCSV,
	} {
		path := filepath.Join(dir, sub)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TestDryRunCountsWithoutWriting verifies a dry-run import parses and counts
// records without needing a database, and rejects invalid plan rows.
func TestDryRunCountsWithoutWriting(t *testing.T) {
	dir := writeExportDir(t)

	imp := New(nil, nil, discardLog(), true, 1)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.FilesProcessed != 2 {
		t.Errorf("files processed = %d, want 2", stats.FilesProcessed)
	}
	if stats.ExercisesUpserted != 1 {
		t.Errorf("exercises upserted = %d, want 1", stats.ExercisesUpserted)
	}
	if stats.ExercisesRejected != 1 {
		t.Errorf("exercises rejected = %d, want 1", stats.ExercisesRejected)
	}
	if len(stats.RejectedNames) != 1 || stats.RejectedNames[0] != "Broken Row" {
		t.Errorf("rejected names = %v, want [Broken Row]", stats.RejectedNames)
	}
	if stats.OutcomesInserted != 2 {
		t.Errorf("outcomes = %d, want 2", stats.OutcomesInserted)
	}
	if stats.Deloads != 0 || stats.OutcomesRejected != 0 {
		t.Errorf("deloads = %d, outcomes rejected = %d, want 0 and 0", stats.Deloads, stats.OutcomesRejected)
	}
}

// TestDryRunReplaysOutcomes verifies the dry run folds outcome records
// through the planner seeded from the plan files, so its deload and
// rejection counts match what a real run would report.
func TestDryRunReplaysOutcomes(t *testing.T) {
	dir := t.TempDir()
	plan := `name,weight,reps,rep_low,rep_high,rep_increment,weight_increment,deload,failures
Squat,100,8,8,12,1,5,10,2
`
	outcomes := `date,exercise,success
2026-03-01,Squat,0
2026-03-02,Curl,1
`
	for sub, content := range map[string]string{
		filepath.Join("plan", "plan.csv"):         plan,
		filepath.Join("outcomes", "sessions.csv"): outcomes,
	} {
		path := filepath.Join(dir, sub)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	imp := New(nil, nil, discardLog(), true, 1)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Squat enters with two failures, so its failed session deloads.
	if stats.Deloads != 1 {
		t.Errorf("deloads = %d, want 1", stats.Deloads)
	}
	if stats.OutcomesInserted != 1 {
		t.Errorf("outcomes = %d, want 1", stats.OutcomesInserted)
	}
	if stats.OutcomesRejected != 1 {
		t.Errorf("outcomes rejected = %d, want 1", stats.OutcomesRejected)
	}
	if len(stats.RejectedNames) != 1 || stats.RejectedNames[0] != "Curl" {
		t.Errorf("rejected names = %v, want [Curl]", stats.RejectedNames)
	}
}

// TestImportMissingDir verifies an export directory with neither subdirectory
// imports nothing and errors nowhere.
func TestImportMissingDir(t *testing.T) {
	imp := New(nil, nil, discardLog(), true, 1)
	stats, err := imp.Import(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesProcessed != 0 {
		t.Errorf("files processed = %d, want 0", stats.FilesProcessed)
	}
}

// TestImportBadFileContinues verifies a malformed file is counted as errored
// and does not abort the rest of the run.
func TestImportBadFileContinues(t *testing.T) {
	dir := writeExportDir(t)
	bad := filepath.Join(dir, "plan", "aaa-bad.csv")
	if err := os.WriteFile(bad, []byte("not,a,plan\n1,2,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := New(nil, nil, discardLog(), true, 1)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesErrored != 1 {
		t.Errorf("files errored = %d, want 1", stats.FilesErrored)
	}
	if stats.FilesProcessed != 2 {
		t.Errorf("files processed = %d, want 2", stats.FilesProcessed)
	}
}

// TestStateDBRoundTrip verifies the SQLite state database records imported
// files and reports changed files as not imported.
func TestStateDBRoundTrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	defer state.Close()

	imported, err := state.IsImported("plan/plan.csv", 100, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported {
		t.Error("fresh db reports file as imported")
	}

	if err := state.MarkImported("plan/plan.csv", 100, "abc"); err != nil {
		t.Fatalf("mark imported: %v", err)
	}

	imported, err = state.IsImported("plan/plan.csv", 100, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !imported {
		t.Error("file not reported as imported")
	}

	// Same path, different hash — file changed, must be re-imported.
	imported, err = state.IsImported("plan/plan.csv", 100, "different")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported {
		t.Error("changed file reported as imported")
	}
}

// TestHashFile verifies hashing is stable and content-sensitive.
func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.csv")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := HashFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := HashFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hash not stable: %s != %s", h1, h2)
	}

	if err := os.WriteFile(path, []byte("hello2"), 0o644); err != nil {
		t.Fatal(err)
	}
	h3, err := HashFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h3 == h1 {
		t.Error("hash unchanged after content change")
	}
}
