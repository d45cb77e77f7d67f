// Package importer walks a directory of exported CSV files — exercise plans
// under plan/, session logs under outcomes/ — and loads them through the
// ingest provider. A SQLite state database remembers imported files by hash
// so unchanged files are skipped on re-runs.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/liftplan/internal/ingest/csvplan"
	"github.com/claude/liftplan/internal/progression"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	ExercisesUpserted int64
	ExercisesRejected int
	OutcomesInserted  int64
	OutcomesSkipped   int
	OutcomesRejected  int
	Deloads           int

	RejectedNames []string
}

// Importer reads CSV files from an export directory and loads them via the
// ingest provider.
type Importer struct {
	provider *csvplan.Provider
	state    *StateDB
	log      *slog.Logger
	dryRun   bool
	userID   int
	stats    Stats

	// Dry runs have no database, so plan files seed an in-memory state map
	// the outcome replay folds over instead.
	dryStates   map[string]progression.State
	dryRejected map[string]bool
}

// New creates a new Importer. state may be nil, in which case no skip
// tracking happens (every file is processed each run).
func New(provider *csvplan.Provider, state *StateDB, log *slog.Logger, dryRun bool, userID int) *Importer {
	return &Importer{
		provider:    provider,
		state:       state,
		log:         log,
		dryRun:      dryRun,
		userID:      userID,
		dryStates:   map[string]progression.State{},
		dryRejected: map[string]bool{},
	}
}

// Import processes all CSV files under the given export directory. Plans load
// before outcomes, since an outcome log references exercises by name.
func (imp *Importer) Import(ctx context.Context, exportDir string) (*Stats, error) {
	planDir := filepath.Join(exportDir, "plan")
	outcomeDir := filepath.Join(exportDir, "outcomes")

	if _, err := os.Stat(planDir); err == nil {
		if err := imp.importDir(ctx, exportDir, planDir, imp.importPlanFile); err != nil {
			return &imp.stats, fmt.Errorf("importing plans: %w", err)
		}
	}

	if _, err := os.Stat(outcomeDir); err == nil {
		if err := imp.importDir(ctx, exportDir, outcomeDir, imp.importOutcomeFile); err != nil {
			return &imp.stats, fmt.Errorf("importing outcomes: %w", err)
		}
	}

	return &imp.stats, nil
}

func (imp *Importer) importDir(ctx context.Context, rootDir, dir string, load func(context.Context, string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			relPath = path
		}

		skip, size, hash, err := imp.alreadyImported(path, relPath)
		if err != nil {
			return err
		}
		if skip {
			imp.log.Info("skipping file (unchanged)", "file", relPath)
			imp.stats.FilesSkipped++
			continue
		}

		if err := load(ctx, path); err != nil {
			imp.log.Error("file failed", "file", relPath, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		imp.stats.FilesProcessed++

		if imp.state != nil && !imp.dryRun {
			if err := imp.state.MarkImported(relPath, size, hash); err != nil {
				return fmt.Errorf("marking %s imported: %w", relPath, err)
			}
		}
	}
	return nil
}

func (imp *Importer) alreadyImported(path, relPath string) (skip bool, size int64, hash string, err error) {
	if imp.state == nil {
		return false, 0, "", nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, 0, "", fmt.Errorf("stat %s: %w", path, err)
	}
	hash, err = HashFile(path)
	if err != nil {
		return false, 0, "", fmt.Errorf("hashing %s: %w", path, err)
	}

	imported, err := imp.state.IsImported(relPath, info.Size(), hash)
	if err != nil {
		return false, 0, "", fmt.Errorf("checking state for %s: %w", relPath, err)
	}
	return imported, info.Size(), hash, nil
}

func (imp *Importer) importPlanFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if imp.dryRun {
		states, err := csvplan.ParsePlan(f)
		if err != nil {
			return err
		}
		for _, s := range states {
			if err := s.Validate(); err != nil {
				imp.stats.ExercisesRejected++
				imp.stats.RejectedNames = append(imp.stats.RejectedNames, s.Name)
				continue
			}
			imp.stats.ExercisesUpserted++
			imp.dryStates[s.Name] = s
		}
		return nil
	}

	result, err := imp.provider.IngestPlan(ctx, f, imp.userID)
	if err != nil {
		return err
	}
	imp.stats.ExercisesUpserted += result.RecordsInserted
	imp.stats.ExercisesRejected += result.RecordsRejected
	imp.stats.RejectedNames = append(imp.stats.RejectedNames, result.RejectedNames...)
	return nil
}

func (imp *Importer) importOutcomeFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if imp.dryRun {
		records, err := csvplan.ParseOutcomes(f)
		if err != nil {
			return err
		}
		for _, rec := range records {
			state, ok := imp.dryStates[rec.Exercise]
			if !ok {
				imp.stats.OutcomesRejected++
				if !imp.dryRejected[rec.Exercise] {
					imp.dryRejected[rec.Exercise] = true
					imp.stats.RejectedNames = append(imp.stats.RejectedNames, rec.Exercise)
				}
				continue
			}
			next := progression.PlanNext(state, rec.Success)
			if !rec.Success && next.Failures == 0 {
				imp.stats.Deloads++
			}
			imp.dryStates[rec.Exercise] = next
			imp.stats.OutcomesInserted++
		}
		return nil
	}

	result, err := imp.provider.IngestOutcomes(ctx, f, imp.userID)
	if err != nil {
		return err
	}
	imp.stats.OutcomesInserted += result.OutcomesInserted
	imp.stats.OutcomesSkipped += result.OutcomesSkipped
	imp.stats.OutcomesRejected += result.RecordsRejected
	imp.stats.Deloads += result.Deloads
	imp.stats.RejectedNames = append(imp.stats.RejectedNames, result.RejectedNames...)
	return nil
}
