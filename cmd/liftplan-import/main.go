package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/importer"
	"github.com/claude/liftplan/internal/ingest/csvplan"
	"github.com/claude/liftplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "path to CSV export directory (required)")
	statePath := flag.String("state", "", "path to import state directory (default: no skip tracking)")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-import -config config.yaml -path /path/to/export [-state dir] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Verify export directory exists
	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	ctx := context.Background()

	var db *storage.DB
	var provider *csvplan.Provider

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	} else {
		// Load config
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		dsn := cfg.Database.DSN()

		// Run migrations
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		// Connect database
		db, err = storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")

		provider = csvplan.NewProvider(db, log)
	}

	var state *importer.StateDB
	if *statePath != "" {
		state, err = importer.OpenStateDB(*statePath)
		if err != nil {
			log.Error("failed to open state db", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	// Run import
	imp := importer.New(provider, state, log, *dryRun, 1)
	stats, err := imp.Import(ctx, *exportPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"exercises_upserted", stats.ExercisesUpserted,
		"exercises_rejected", stats.ExercisesRejected,
		"outcomes_inserted", stats.OutcomesInserted,
		"outcomes_skipped", stats.OutcomesSkipped,
		"outcomes_rejected", stats.OutcomesRejected,
		"deloads", stats.Deloads,
	)
	if len(stats.RejectedNames) > 0 {
		log.Info("rejected records", "names", stats.RejectedNames)
	}
}
