package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/healthbridge/internal/config"
	"github.com/claude/healthbridge/internal/importer"
	"github.com/claude/healthbridge/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dirPath := flag.String("path", "", "directory containing .fit or .fit.gz files (required)")
	source := flag.String("source", importer.DefaultSource, "source name stamped on imported samples")
	dryRun := flag.Bool("dry-run", false, "parse files without inserting into the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dirPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: healthbridge-import -config config.yaml -path /path/to/activities [-source NAME] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dirPath)
	if err != nil || !info.IsDir() {
		log.Error("import path does not exist or is not a directory", "path", *dirPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Store.Backend != config.BackendPostgres {
		log.Error("import requires the postgres store backend", "backend", cfg.Store.Backend)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, cfg.Store.MigrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Open state database
	state, err := importer.OpenStateDB(cfg.Import.StateDB)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Run import
	imp := importer.New(db, state, *source, log, *dryRun)
	stats, err := imp.Import(ctx, *dirPath)
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
		"workouts_inserted", stats.WorkoutsInserted,
		"samples_inserted", stats.SamplesInserted,
	)
}
