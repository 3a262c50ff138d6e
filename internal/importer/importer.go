// Package importer loads FIT activity files into a health store.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/storage"
)

// DefaultSource is the source name stamped on imported samples.
const DefaultSource = "FIT Import"

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	WorkoutsInserted int
	SamplesInserted  int64
}

// Sink receives converted samples. *storage.DB satisfies it directly.
type Sink interface {
	InsertSamples(ctx context.Context, samples []models.RawSample) (int64, error)
}

var _ Sink = (*storage.DB)(nil)

// StoreSink adapts a healthstore.Store to Sink by saving samples one at a time.
type StoreSink struct {
	Store healthstore.Store
}

func (s StoreSink) InsertSamples(ctx context.Context, samples []models.RawSample) (int64, error) {
	var n int64
	for _, smp := range samples {
		if err := s.Store.Save(ctx, smp); err != nil {
			return n, fmt.Errorf("saving sample %s: %w", smp.ID, err)
		}
		n++
	}
	return n, nil
}

// Importer walks a directory of FIT files and writes their samples to a Sink.
type Importer struct {
	sink   Sink
	state  *StateDB
	log    *slog.Logger
	source string
	dryRun bool
	stats  Stats
}

// New creates a new Importer. state may be nil to import every file
// regardless of earlier runs.
func New(sink Sink, state *StateDB, source string, log *slog.Logger, dryRun bool) *Importer {
	if source == "" {
		source = DefaultSource
	}
	return &Importer{sink: sink, state: state, source: source, log: log, dryRun: dryRun}
}

// Import processes every .fit and .fit.gz file under dir. A file that fails
// to parse or insert is logged and counted; the walk continues.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isActivityFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		if err := imp.importFile(ctx, path, rel); err != nil {
			imp.stats.FilesErrored++
			imp.log.Error("import failed", "file", rel, "error", err)
		}
		return nil
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("walking %s: %w", dir, err)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path, rel string) error {
	data, err := ReadActivityFile(path)
	if err != nil {
		return err
	}
	hash := hashBytes(data)
	size := int64(len(data))

	if imp.state != nil {
		done, err := imp.state.IsImported(rel, size, hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if done {
			imp.stats.FilesSkipped++
			imp.log.Debug("skipping already imported file", "file", rel)
			return nil
		}
	}

	samples, err := Convert(data, hash, imp.source)
	if err != nil {
		return err
	}
	workouts := 0
	for _, s := range samples {
		if s.Kind == models.KindWorkout {
			workouts++
		}
	}

	if imp.dryRun {
		imp.stats.FilesProcessed++
		imp.log.Info("parsed file", "file", rel, "workouts", workouts, "samples", len(samples))
		return nil
	}

	n, err := imp.sink.InsertSamples(ctx, samples)
	if err != nil {
		return fmt.Errorf("inserting samples: %w", err)
	}
	imp.stats.FilesProcessed++
	imp.stats.WorkoutsInserted += workouts
	imp.stats.SamplesInserted += n

	if imp.state != nil {
		if err := imp.state.MarkImported(rel, size, hash, n); err != nil {
			return fmt.Errorf("recording state: %w", err)
		}
	}
	imp.log.Info("imported file", "file", rel, "workouts", workouts, "samples", n)
	return nil
}
