// Package workout turns workout records into enriched rows with heart-rate
// statistics and zone minutes.
package workout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/units"
)

// DefaultConcurrency bounds concurrent per-workout enrichment.
const DefaultConcurrency = 8

// Record is one enriched workout.
type Record struct {
	ID              string
	Date            string
	Start           time.Time
	End             time.Time
	ActivityType    string
	DurationMinutes int
	Distance        *float64 // miles
	Calories        *int
	SourceName      string
	AvgHeartRate    *int
	MaxHeartRate    *int
	ZoneMinutes     map[int]int
}

// Enricher reads workouts and the heart-rate samples recorded during them.
type Enricher struct {
	store       healthstore.Store
	log         *slog.Logger
	concurrency int
}

// NewEnricher creates an Enricher. concurrency <= 0 uses DefaultConcurrency.
func NewEnricher(store healthstore.Store, concurrency int, log *slog.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Enricher{store: store, log: log, concurrency: concurrency}
}

// Workouts queries workouts overlapping [start, end] and enriches them.
// limit > 0 truncates the sorted result.
func (e *Enricher) Workouts(ctx context.Context, start, end time.Time, limit int, ascending bool) ([]Record, error) {
	raw, err := healthstore.Collect(ctx, e.store, healthstore.Query{
		Kind:      models.KindWorkout,
		Start:     start,
		End:       end,
		Ascending: ascending,
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("reading workouts: %w", err)
	}

	records := e.Enrich(ctx, raw, ascending)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Enrich builds records for every workout concurrently, then sorts them by
// date. A failed heart-rate query leaves that workout without heart-rate
// fields.
func (e *Enricher) Enrich(ctx context.Context, workouts []models.RawSample, ascending bool) []Record {
	records := make([]Record, len(workouts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, w := range workouts {
		g.Go(func() error {
			records[i] = e.enrichOne(gctx, w)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(records, func(i, j int) bool {
		if ascending {
			return records[i].Date < records[j].Date
		}
		return records[i].Date > records[j].Date
	})
	return records
}

func (e *Enricher) enrichOne(ctx context.Context, w models.RawSample) Record {
	rec := Record{
		ID:         w.ID,
		Date:       models.FormatTime(w.Start),
		Start:      w.Start,
		End:        w.End,
		SourceName: w.Source,
	}

	durationSec := w.End.Sub(w.Start).Seconds()
	activity := ActivityOther
	if f := w.Workout; f != nil {
		activity = f.ActivityType
		if f.DurationSec > 0 {
			durationSec = f.DurationSec
		}
		if f.DistanceMeters != nil {
			miles := units.Round(*f.DistanceMeters*units.MetersToMiles, 2)
			rec.Distance = &miles
		}
		if f.EnergyKcal != nil {
			kcal := int(math.Round(*f.EnergyKcal))
			rec.Calories = &kcal
		}
	}
	rec.ActivityType = ActivityLabel(activity)
	rec.DurationMinutes = int(math.Round(durationSec / 60))

	hr, err := healthstore.Collect(ctx, e.store, healthstore.Query{
		Kind:      models.KindHeartRate,
		Start:     w.Start,
		End:       w.End,
		Ascending: true,
	}, 0)
	if err != nil {
		e.log.Warn("workout heart-rate query failed", "workout", w.ID, "error", err)
		hr = nil
	}
	hr = withinWindow(hr, w.Start, w.End)

	if avg, peak, ok := heartRateStats(hr); ok {
		rec.AvgHeartRate = &avg
		rec.MaxHeartRate = &peak
	}

	if zones, ok := ZonesFromMetadata(w.Metadata); ok {
		rec.ZoneMinutes = zones
	} else if len(hr) > 0 {
		rec.ZoneMinutes = EstimateZones(hr)
	}
	return rec
}

// withinWindow keeps heart-rate samples whose start lies in [start, end] and
// converts their quantities to bpm.
func withinWindow(hr []models.RawSample, start, end time.Time) []models.RawSample {
	out := hr[:0]
	for _, s := range hr {
		if s.Quantity == nil || s.Start.Before(start) || s.Start.After(end) {
			continue
		}
		if bpm, err := units.Convert(*s.Quantity, s.Unit, models.UnitBPM); err == nil {
			s.Quantity = &bpm
		}
		out = append(out, s)
	}
	return out
}

func heartRateStats(hr []models.RawSample) (avg, peak int, ok bool) {
	if len(hr) == 0 {
		return 0, 0, false
	}
	var sum, top float64
	for i, s := range hr {
		v := *s.Quantity
		sum += v
		if i == 0 || v > top {
			top = v
		}
	}
	return int(math.Round(sum / float64(len(hr)))), int(math.Round(top)), true
}
