// Package composite synthesizes day rows for the composite data types from
// several native kinds queried concurrently.
package composite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/healthbridge/internal/calendar"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/observability"
	"github.com/claude/healthbridge/internal/units"
)

// DayRow holds the metrics of one local date. Only metrics with data on that
// date are present in Values.
type DayRow struct {
	Date   string
	Values map[string]float64
}

// Aggregator runs composite tables against a store.
type Aggregator struct {
	store healthstore.Store
	cal   *calendar.Calendar
	log   *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(store healthstore.Store, cal *calendar.Calendar, log *slog.Logger) *Aggregator {
	return &Aggregator{store: store, cal: cal, log: log}
}

// accumulator is the running state of one metric on one date.
type accumulator struct {
	sum    float64
	n      int
	min    float64
	max    float64
	last   float64
	lastAt time.Time
}

func (a *accumulator) add(v float64, at time.Time) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	if a.n == 0 || !at.Before(a.lastAt) {
		a.last, a.lastAt = v, at
	}
	a.sum += v
	a.n++
}

// kindResult is what one sub-query hands to the reducer.
type kindResult struct {
	metric  Metric
	days    map[string]*accumulator
	samples int
	err     error
}

// Aggregate queries every kind of t over [start, end] and returns one row per
// local date within the range implied by the window, sorted by date.
//
// A failing sub-query does not stop its siblings. Errors only surface, as
// OperationFailed joining every cause, when no sub-query produced samples.
func (a *Aggregator) Aggregate(ctx context.Context, t Table, start, end time.Time) ([]DayRow, error) {
	results := make(chan kindResult, len(t.Metrics))

	var g errgroup.Group
	for _, m := range t.Metrics {
		g.Go(func() error {
			results <- a.runMetric(ctx, t.DataType, m, start, end)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	var (
		collected int
		errs      []error
		perMetric []kindResult
	)
	for res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		collected += res.samples
		perMetric = append(perMetric, res)
	}

	if collected == 0 && len(errs) > 0 {
		return nil, models.NewError(models.CodeOperationFailed,
			fmt.Sprintf("no %s data could be read", t.DataType), errors.Join(errs...))
	}

	return a.reduce(perMetric, a.cal.RangeFor(start, end)), nil
}

// runMetric is one sub-query. Its accumulators are local to the goroutine.
func (a *Aggregator) runMetric(ctx context.Context, dt models.DataType, m Metric, start, end time.Time) kindResult {
	res := kindResult{metric: m}

	samples, err := healthstore.Collect(ctx, a.store, healthstore.Query{
		Kind:      m.Kind,
		Start:     start,
		End:       end,
		Ascending: true,
	}, 0)
	observability.RecordSubQuery(string(dt), string(m.Kind), err)
	if err != nil {
		a.log.Warn("composite sub-query failed", "data_type", dt, "kind", m.Kind, "error", err)
		res.err = fmt.Errorf("%s: %w", m.Kind, err)
		return res
	}

	res.samples = len(samples)
	res.days = make(map[string]*accumulator)
	for _, s := range samples {
		var v float64
		switch m.Rule {
		case RuleCount:
			if s.Category == nil || *s.Category != m.Category {
				continue
			}
			v = 1
		default:
			if s.Quantity == nil {
				continue
			}
			v = a.convert(m, s)
		}

		key := a.cal.DayKey(s.Start)
		acc, ok := res.days[key]
		if !ok {
			acc = &accumulator{}
			res.days[key] = acc
		}
		acc.add(v, s.End)
	}
	return res
}

func (a *Aggregator) convert(m Metric, s models.RawSample) float64 {
	v := *s.Quantity
	if m.Unit == "" {
		return v
	}
	converted, err := units.Convert(v, s.Unit, m.Unit)
	if err != nil {
		a.log.Debug("keeping unconverted quantity", "kind", m.Kind, "unit", s.Unit, "error", err)
		return v
	}
	return converted
}

// reduce merges the per-metric maps once every sub-query has finished.
func (a *Aggregator) reduce(perMetric []kindResult, r calendar.Range) []DayRow {
	rows := make(map[string]map[string]float64)
	for _, res := range perMetric {
		for key, acc := range res.days {
			if !r.Contains(key) || acc.n == 0 {
				continue
			}
			values, ok := rows[key]
			if !ok {
				values = make(map[string]float64)
				rows[key] = values
			}
			finalize(res.metric, acc, values)
		}
	}

	out := make([]DayRow, 0, len(rows))
	for key, values := range rows {
		if len(values) == 0 {
			continue
		}
		out = append(out, DayRow{Date: key, Values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func finalize(m Metric, acc *accumulator, values map[string]float64) {
	switch m.Rule {
	case RuleSum, RuleCount:
		values[m.Field] = m.Display.Apply(acc.sum)
	case RuleAverage:
		values[m.Field] = m.Display.Apply(acc.sum / float64(acc.n))
	case RuleLast:
		values[m.Field] = m.Display.Apply(acc.last)
	case RuleStats:
		values[m.Stats.Avg] = m.Display.Apply(acc.sum / float64(acc.n))
		values[m.Stats.Min] = m.Display.Apply(acc.min)
		values[m.Stats.Max] = m.Display.Apply(acc.max)
		values[m.Stats.Count] = float64(acc.n)
	}
}
