package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/claude/healthbridge/internal/composite"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/observability"
	"github.com/claude/healthbridge/internal/sleep"
	"github.com/claude/healthbridge/internal/units"
)

// ReadRequest selects samples of one data type. Dates are ISO-8601; empty
// means the last 24 hours.
type ReadRequest struct {
	DataType  string `json:"dataType"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
	Ascending *bool  `json:"ascending,omitempty"`
}

// Row is one output record. Every row carries dataType and unit.
type Row map[string]any

// ReadResult is the answer to ReadSamples.
type ReadResult struct {
	Samples []Row `json:"samples"`
}

// ReadSamples validates req and runs the pipeline of its data type.
func (s *Service) ReadSamples(ctx context.Context, req ReadRequest) (ReadResult, error) {
	dt, err := models.ParseDataType(req.DataType)
	if err != nil {
		return ReadResult{}, err
	}

	now := s.now()
	start, err := parseDate("startDate", req.StartDate, now.Add(-DefaultWindow))
	if err != nil {
		return ReadResult{}, err
	}
	end, err := parseDate("endDate", req.EndDate, now)
	if err != nil {
		return ReadResult{}, err
	}
	if err := validateRange(start, end); err != nil {
		return ReadResult{}, err
	}
	if err := s.checkAvailable(ctx); err != nil {
		return ReadResult{}, err
	}
	if err := s.checkSupported(dt); err != nil {
		return ReadResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	began := time.Now()
	rows, err := s.dispatch(ctx, dt, start, end, req)
	observability.ObserveRead(string(dt), time.Since(began), err)
	if err != nil {
		s.log.Error("read failed", "data_type", dt, "error", err)
		return ReadResult{}, err
	}
	return ReadResult{Samples: rows}, nil
}

func (s *Service) dispatch(ctx context.Context, dt models.DataType, start, end time.Time, req ReadRequest) ([]Row, error) {
	switch {
	case dt == models.DataTypeSleep:
		return s.readSleep(ctx, start, end, limitOf(req, 0), ascendingOf(req, true))
	case dt.IsComposite():
		return s.readComposite(ctx, dt, start, end, limitOf(req, 0), ascendingOf(req, true))
	case dt == models.DataTypeWorkout:
		return s.readWorkouts(ctx, start, end, limitOf(req, 0), ascendingOf(req, false))
	default:
		return s.readSimple(ctx, dt, start, end, limitOf(req, DefaultLimit), ascendingOf(req, false))
	}
}

func limitOf(req ReadRequest, def int) int {
	if req.Limit != nil && *req.Limit > 0 {
		return *req.Limit
	}
	return def
}

func ascendingOf(req ReadRequest, def bool) bool {
	if req.Ascending != nil {
		return *req.Ascending
	}
	return def
}

func (s *Service) readSimple(ctx context.Context, dt models.DataType, start, end time.Time, limit int, ascending bool) ([]Row, error) {
	samples, err := healthstore.Collect(ctx, s.store, healthstore.Query{
		Kind:      dt.PrimaryKind(),
		Start:     start,
		End:       end,
		Ascending: ascending,
	}, limit)
	if err != nil {
		return nil, operationFailed(fmt.Sprintf("reading %s", dt), err)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if ascending {
			return samples[i].Start.Before(samples[j].Start)
		}
		return samples[i].Start.After(samples[j].Start)
	})

	rows := make([]Row, 0, len(samples))
	for _, smp := range samples {
		value := smp.Value()
		if converted, err := units.ToCanonical(value, smp.Unit, dt); err == nil {
			value = converted
		} else {
			s.log.Warn("keeping unconverted value", "data_type", dt, "unit", smp.Unit, "error", err)
		}
		rows = append(rows, simpleRow(dt, smp, value))
	}
	return rows, nil
}

func (s *Service) readSleep(ctx context.Context, start, end time.Time, limit int, ascending bool) ([]Row, error) {
	samples, err := healthstore.Collect(ctx, s.store, healthstore.Query{
		Kind:      models.KindSleepAnalysis,
		Start:     start.Add(-sleepLookback),
		End:       end,
		Ascending: true,
	}, 0)
	if err != nil {
		return nil, operationFailed("reading sleep", err)
	}

	days := sleep.Reconstruct(samples, s.cal, s.cal.RangeFor(start, end))
	rows := make([]Row, 0, len(days))
	for _, d := range days {
		rows = append(rows, sleepRow(d))
	}
	return orderByDate(rows, limit, ascending), nil
}

func (s *Service) readComposite(ctx context.Context, dt models.DataType, start, end time.Time, limit int, ascending bool) ([]Row, error) {
	table, ok := composite.TableFor(dt)
	if !ok {
		return nil, models.NewError(models.CodeInvalidDataType, fmt.Sprintf("%s is not a composite type", dt), nil)
	}
	table = s.supportedMetrics(table)

	days, err := s.composite.Aggregate(ctx, table, start, end)
	if err != nil {
		return nil, operationFailed(fmt.Sprintf("reading %s", dt), err)
	}
	rows := make([]Row, 0, len(days))
	for _, d := range days {
		rows = append(rows, compositeRow(dt, d))
	}
	return orderByDate(rows, limit, ascending), nil
}

// supportedMetrics drops metrics whose kind the store does not offer.
func (s *Service) supportedMetrics(t composite.Table) composite.Table {
	out := composite.Table{DataType: t.DataType}
	for _, m := range t.Metrics {
		if s.store.Supports(m.Kind) {
			out.Metrics = append(out.Metrics, m)
		}
	}
	return out
}

func (s *Service) readWorkouts(ctx context.Context, start, end time.Time, limit int, ascending bool) ([]Row, error) {
	records, err := s.workouts.Workouts(ctx, start, end, limit, ascending)
	if err != nil {
		return nil, operationFailed("reading workouts", err)
	}
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, workoutRow(r))
	}
	return rows, nil
}

// orderByDate sorts rows by their date key and applies limit.
func orderByDate(rows []Row, limit int, ascending bool) []Row {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i]["date"].(string), rows[j]["date"].(string)
		if ascending {
			return a < b
		}
		return a > b
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
