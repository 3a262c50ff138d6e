package health

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/observability"
	"github.com/claude/healthbridge/internal/units"
)

// SaveRequest writes one sample. Value is in Unit, or the canonical unit of
// the data type when Unit is empty. For sleep, Value is the stage code.
type SaveRequest struct {
	DataType  string         `json:"dataType"`
	Value     float64        `json:"value"`
	Unit      string         `json:"unit,omitempty"`
	StartDate string         `json:"startDate,omitempty"`
	EndDate   string         `json:"endDate,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SaveSample validates req and writes it to the store. Validation always
// completes before the store is touched.
func (s *Service) SaveSample(ctx context.Context, req SaveRequest) error {
	dt, err := models.ParseDataType(req.DataType)
	if err != nil {
		return err
	}
	if !dt.Writable() {
		return models.NewError(models.CodeOperationFailed, fmt.Sprintf("data type %s cannot be written", dt), nil)
	}

	start, err := parseDate("startDate", req.StartDate, s.now())
	if err != nil {
		return err
	}
	end, err := parseDate("endDate", req.EndDate, start)
	if err != nil {
		return err
	}
	if err := validateRange(start, end); err != nil {
		return err
	}

	sample, err := buildSample(dt, req, start)
	if err != nil {
		return err
	}
	sample.End = end

	if err := s.checkAvailable(ctx); err != nil {
		return err
	}
	if err := s.checkSupported(dt); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.store.Save(ctx, sample)
	observability.RecordSave(string(dt), err)
	if err != nil {
		s.log.Error("save failed", "data_type", dt, "error", err)
		return models.NewError(models.CodeOperationFailed, fmt.Sprintf("saving %s", dt), err)
	}
	s.log.Debug("sample saved", "data_type", dt, "start", sample.Start)
	return nil
}

func buildSample(dt models.DataType, req SaveRequest, start time.Time) (models.RawSample, error) {
	sample := models.RawSample{
		Kind:     dt.PrimaryKind(),
		Start:    start,
		Source:   writeSource,
		Metadata: req.Metadata,
	}

	if dt == models.DataTypeSleep {
		// Codes outside the stage table store a bare interval.
		if code := req.Value; code == math.Trunc(code) {
			if _, ok := models.StageFromCategory(int(code)); ok {
				sample.Category = models.Int(int(code))
			}
		}
		return sample, nil
	}

	value, err := units.ToCanonical(req.Value, req.Unit, dt)
	if err != nil {
		return models.RawSample{}, models.NewError(models.CodeOperationFailed,
			fmt.Sprintf("converting %s value", dt), err)
	}
	sample.Quantity = &value
	sample.Unit = dt.Unit()
	return sample, nil
}
