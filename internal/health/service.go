// Package health is the entry point of the read and write pipelines. It
// validates requests, dispatches each data type to its pipeline and shapes
// the results into rows.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/healthbridge/internal/authz"
	"github.com/claude/healthbridge/internal/calendar"
	"github.com/claude/healthbridge/internal/composite"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/workout"
)

const (
	// DefaultQueryTimeout bounds one read or write against the store.
	DefaultQueryTimeout = 30 * time.Second

	// DefaultLimit caps simple reads when the caller gives no limit.
	DefaultLimit = 100

	// DefaultWindow is the read window when no start date is given.
	DefaultWindow = 24 * time.Hour

	// sleepLookback widens sleep queries so sessions that began before the
	// window but end inside it are read whole.
	sleepLookback = 12 * time.Hour

	// writeSource is the source name stamped on samples saved through the API.
	writeSource = "HealthBridge"
)

// Options configures a Service.
type Options struct {
	// Location is the local calendar used for day keys. Nil means time.Local.
	Location           *time.Location
	QueryTimeout       time.Duration
	WorkoutConcurrency int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service implements the public health data operations.
type Service struct {
	store     healthstore.Store
	cal       *calendar.Calendar
	composite *composite.Aggregator
	workouts  *workout.Enricher
	authz     *authz.Evaluator
	log       *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewService wires the pipelines around store.
func NewService(store healthstore.Store, opts Options, log *slog.Logger) *Service {
	cal := calendar.New(opts.Location)
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		cal:       cal,
		composite: composite.NewAggregator(store, cal, log),
		workouts:  workout.NewEnricher(store, opts.WorkoutConcurrency, log),
		authz:     authz.NewEvaluator(store, log),
		log:       log,
		timeout:   timeout,
		now:       now,
	}
}

// IsAvailable reports whether the store can be used.
func (s *Service) IsAvailable(ctx context.Context) models.Availability {
	ok, reason := s.store.Available(ctx)
	a := models.Availability{Available: ok, Platform: s.store.Platform()}
	if !ok {
		a.Reason = reason
	}
	return a
}

// AuthorizationRequest lists the data types to read and write.
type AuthorizationRequest struct {
	Read  []string `json:"read"`
	Write []string `json:"write"`
}

// RequestAuthorization asks the store to grant access to every kind behind
// the requested types, then reports the resulting status.
func (s *Service) RequestAuthorization(ctx context.Context, req AuthorizationRequest) (models.AuthorizationOutcome, error) {
	read, write, err := s.prepareAuthorization(ctx, req)
	if err != nil {
		return models.AuthorizationOutcome{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.RequestAuthorization(ctx, models.KindsFor(read), models.KindsFor(write)); err != nil {
		return models.AuthorizationOutcome{}, models.NewError(models.CodeOperationFailed, "requesting authorization", err)
	}
	return s.authz.Evaluate(ctx, read, write), nil
}

// CheckAuthorization reports the current status without prompting.
func (s *Service) CheckAuthorization(ctx context.Context, req AuthorizationRequest) (models.AuthorizationOutcome, error) {
	read, write, err := s.prepareAuthorization(ctx, req)
	if err != nil {
		return models.AuthorizationOutcome{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.authz.Evaluate(ctx, read, write), nil
}

func (s *Service) prepareAuthorization(ctx context.Context, req AuthorizationRequest) (read, write []models.DataType, err error) {
	if read, err = parseTypes(req.Read); err != nil {
		return nil, nil, err
	}
	if write, err = parseTypes(req.Write); err != nil {
		return nil, nil, err
	}
	if err := s.checkAvailable(ctx); err != nil {
		return nil, nil, err
	}
	return read, write, nil
}

func parseTypes(names []string) ([]models.DataType, error) {
	out := make([]models.DataType, 0, len(names))
	for _, n := range names {
		dt, err := models.ParseDataType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}

func (s *Service) checkAvailable(ctx context.Context) error {
	if ok, reason := s.store.Available(ctx); !ok {
		if reason == "" {
			reason = "health data is not available"
		}
		return models.NewError(models.CodeHealthDataUnavailable, reason, nil)
	}
	return nil
}

// checkSupported fails with DataTypeUnavailable when the store offers none
// of the kinds behind dt.
func (s *Service) checkSupported(dt models.DataType) error {
	for _, k := range dt.Kinds() {
		if s.store.Supports(k) {
			return nil
		}
	}
	return models.NewError(models.CodeDataTypeUnavailable,
		fmt.Sprintf("data type %s is not available on %s", dt, s.store.Platform()), nil)
}

// parseDate parses an ISO-8601 timestamp with optional fractional seconds.
// An empty string yields def.
func parseDate(field, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, models.NewError(models.CodeInvalidDate,
			fmt.Sprintf("invalid %s %q", field, value), err)
	}
	return t, nil
}

func validateRange(start, end time.Time) error {
	if end.Before(start) {
		return models.NewError(models.CodeInvalidDateRange,
			fmt.Sprintf("endDate %s is before startDate %s", models.FormatTime(end), models.FormatTime(start)), nil)
	}
	return nil
}

// operationFailed keeps categorized errors and wraps anything else,
// including context deadlines, as OperationFailed.
func operationFailed(msg string, err error) error {
	var e *models.Error
	if errors.As(err, &e) {
		return err
	}
	return models.NewError(models.CodeOperationFailed, msg, err)
}
