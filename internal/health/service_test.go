package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
)

var fixedNow = time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC)

func newService(store healthstore.Store) *Service {
	return NewService(store, Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestReadSamplesValidation(t *testing.T) {
	store := healthstore.NewMemoryStore()
	svc := newService(store)
	ctx := context.Background()

	cases := []struct {
		name string
		req  ReadRequest
		want error
	}{
		{"unknown type", ReadRequest{DataType: "glucose"}, models.ErrInvalidDataType},
		{"bad start", ReadRequest{DataType: "steps", StartDate: "2024-01-10"}, models.ErrInvalidDate},
		{"bad end", ReadRequest{DataType: "steps", EndDate: "yesterday"}, models.ErrInvalidDate},
		{"reversed", ReadRequest{
			DataType:  "steps",
			StartDate: "2024-01-02T00:00:00Z",
			EndDate:   "2024-01-01T00:00:00Z",
		}, models.ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReadSamples(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, store.QueryCount(), "validation must precede store calls")
}

func TestReadSamplesAcceptsFractionalSeconds(t *testing.T) {
	svc := newService(healthstore.NewMemoryStore())
	_, err := svc.ReadSamples(context.Background(), ReadRequest{
		DataType:  "steps",
		StartDate: "2024-01-10T00:00:00.000Z",
		EndDate:   "2024-01-11T00:00:00.123456+02:00",
	})
	assert.NoError(t, err)
}

func TestReadSamplesUnavailable(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.SetAvailable(false, "health data disabled")

	_, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "steps"})
	assert.ErrorIs(t, err, models.ErrHealthDataUnavailable)
}

func TestReadSamplesUnsupportedKind(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.Unsupport(models.KindBodyMass)

	_, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "weight"})
	assert.ErrorIs(t, err, models.ErrDataTypeUnavailable)
}

func TestReadSimpleDefaults(t *testing.T) {
	store := healthstore.NewMemoryStore()
	for i := 0; i < 150; i++ {
		at := fixedNow.Add(-time.Duration(i+1) * time.Minute)
		store.Add(models.RawSample{
			ID: "s", Kind: models.KindDistanceWalkingRunning, Start: at, End: at,
			Quantity: models.Float64(1), Unit: "km", Source: "Phone",
		})
	}
	old := fixedNow.Add(-48 * time.Hour)
	store.Add(models.RawSample{Kind: models.KindDistanceWalkingRunning, Start: old, End: old, Quantity: models.Float64(1), Unit: "m"})

	res, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "distance"})
	require.NoError(t, err)
	require.Len(t, res.Samples, DefaultLimit)

	first := res.Samples[0]
	assert.Equal(t, models.DataTypeDistance, first["dataType"])
	assert.Equal(t, "meter", first["unit"])
	assert.Equal(t, 1000.0, first["value"])
	assert.Equal(t, "2024-01-12T11:59:00.000Z", first["startDate"])
	assert.Equal(t, "Phone", first["sourceName"])
	assert.Greater(t, first["startDate"], res.Samples[1]["startDate"], "newest first by default")
}

func TestReadSimpleAscendingWithLimit(t *testing.T) {
	store := healthstore.NewMemoryStore()
	for i := 0; i < 5; i++ {
		at := fixedNow.Add(-time.Duration(i+1) * time.Hour)
		store.Add(models.RawSample{Kind: models.KindHeartRate, Start: at, End: at, Quantity: models.Float64(60 + float64(i)), Unit: "count/min"})
	}

	res, err := newService(store).ReadSamples(context.Background(), ReadRequest{
		DataType: "heartRate", Limit: intPtr(2), Ascending: boolPtr(true),
	})
	require.NoError(t, err)
	require.Len(t, res.Samples, 2)
	assert.Equal(t, 64.0, res.Samples[0]["value"])
	assert.Equal(t, 63.0, res.Samples[1]["value"])
	assert.Equal(t, "bpm", res.Samples[0]["unit"])
}

func TestReadSimpleStoreFailure(t *testing.T) {
	store := healthstore.NewMemoryStore()
	cause := errors.New("disk on fire")
	store.FailQueries(models.KindStepCount, cause)

	_, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "steps"})
	assert.ErrorIs(t, err, models.ErrOperationFailed)
	assert.ErrorIs(t, err, cause)
}

func TestReadMobilityPartialSuccess(t *testing.T) {
	store := healthstore.NewMemoryStore()
	for _, k := range models.DataTypeMobility.Kinds() {
		if k != models.KindWalkingStepLength {
			store.SetReadStatus(k, models.AuthDenied)
		}
	}
	at := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	store.Add(models.RawSample{Kind: models.KindWalkingStepLength, Start: at, End: at, Quantity: models.Float64(0.7), Unit: "m"})

	res, err := newService(store).ReadSamples(context.Background(), ReadRequest{
		DataType: "mobility", StartDate: "2024-01-10T00:00:00Z", EndDate: "2024-01-12T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)

	row := res.Samples[0]
	assert.Equal(t, "2024-01-11", row["date"])
	assert.Equal(t, "mixed", row["unit"])
	assert.Equal(t, 27.6, row["walkingStepLength"])
	assert.NotContains(t, row, "walkingSpeed")
}

func TestReadCompositeTotalFailure(t *testing.T) {
	store := healthstore.NewMemoryStore()
	for _, k := range models.DataTypeActivity.Kinds() {
		store.FailQueries(k, errors.New("denied"))
	}

	_, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "activity"})
	assert.ErrorIs(t, err, models.ErrOperationFailed)
}

func TestReadSleepRows(t *testing.T) {
	store := healthstore.NewMemoryStore()
	bed := time.Date(2024, 1, 10, 23, 40, 0, 0, time.UTC)
	store.Add(
		models.RawSample{Kind: models.KindSleepAnalysis, Start: bed, End: bed.Add(20 * time.Minute), Category: models.Int(3)},
		models.RawSample{Kind: models.KindSleepAnalysis, Start: bed.Add(20 * time.Minute), End: bed.Add(3 * time.Hour), Category: models.Int(4)},
	)

	res, err := newService(store).ReadSamples(context.Background(), ReadRequest{
		DataType: "sleep", StartDate: "2024-01-11T00:00:00Z", EndDate: "2024-01-12T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)

	row := res.Samples[0]
	assert.Equal(t, "2024-01-11", row["date"])
	assert.Equal(t, "hour", row["unit"])
	assert.Equal(t, 3.0, row["totalSleepHours"])
	assert.Equal(t, 2.7, row["deepSleep"])
	assert.Equal(t, 100, row["efficiency"])

	sessions := row["sessions"].([]map[string]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, "2024-01-10T23:40:00.000Z", sessions[0]["start"])
	segments := sessions[0]["segments"].([]map[string]any)
	assert.Equal(t, "Deep", segments[1]["stage"])
}

func TestReadWorkoutRows(t *testing.T) {
	store := healthstore.NewMemoryStore()
	start := fixedNow.Add(-3 * time.Hour)
	store.Add(models.RawSample{
		ID: "w1", Kind: models.KindWorkout, Start: start, End: start.Add(45 * time.Minute), Source: "Watch",
		Workout:  &models.WorkoutFields{ActivityType: 37, DurationSec: 2700},
		Metadata: map[string]any{"zone2Minutes": 30.0},
	})

	res, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "workout"})
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)

	row := res.Samples[0]
	assert.Equal(t, "minute", row["unit"])
	assert.Equal(t, "Running", row["activityType"])
	assert.Equal(t, 45, row["durationMinutes"])
	assert.Equal(t, map[string]int{"2": 30}, row["zoneMinutes"])
	assert.NotContains(t, row, "avgHeartRate")
	assert.NotContains(t, row, "distance")
}

func TestReadTimeout(t *testing.T) {
	store := &slowStore{MemoryStore: healthstore.NewMemoryStore()}
	svc := NewService(store, Options{QueryTimeout: 20 * time.Millisecond, Now: func() time.Time { return fixedNow }},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.ReadSamples(context.Background(), ReadRequest{DataType: "steps"})
	assert.ErrorIs(t, err, models.ErrOperationFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// slowStore blocks every query until the context ends.
type slowStore struct {
	*healthstore.MemoryStore
}

func (s *slowStore) QueryRecords(ctx context.Context, q healthstore.Query) (healthstore.Page, error) {
	<-ctx.Done()
	return healthstore.Page{}, ctx.Err()
}

func TestSaveSampleInvalidRangeBeforeWrite(t *testing.T) {
	store := healthstore.NewMemoryStore()
	err := newService(store).SaveSample(context.Background(), SaveRequest{
		DataType:  "steps",
		Value:     10,
		StartDate: "2024-01-02T00:00:00Z",
		EndDate:   "2024-01-01T00:00:00Z",
	})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)
	assert.Empty(t, store.Samples())
}

func TestSaveSampleSleepMapping(t *testing.T) {
	store := healthstore.NewMemoryStore()
	svc := newService(store)
	ctx := context.Background()

	require.NoError(t, svc.SaveSample(ctx, SaveRequest{
		DataType: "sleep", Value: 4,
		StartDate: "2024-01-10T01:00:00Z", EndDate: "2024-01-10T02:00:00Z",
	}))
	require.NoError(t, svc.SaveSample(ctx, SaveRequest{
		DataType: "sleep", Value: 9,
		StartDate: "2024-01-10T02:00:00Z", EndDate: "2024-01-10T03:00:00Z",
	}))

	saved := store.Samples()
	require.Len(t, saved, 2)

	require.NotNil(t, saved[0].Category)
	stage, ok := models.StageFromCategory(*saved[0].Category)
	assert.True(t, ok)
	assert.Equal(t, models.StageAsleepDeep, stage)

	assert.Nil(t, saved[1].Category, "out-of-table code stores no stage")
	assert.Equal(t, models.KindSleepAnalysis, saved[1].Kind)
}

func TestSaveSampleConvertsAndDefaultsDates(t *testing.T) {
	store := healthstore.NewMemoryStore()
	err := newService(store).SaveSample(context.Background(), SaveRequest{DataType: "weight", Value: 165, Unit: "lb"})
	require.NoError(t, err)

	saved := store.Samples()
	require.Len(t, saved, 1)
	assert.InDelta(t, 74.84, saved[0].Value(), 0.01)
	assert.Equal(t, "kilogram", saved[0].Unit)
	assert.Equal(t, fixedNow, saved[0].Start)
	assert.Equal(t, fixedNow, saved[0].End)
}

func TestSaveSampleRejections(t *testing.T) {
	store := healthstore.NewMemoryStore()
	svc := newService(store)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveSample(ctx, SaveRequest{DataType: "nope"}), models.ErrInvalidDataType)
	assert.ErrorIs(t, svc.SaveSample(ctx, SaveRequest{DataType: "activity", Value: 1}), models.ErrOperationFailed)
	assert.ErrorIs(t, svc.SaveSample(ctx, SaveRequest{DataType: "steps", StartDate: "01/02/2024"}), models.ErrInvalidDate)

	cause := errors.New("write rejected")
	store.FailSaves(cause)
	err := svc.SaveSample(ctx, SaveRequest{DataType: "steps", Value: 5})
	assert.ErrorIs(t, err, models.ErrOperationFailed)
	assert.ErrorIs(t, err, cause)
}

func TestSaveSampleWriteDenied(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.SetWriteStatus(models.KindStepCount, models.AuthDenied)

	err := newService(store).SaveSample(context.Background(), SaveRequest{DataType: "steps", Value: 5})
	assert.ErrorIs(t, err, models.ErrOperationFailed)
	assert.ErrorIs(t, err, healthstore.ErrNotAuthorized)
	assert.Empty(t, store.Samples())
}

func TestReadDeniedSimpleType(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.SetReadStatus(models.KindStepCount, models.AuthDenied)
	store.Add(models.RawSample{Kind: models.KindStepCount, Start: fixedNow.Add(-time.Hour), End: fixedNow, Quantity: models.Float64(10), Unit: "count"})

	_, err := newService(store).ReadSamples(context.Background(), ReadRequest{DataType: "steps"})
	assert.ErrorIs(t, err, models.ErrOperationFailed)
	assert.ErrorIs(t, err, healthstore.ErrNotAuthorized)
}

func TestAuthorizationFlow(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.SetReadStatus(models.KindBodyMass, models.AuthNotDetermined)
	store.SetReadStatus(models.KindBodyFatPercentage, models.AuthNotDetermined)
	svc := newService(store)
	ctx := context.Background()

	req := AuthorizationRequest{Read: []string{"body"}, Write: []string{"weight"}}
	before, err := svc.CheckAuthorization(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []models.DataType{models.DataTypeBody}, before.ReadDenied)

	after, err := svc.RequestAuthorization(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []models.DataType{models.DataTypeBody}, after.ReadAuthorized)
	assert.Equal(t, []models.DataType{models.DataTypeWeight}, after.WriteAuthorized)
	assert.Len(t, store.Requested(), 1)

	_, err = svc.CheckAuthorization(ctx, AuthorizationRequest{Read: []string{"bogus"}})
	assert.ErrorIs(t, err, models.ErrInvalidDataType)
}

func TestIsAvailable(t *testing.T) {
	store := healthstore.NewMemoryStore()
	svc := newService(store)

	a := svc.IsAvailable(context.Background())
	assert.True(t, a.Available)
	assert.Equal(t, "memory", a.Platform)
	assert.Empty(t, a.Reason)

	store.SetAvailable(false, "disabled by policy")
	a = svc.IsAvailable(context.Background())
	assert.False(t, a.Available)
	assert.Equal(t, "disabled by policy", a.Reason)
}
