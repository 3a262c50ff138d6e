package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/storage"
)

const testKey = "test-key"

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(store *healthstore.MemoryStore, settings KindSettings) *Server {
	svc := health.NewService(store, health.Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}, discardLogger())
	return New(svc, settings, testKey, discardLogger())
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func stepsAt(minutesAgo int, count float64) models.RawSample {
	at := fixedNow.Add(-time.Duration(minutesAgo) * time.Minute)
	return models.RawSample{
		Kind: models.KindStepCount, Start: at, End: at.Add(time.Minute),
		Quantity: models.Float64(count), Unit: "count", Source: "Watch",
	}
}

// TestAvailability verifies the availability endpoint reports the store platform.
func TestAvailability(t *testing.T) {
	rec := do(t, newTestServer(healthstore.NewMemoryStore(), nil), http.MethodGet, "/api/v1/availability", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.Availability
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Available || got.Platform != "memory" {
		t.Errorf("availability = %+v", got)
	}
}

// TestQuerySamplesPost verifies a JSON query returns normalized rows.
func TestQuerySamplesPost(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.Add(stepsAt(30, 120), stepsAt(90, 80))

	rec := do(t, newTestServer(store, nil), http.MethodPost, "/api/v1/samples/query",
		`{"dataType":"steps","ascending":true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var res struct {
		Samples []map[string]any `json:"samples"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(res.Samples))
	}
	if res.Samples[0]["value"] != 80.0 {
		t.Errorf("first value = %v, want 80 (ascending)", res.Samples[0]["value"])
	}
	if res.Samples[0]["unit"] != "count" || res.Samples[0]["dataType"] != "steps" {
		t.Errorf("row = %v", res.Samples[0])
	}
}

// TestQuerySamplesGet verifies query parameters map onto the read request.
func TestQuerySamplesGet(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.Add(stepsAt(10, 1), stepsAt(20, 2), stepsAt(30, 3))

	rec := do(t, newTestServer(store, nil), http.MethodGet, "/api/v1/samples?dataType=steps&limit=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var res struct {
		Samples []map[string]any `json:"samples"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(res.Samples))
	}
	if res.Samples[0]["value"] != 1.0 {
		t.Errorf("first value = %v, want newest first", res.Samples[0]["value"])
	}
}

// TestQuerySamplesEmptyIsArray verifies an empty result encodes as [] not null.
func TestQuerySamplesEmptyIsArray(t *testing.T) {
	rec := do(t, newTestServer(healthstore.NewMemoryStore(), nil), http.MethodGet, "/api/v1/samples?dataType=weight", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"samples":[]`) {
		t.Errorf("body = %s", rec.Body)
	}
}

// TestQuerySamplesBadParameters verifies malformed query parameters are rejected.
func TestQuerySamplesBadParameters(t *testing.T) {
	s := newTestServer(healthstore.NewMemoryStore(), nil)
	for _, path := range []string{
		"/api/v1/samples?dataType=steps&limit=abc",
		"/api/v1/samples?dataType=steps&limit=-1",
		"/api/v1/samples?dataType=steps&ascending=maybe",
	} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		if body := decodeError(t, rec); body.Code != codeBadRequest {
			t.Errorf("%s: code = %q", path, body.Code)
		}
	}

	rec := do(t, s, http.MethodPost, "/api/v1/samples/query", `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d, want 400", rec.Code)
	}
}

// TestErrorStatusMapping verifies each error code surfaces with its HTTP status.
func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*healthstore.MemoryStore)
		body   string
		status int
		code   models.ErrorCode
	}{
		{
			name:   "invalid data type",
			body:   `{"dataType":"bloodGlucose"}`,
			status: http.StatusBadRequest,
			code:   models.CodeInvalidDataType,
		},
		{
			name:   "invalid date",
			body:   `{"dataType":"steps","startDate":"yesterday"}`,
			status: http.StatusBadRequest,
			code:   models.CodeInvalidDate,
		},
		{
			name:   "inverted range",
			body:   `{"dataType":"steps","startDate":"2024-03-10T00:00:00Z","endDate":"2024-03-09T00:00:00Z"}`,
			status: http.StatusBadRequest,
			code:   models.CodeInvalidDateRange,
		},
		{
			name:   "kind unsupported",
			setup:  func(m *healthstore.MemoryStore) { m.Unsupport(models.KindBodyMass) },
			body:   `{"dataType":"weight"}`,
			status: http.StatusNotFound,
			code:   models.CodeDataTypeUnavailable,
		},
		{
			name:   "store unavailable",
			setup:  func(m *healthstore.MemoryStore) { m.SetAvailable(false, "restricted") },
			body:   `{"dataType":"steps"}`,
			status: http.StatusServiceUnavailable,
			code:   models.CodeHealthDataUnavailable,
		},
		{
			name: "composite total failure",
			setup: func(m *healthstore.MemoryStore) {
				m.FailQueries(models.KindBodyMass, errors.New("boom"))
				m.FailQueries(models.KindBodyFatPercentage, errors.New("boom"))
			},
			body:   `{"dataType":"body"}`,
			status: http.StatusBadGateway,
			code:   models.CodeOperationFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := healthstore.NewMemoryStore()
			if tc.setup != nil {
				tc.setup(store)
			}
			rec := do(t, newTestServer(store, nil), http.MethodPost, "/api/v1/samples/query", tc.body, nil)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.status, rec.Body)
			}
			if body := decodeError(t, rec); body.Code != string(tc.code) {
				t.Errorf("code = %q, want %q", body.Code, tc.code)
			}
		})
	}
}

// TestSaveSampleRequiresAPIKey verifies write endpoints reject callers without a key.
func TestSaveSampleRequiresAPIKey(t *testing.T) {
	store := healthstore.NewMemoryStore()
	s := newTestServer(store, nil)
	body := `{"dataType":"steps","value":250}`

	if rec := do(t, s, http.MethodPost, "/api/v1/samples", body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/samples", body, map[string]string{"X-API-Key": "wrong"}); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}
	if len(store.Samples()) != 0 {
		t.Fatal("rejected requests must not write")
	}
}

// TestSaveSample verifies an authenticated write lands in the store.
func TestSaveSample(t *testing.T) {
	store := healthstore.NewMemoryStore()
	rec := do(t, newTestServer(store, nil), http.MethodPost, "/api/v1/samples",
		`{"dataType":"distance","value":2,"unit":"km","startDate":"2024-03-10T08:00:00Z","endDate":"2024-03-10T08:30:00Z"}`,
		map[string]string{"X-API-Key": testKey})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body)
	}

	saved := store.Samples()
	if len(saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(saved))
	}
	if saved[0].Kind != models.KindDistanceWalkingRunning || saved[0].Value() != 2000 {
		t.Errorf("saved = %+v", saved[0])
	}
}

// TestSaveSampleNotWritable verifies read-only types fail as OperationFailed.
func TestSaveSampleNotWritable(t *testing.T) {
	rec := do(t, newTestServer(healthstore.NewMemoryStore(), nil), http.MethodPost, "/api/v1/samples",
		`{"dataType":"workout","value":1}`, map[string]string{"X-API-Key": testKey})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

// TestAuthorizationEndpoints verifies check and request return an outcome.
func TestAuthorizationEndpoints(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.SetReadStatus(models.KindStepCount, models.AuthNotDetermined)
	s := newTestServer(store, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/authorization/check", `{"read":["steps"],"write":[]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check: status = %d, want 200", rec.Code)
	}
	var outcome models.AuthorizationOutcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatal(err)
	}
	if len(outcome.ReadDenied) != 1 {
		t.Errorf("check outcome = %+v, want steps denied", outcome)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/authorization/request", `{"read":["steps"],"write":[]}`,
		map[string]string{"X-API-Key": testKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("request: status = %d, want 200", rec.Code)
	}
	outcome = models.AuthorizationOutcome{}
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatal(err)
	}
	if len(outcome.ReadAuthorized) != 1 || outcome.ReadAuthorized[0] != models.DataTypeSteps {
		t.Errorf("request outcome = %+v, want steps authorized", outcome)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/authorization/check", `{"read":["glucose"]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type: status = %d, want 400", rec.Code)
	}
}

// TestMetricsEndpoint verifies the Prometheus handler is mounted.
func TestMetricsEndpoint(t *testing.T) {
	store := healthstore.NewMemoryStore()
	store.Add(stepsAt(5, 10))
	s := newTestServer(store, nil)
	do(t, s, http.MethodGet, "/api/v1/samples?dataType=steps", "", nil)

	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthbridge_read_duration_seconds") {
		t.Error("read duration histogram missing from /metrics")
	}
}

type fakeSettings struct {
	rows    []storage.KindSetting
	updated []storage.KindSetting
}

func (f *fakeSettings) GetKindSettings(ctx context.Context) ([]storage.KindSetting, error) {
	return f.rows, nil
}

func (f *fakeSettings) SetKindSetting(ctx context.Context, s storage.KindSetting) error {
	f.updated = append(f.updated, s)
	return nil
}

// TestKindSettings verifies listing and updating per-kind settings.
func TestKindSettings(t *testing.T) {
	if rec := do(t, newTestServer(healthstore.NewMemoryStore(), nil), http.MethodGet, "/api/v1/settings/kinds", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("no settings: status = %d, want 404", rec.Code)
	}

	fs := &fakeSettings{rows: []storage.KindSetting{{
		Kind: models.KindStepCount, Enabled: true,
		ReadStatus: models.AuthAuthorized, WriteStatus: models.AuthDenied,
	}}}
	s := newTestServer(healthstore.NewMemoryStore(), fs)
	key := map[string]string{"X-API-Key": testKey}

	rec := do(t, s, http.MethodGet, "/api/v1/settings/kinds", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", rec.Code)
	}
	var rows []storage.KindSetting
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].WriteStatus != models.AuthDenied {
		t.Errorf("rows = %+v", rows)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/settings/kinds/bodyMass", `{"enabled":false,"read_status":"denied"}`, key)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if len(fs.updated) != 1 {
		t.Fatalf("updates = %d, want 1", len(fs.updated))
	}
	got := fs.updated[0]
	if got.Kind != models.KindBodyMass || got.Enabled || got.ReadStatus != models.AuthDenied || got.WriteStatus != models.AuthNotDetermined {
		t.Errorf("update = %+v", got)
	}

	if rec := do(t, s, http.MethodPut, "/api/v1/settings/kinds/bloodGlucose", `{}`, key); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/api/v1/settings/kinds/bodyMass", `{"read_status":"maybe"}`, key); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/api/v1/settings/kinds/bodyMass", `{}`, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
}

// TestStatusFor verifies the error code to HTTP status table.
func TestStatusFor(t *testing.T) {
	cases := map[models.ErrorCode]int{
		models.CodeInvalidDataType:       http.StatusBadRequest,
		models.CodeInvalidDate:           http.StatusBadRequest,
		models.CodeInvalidDateRange:      http.StatusBadRequest,
		models.CodeDataTypeUnavailable:   http.StatusNotFound,
		models.CodeHealthDataUnavailable: http.StatusServiceUnavailable,
		models.CodeOperationFailed:       http.StatusBadGateway,
	}
	for code, want := range cases {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
