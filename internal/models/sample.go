package models

import "time"

// RawSample is one record as returned by the health store.
type RawSample struct {
	ID       string
	Kind     NativeKind
	Start    time.Time
	End      time.Time
	Quantity *float64
	Unit     string
	Category *int
	Source   string
	Metadata map[string]any
	Workout  *WorkoutFields
}

// WorkoutFields carries the workout-specific columns of a workout sample.
type WorkoutFields struct {
	ActivityType   int
	DurationSec    float64
	DistanceMeters *float64
	EnergyKcal     *float64
}

// Value returns the quantity, or 0 when the sample is categorical.
func (s RawSample) Value() float64 {
	if s.Quantity == nil {
		return 0
	}
	return *s.Quantity
}

// AuthStatus is the store's answer to an authorization probe.
type AuthStatus string

const (
	AuthAuthorized    AuthStatus = "authorized"
	AuthDenied        AuthStatus = "denied"
	AuthNotDetermined AuthStatus = "notDetermined"
	AuthUnknown       AuthStatus = "unknown"
)

// AuthorizationOutcome partitions the requested types by read and write status.
type AuthorizationOutcome struct {
	ReadAuthorized  []DataType `json:"readAuthorized"`
	ReadDenied      []DataType `json:"readDenied"`
	WriteAuthorized []DataType `json:"writeAuthorized"`
	WriteDenied     []DataType `json:"writeDenied"`
}

// Availability reports whether the health store can be used.
type Availability struct {
	Available bool   `json:"available"`
	Platform  string `json:"platform"`
	Reason    string `json:"reason,omitempty"`
}

// TimeLayout is the ISO-8601 layout used for every date in output rows.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
