package models

import "fmt"

// DataType is a caller-facing logical health data type.
type DataType string

const (
	DataTypeSteps     DataType = "steps"
	DataTypeDistance  DataType = "distance"
	DataTypeCalories  DataType = "calories"
	DataTypeHeartRate DataType = "heartRate"
	DataTypeWeight    DataType = "weight"
	DataTypeSleep     DataType = "sleep"
	DataTypeMobility  DataType = "mobility"
	DataTypeActivity  DataType = "activity"
	DataTypeHeart     DataType = "heart"
	DataTypeBody      DataType = "body"
	DataTypeWorkout   DataType = "workout"
)

// Canonical unit strings reported on every output row.
const (
	UnitCount       = "count"
	UnitMeter       = "meter"
	UnitKilocalorie = "kilocalorie"
	UnitBPM         = "bpm"
	UnitKilogram    = "kilogram"
	UnitHour        = "hour"
	UnitMinute      = "minute"
	UnitMixed       = "mixed"
)

// NativeKind identifies an underlying record type in the health store.
type NativeKind string

const (
	KindStepCount              NativeKind = "stepCount"
	KindDistanceWalkingRunning NativeKind = "distanceWalkingRunning"
	KindFlightsClimbed         NativeKind = "flightsClimbed"
	KindActiveEnergyBurned     NativeKind = "activeEnergyBurned"
	KindExerciseTime           NativeKind = "appleExerciseTime"
	KindStandHour              NativeKind = "appleStandHour"
	KindHeartRate              NativeKind = "heartRate"
	KindRestingHeartRate       NativeKind = "restingHeartRate"
	KindVO2Max                 NativeKind = "vo2Max"
	KindHeartRateVariability   NativeKind = "heartRateVariabilitySDNN"
	KindOxygenSaturation       NativeKind = "oxygenSaturation"
	KindRespiratoryRate        NativeKind = "respiratoryRate"
	KindBodyMass               NativeKind = "bodyMass"
	KindBodyFatPercentage      NativeKind = "bodyFatPercentage"
	KindWalkingSpeed           NativeKind = "walkingSpeed"
	KindWalkingStepLength      NativeKind = "walkingStepLength"
	KindWalkingAsymmetry       NativeKind = "walkingAsymmetryPercentage"
	KindWalkingDoubleSupport   NativeKind = "walkingDoubleSupportPercentage"
	KindStairAscentSpeed       NativeKind = "stairAscentSpeed"
	KindSixMinuteWalkDistance  NativeKind = "sixMinuteWalkTestDistance"
	KindSleepAnalysis          NativeKind = "sleepAnalysis"
	KindWorkout                NativeKind = "workout"
)

// typeInfo describes how a logical type maps onto the store.
type typeInfo struct {
	unit     string
	kinds    []NativeKind
	writable bool
}

var dataTypes = map[DataType]typeInfo{
	DataTypeSteps:     {unit: UnitCount, kinds: []NativeKind{KindStepCount}, writable: true},
	DataTypeDistance:  {unit: UnitMeter, kinds: []NativeKind{KindDistanceWalkingRunning}, writable: true},
	DataTypeCalories:  {unit: UnitKilocalorie, kinds: []NativeKind{KindActiveEnergyBurned}, writable: true},
	DataTypeHeartRate: {unit: UnitBPM, kinds: []NativeKind{KindHeartRate}, writable: true},
	DataTypeWeight:    {unit: UnitKilogram, kinds: []NativeKind{KindBodyMass}, writable: true},
	DataTypeSleep:     {unit: UnitHour, kinds: []NativeKind{KindSleepAnalysis}, writable: true},
	DataTypeWorkout:   {unit: UnitMinute, kinds: []NativeKind{KindWorkout}},
	DataTypeActivity: {unit: UnitMixed, kinds: []NativeKind{
		KindStepCount, KindDistanceWalkingRunning, KindFlightsClimbed,
		KindActiveEnergyBurned, KindExerciseTime, KindStandHour,
	}},
	DataTypeHeart: {unit: UnitMixed, kinds: []NativeKind{
		KindHeartRate, KindRestingHeartRate, KindVO2Max,
		KindHeartRateVariability, KindOxygenSaturation, KindRespiratoryRate,
	}},
	DataTypeBody: {unit: UnitMixed, kinds: []NativeKind{KindBodyMass, KindBodyFatPercentage}},
	DataTypeMobility: {unit: UnitMixed, kinds: []NativeKind{
		KindWalkingSpeed, KindWalkingStepLength, KindWalkingAsymmetry,
		KindWalkingDoubleSupport, KindStairAscentSpeed, KindSixMinuteWalkDistance,
	}},
}

// AllDataTypes lists every logical type in a stable order.
var AllDataTypes = []DataType{
	DataTypeSteps, DataTypeDistance, DataTypeCalories, DataTypeHeartRate,
	DataTypeWeight, DataTypeSleep, DataTypeMobility, DataTypeActivity,
	DataTypeHeart, DataTypeBody, DataTypeWorkout,
}

// ParseDataType validates a caller-supplied identifier.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if _, ok := dataTypes[dt]; !ok {
		return "", NewError(CodeInvalidDataType, fmt.Sprintf("unsupported data type %q", s), nil)
	}
	return dt, nil
}

// Unit returns the canonical unit string for the type.
func (d DataType) Unit() string {
	return dataTypes[d].unit
}

// Kinds returns the native record kinds backing the type.
func (d DataType) Kinds() []NativeKind {
	return dataTypes[d].kinds
}

// PrimaryKind is the representative kind used for single-kind reads,
// writes and authorization of non-policy types.
func (d DataType) PrimaryKind() NativeKind {
	kinds := dataTypes[d].kinds
	if len(kinds) == 0 {
		return ""
	}
	return kinds[0]
}

// IsComposite reports whether the type aggregates several kinds into day rows.
func (d DataType) IsComposite() bool {
	switch d {
	case DataTypeActivity, DataTypeHeart, DataTypeBody, DataTypeMobility:
		return true
	}
	return false
}

// Writable reports whether SaveSample accepts the type.
func (d DataType) Writable() bool {
	return dataTypes[d].writable
}

// KindsFor flattens the native kinds of the given types, without duplicates.
func KindsFor(types []DataType) []NativeKind {
	seen := make(map[NativeKind]bool)
	var out []NativeKind
	for _, dt := range types {
		for _, k := range dt.Kinds() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
