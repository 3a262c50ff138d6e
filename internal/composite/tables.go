package composite

import (
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/units"
)

// Rule combines the samples of one metric that fall on the same day.
type Rule int

const (
	// RuleSum adds quantities.
	RuleSum Rule = iota
	// RuleAverage takes the mean of quantities.
	RuleAverage
	// RuleLast keeps the quantity of the latest sample.
	RuleLast
	// RuleCount counts category samples equal to Metric.Category.
	RuleCount
	// RuleStats emits average, minimum, maximum and count.
	RuleStats
)

func (r Rule) String() string {
	switch r {
	case RuleSum:
		return "sum"
	case RuleAverage:
		return "average"
	case RuleLast:
		return "last"
	case RuleCount:
		return "count"
	case RuleStats:
		return "stats"
	}
	return "unknown"
}

// StatsFields names the output fields of a RuleStats metric.
type StatsFields struct {
	Avg   string
	Min   string
	Max   string
	Count string
}

// Metric is one row of a composite table: which kind feeds which field and
// how its samples combine.
type Metric struct {
	Kind  models.NativeKind
	Rule  Rule
	Field string

	// Unit is the unit quantities are converted to before Display is
	// applied. Empty leaves quantities as stored.
	Unit    string
	Display units.Display

	// Category is the value counted by RuleCount.
	Category int
	Stats    StatsFields
}

// Table declares the metrics of one composite data type.
type Table struct {
	DataType models.DataType
	Metrics  []Metric
}

// Category value of an hour in which the user stood.
const standHourStood = 0

var Activity = Table{
	DataType: models.DataTypeActivity,
	Metrics: []Metric{
		{Kind: models.KindStepCount, Rule: RuleSum, Field: "steps", Unit: "count"},
		{Kind: models.KindDistanceWalkingRunning, Rule: RuleSum, Field: "distance", Unit: "m",
			Display: units.Display{Factor: units.MetersToMiles, Decimals: 2}},
		{Kind: models.KindFlightsClimbed, Rule: RuleSum, Field: "flightsClimbed", Unit: "count"},
		{Kind: models.KindActiveEnergyBurned, Rule: RuleSum, Field: "activeEnergy", Unit: "kcal"},
		{Kind: models.KindExerciseTime, Rule: RuleSum, Field: "exerciseMinutes", Unit: "min"},
		{Kind: models.KindStandHour, Rule: RuleCount, Field: "standHours", Category: standHourStood},
	},
}

var Heart = Table{
	DataType: models.DataTypeHeart,
	Metrics: []Metric{
		{Kind: models.KindHeartRate, Rule: RuleStats, Unit: "bpm", Stats: StatsFields{
			Avg: "avgHeartRate", Min: "minHeartRate", Max: "maxHeartRate", Count: "heartRateCount",
		}},
		{Kind: models.KindRestingHeartRate, Rule: RuleLast, Field: "restingHeartRate", Unit: "bpm"},
		{Kind: models.KindVO2Max, Rule: RuleLast, Field: "vo2Max", Display: units.Display{Decimals: 1}},
		{Kind: models.KindHeartRateVariability, Rule: RuleLast, Field: "hrv", Unit: "ms"},
		{Kind: models.KindOxygenSaturation, Rule: RuleAverage, Field: "spo2", Unit: "fraction",
			Display: units.Display{Factor: units.FractionToPercentage, Decimals: 1}},
		{Kind: models.KindRespiratoryRate, Rule: RuleAverage, Field: "respirationRate", Display: units.Display{Decimals: 1}},
	},
}

var Body = Table{
	DataType: models.DataTypeBody,
	Metrics: []Metric{
		{Kind: models.KindBodyMass, Rule: RuleLast, Field: "weight", Unit: "kg",
			Display: units.Display{Factor: units.KilogramsToPounds, Decimals: 1}},
		{Kind: models.KindBodyFatPercentage, Rule: RuleLast, Field: "bodyFat", Unit: "fraction",
			Display: units.Display{Factor: units.FractionToPercentage, Decimals: 1}},
	},
}

var Mobility = Table{
	DataType: models.DataTypeMobility,
	Metrics: []Metric{
		{Kind: models.KindWalkingSpeed, Rule: RuleAverage, Field: "walkingSpeed", Unit: "m/s",
			Display: units.Display{Factor: units.MetersPerSecToMPH, Decimals: 2}},
		{Kind: models.KindWalkingStepLength, Rule: RuleAverage, Field: "walkingStepLength", Unit: "m",
			Display: units.Display{Factor: units.MetersToInches, Decimals: 1}},
		{Kind: models.KindWalkingAsymmetry, Rule: RuleAverage, Field: "walkingAsymmetry", Unit: "fraction",
			Display: units.Display{Factor: units.FractionToPercentage, Decimals: 1}},
		{Kind: models.KindWalkingDoubleSupport, Rule: RuleAverage, Field: "walkingDoubleSupportTime", Unit: "fraction",
			Display: units.Display{Factor: units.FractionToPercentage, Decimals: 1}},
		{Kind: models.KindStairAscentSpeed, Rule: RuleAverage, Field: "stairSpeed", Unit: "m/s",
			Display: units.Display{Factor: units.MetersToFeet, Decimals: 2}},
		{Kind: models.KindSixMinuteWalkDistance, Rule: RuleAverage, Field: "sixMinuteWalkDistance", Unit: "m",
			Display: units.Display{Factor: units.MetersToYards, Decimals: 1}},
	},
}

var tables = map[models.DataType]Table{
	models.DataTypeActivity: Activity,
	models.DataTypeHeart:    Heart,
	models.DataTypeBody:     Body,
	models.DataTypeMobility: Mobility,
}

// TableFor returns the table of a composite type.
func TableFor(dt models.DataType) (Table, bool) {
	t, ok := tables[dt]
	return t, ok
}
