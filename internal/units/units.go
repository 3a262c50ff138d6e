// Package units converts store quantities into the canonical unit of each
// logical data type and applies the rounding policy used in output rows.
package units

import (
	"fmt"
	"math"
	"strings"

	"github.com/claude/healthbridge/internal/models"
)

// Display factors applied by the composite tables.
const (
	MetersToMiles        = 0.000621371
	KilogramsToPounds    = 2.20462
	MetersPerSecToMPH    = 2.23694
	MetersToInches       = 39.3701
	MetersToFeet         = 3.28084
	MetersToYards        = 1.09361
	FractionToPercentage = 100
)

// dimension groups units that convert into one another.
type dimension int

const (
	dimCount dimension = iota
	dimLength
	dimEnergy
	dimFrequency
	dimMass
	dimTime
	dimSpeed
	dimFraction
)

type unitDef struct {
	dim    dimension
	factor float64 // multiply to reach the dimension's base unit
}

// Base units: count, meter, kilocalorie, bpm, kilogram, second, m/s and
// fraction. Keys are lower case.
var unitTable = map[string]unitDef{
	"count": {dimCount, 1},
	"":      {dimCount, 1},

	"m":          {dimLength, 1},
	"meter":      {dimLength, 1},
	"meters":     {dimLength, 1},
	"cm":         {dimLength, 0.01},
	"km":         {dimLength, 1000},
	"kilometer":  {dimLength, 1000},
	"kilometers": {dimLength, 1000},
	"ft":         {dimLength, 0.3048},
	"foot":       {dimLength, 0.3048},
	"feet":       {dimLength, 0.3048},
	"yd":         {dimLength, 0.9144},
	"mi":         {dimLength, 1609.344},
	"mile":       {dimLength, 1609.344},
	"miles":      {dimLength, 1609.344},

	"kcal":        {dimEnergy, 1},
	"kilocalorie": {dimEnergy, 1},
	"kj":          {dimEnergy, 1 / 4.184},
	"kilojoule":   {dimEnergy, 1 / 4.184},

	"bpm":       {dimFrequency, 1},
	"count/min": {dimFrequency, 1},
	"count/s":   {dimFrequency, 60},
	"hz":        {dimFrequency, 60},

	"kg":       {dimMass, 1},
	"kilogram": {dimMass, 1},
	"g":        {dimMass, 0.001},
	"gram":     {dimMass, 0.001},
	"lb":       {dimMass, 0.45359237},
	"lbs":      {dimMass, 0.45359237},
	"pound":    {dimMass, 0.45359237},
	"st":       {dimMass, 6.35029318},

	"ms":     {dimTime, 0.001},
	"s":      {dimTime, 1},
	"sec":    {dimTime, 1},
	"second": {dimTime, 1},
	"min":    {dimTime, 60},
	"minute": {dimTime, 60},
	"h":      {dimTime, 3600},
	"hr":     {dimTime, 3600},
	"hour":   {dimTime, 3600},

	"m/s":   {dimSpeed, 1},
	"ft/s":  {dimSpeed, 0.3048},
	"km/h":  {dimSpeed, 1 / 3.6},
	"km/hr": {dimSpeed, 1 / 3.6},
	"kph":   {dimSpeed, 1 / 3.6},
	"mph":   {dimSpeed, 0.44704},
	"mi/h":  {dimSpeed, 0.44704},
	"mi/hr": {dimSpeed, 0.44704},

	"fraction": {dimFraction, 1},
	"%":        {dimFraction, 0.01},
	"percent":  {dimFraction, 0.01},
}

// caseSensitive units differ from a table key only by case.
var caseSensitive = map[string]unitDef{
	"cal": {dimEnergy, 0.001}, // small calorie
	"Cal": {dimEnergy, 1},     // dietary Calorie
}

func lookup(unit string) (unitDef, bool) {
	unit = strings.TrimSpace(unit)
	if u, ok := caseSensitive[unit]; ok {
		return u, true
	}
	key := strings.ToLower(unit)
	u, ok := unitTable[key]
	if !ok {
		// Plural forms like "minutes" or "hours".
		u, ok = unitTable[strings.TrimSuffix(key, "s")]
	}
	return u, ok
}

// Convert converts value, expressed in unit, into the unit of to. An empty
// unit is taken to already be in the target unit.
func Convert(value float64, unit, to string) (float64, error) {
	if unit == "" || unit == to {
		return value, nil
	}
	from, ok := lookup(unit)
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	target, ok := lookup(to)
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", to)
	}
	if from.dim != target.dim {
		return 0, fmt.Errorf("cannot convert %q to %q", unit, to)
	}
	return value * from.factor / target.factor, nil
}

// ToCanonical converts a native value into the canonical unit of dt.
// Sleep values are durations and are converted to hours.
func ToCanonical(value float64, unit string, dt models.DataType) (float64, error) {
	return Convert(value, unit, dt.Unit())
}

// FromCanonical converts a canonical value of dt into unit, the inverse of
// ToCanonical.
func FromCanonical(value float64, dt models.DataType, unit string) (float64, error) {
	return Convert(value, dt.Unit(), unit)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Display is a factor plus rounding applied to a value before output.
type Display struct {
	Factor   float64
	Decimals int
}

// Apply scales and rounds v. A zero Factor leaves the value unscaled.
func (d Display) Apply(v float64) float64 {
	if d.Factor != 0 {
		v *= d.Factor
	}
	return Round(v, d.Decimals)
}
