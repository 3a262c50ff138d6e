package models

import "strings"

// StageTag is a sleep stage. Stores that only distinguish in-bed, asleep
// and awake never produce the core/deep/REM variants.
type StageTag string

const (
	StageInBed             StageTag = "inBed"
	StageAsleepCore        StageTag = "asleepCore"
	StageAsleepDeep        StageTag = "asleepDeep"
	StageAsleepREM         StageTag = "asleepREM"
	StageAwake             StageTag = "awake"
	StageAsleepUnspecified StageTag = "asleepUnspecified"
	StageUnknown           StageTag = "unknown"
)

// Category values used by the store for sleep analysis samples.
var stageByCategory = map[int]StageTag{
	0: StageInBed,
	1: StageAsleepUnspecified,
	2: StageAwake,
	3: StageAsleepCore,
	4: StageAsleepDeep,
	5: StageAsleepREM,
}

// StageFromCategory decodes a sleep analysis category value.
// Values outside the table yield StageUnknown and false.
func StageFromCategory(v int) (StageTag, bool) {
	tag, ok := stageByCategory[v]
	if !ok {
		return StageUnknown, false
	}
	return tag, true
}

// Category returns the store category value for the tag.
func (t StageTag) Category() (int, bool) {
	for v, tag := range stageByCategory {
		if tag == t {
			return v, true
		}
	}
	return 0, false
}

// Detailed reports whether the tag is one of the fine-grained stages.
func (t StageTag) Detailed() bool {
	switch t {
	case StageAsleepCore, StageAsleepDeep, StageAsleepREM, StageAwake:
		return true
	}
	return false
}

// Label is the display name used in output rows.
func (t StageTag) Label() string {
	switch t {
	case StageInBed:
		return "In Bed"
	case StageAsleepCore:
		return "Core"
	case StageAsleepDeep:
		return "Deep"
	case StageAsleepREM:
		return "REM"
	case StageAwake:
		return "Awake"
	case StageAsleepUnspecified:
		return "Asleep"
	}
	return "Unknown"
}

// sleepStageMap maps lowercased localized sleep stage names to tags.
// Covers: English, German, French, Spanish, Italian, Portuguese, Dutch,
// Japanese, Chinese (Simplified & Traditional), Korean, plus the tag names.
var sleepStageMap = map[string]StageTag{
	// English
	"core":   StageAsleepCore,
	"deep":   StageAsleepDeep,
	"rem":    StageAsleepREM,
	"awake":  StageAwake,
	"in bed": StageInBed,
	"asleep": StageAsleepUnspecified,

	// Tag names
	"inbed":             StageInBed,
	"asleepcore":        StageAsleepCore,
	"asleepdeep":        StageAsleepDeep,
	"asleeprem":         StageAsleepREM,
	"asleepunspecified": StageAsleepUnspecified,

	// German
	"kern":    StageAsleepCore,
	"tief":    StageAsleepDeep,
	"wach":    StageAwake,
	"im bett": StageInBed,

	// French
	"paradoxal":  StageAsleepREM,
	"profond":    StageAsleepDeep,
	"léger":      StageAsleepCore,
	"leger":      StageAsleepCore,
	"éveillé":    StageAwake,
	"eveille":    StageAwake,
	"au lit":     StageInBed,
	"endormi":    StageAsleepUnspecified,

	// Spanish (principal also covers Portuguese)
	"profundo":   StageAsleepDeep,
	"principal":  StageAsleepCore,
	"despierto":  StageAwake,
	"despierta":  StageAwake,
	"en la cama": StageInBed,
	"dormido":    StageAsleepUnspecified,
	"dormida":    StageAsleepUnspecified,

	// Italian
	"profondo":      StageAsleepDeep,
	"essenziale":    StageAsleepCore,
	"sveglio":       StageAwake,
	"sveglia":       StageAwake,
	"a letto":       StageInBed,
	"addormentato":  StageAsleepUnspecified,

	// Portuguese (principal already covered by Spanish, kern by German)
	"sono profundo": StageAsleepDeep,
	"acordado":      StageAwake,
	"acordada":      StageAwake,
	"na cama":       StageInBed,
	"dormindo":      StageAsleepUnspecified,

	// Dutch (kern already covered by German, in bed by English)
	"diep":    StageAsleepDeep,
	"wakker":  StageAwake,
	"slapend": StageAsleepUnspecified,

	// Japanese
	"コア":   StageAsleepCore,
	"深い":   StageAsleepDeep,
	"レム":   StageAsleepREM,
	"覚醒":   StageAwake,
	"ベッドで": StageInBed,

	// Chinese (Simplified)
	"核心":  StageAsleepCore,
	"深度":  StageAsleepDeep,
	"快速眼动": StageAsleepREM,
	"清醒":  StageAwake,
	"在床上": StageInBed,

	// Chinese (Traditional)
	"核心睡眠": StageAsleepCore,
	"深層":    StageAsleepDeep,
	"快速動眼": StageAsleepREM,

	// Korean
	"코어":  StageAsleepCore,
	"깊은":  StageAsleepDeep,
	"렘":   StageAsleepREM,
	"깨어있음": StageAwake,
	"침대에서": StageInBed,
}

// NormalizeSleepStage maps a possibly-localized stage name to its tag.
// Returns StageUnknown and false when the name is not recognized.
func NormalizeSleepStage(raw string) (StageTag, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if tag, ok := sleepStageMap[lower]; ok {
		return tag, true
	}
	return StageUnknown, false
}
