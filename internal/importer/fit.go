package importer

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tormoder/fit"

	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/workout"
)

// hrSampleInterval thins per-second heart-rate records to one sample per
// interval.
const hrSampleInterval = 5 * time.Second

// idNamespace derives stable sample IDs so re-importing a file is a no-op
// for stores that ignore duplicate IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("healthbridge/fit-import"))

// sportActivity maps FIT sports onto workout activity codes.
var sportActivity = map[fit.Sport]int{
	fit.SportRunning:            workout.ActivityRunning,
	fit.SportCycling:            workout.ActivityCycling,
	fit.SportWalking:            workout.ActivityWalking,
	fit.SportHiking:             workout.ActivityHiking,
	fit.SportSwimming:           workout.ActivitySwimming,
	fit.SportRowing:             workout.ActivityRowing,
	fit.SportTraining:           workout.ActivityFunctionalStrengthTraining,
	fit.SportCrossCountrySkiing: workout.ActivityCrossCountrySkiing,
	fit.SportAlpineSkiing:       workout.ActivityDownhillSkiing,
	fit.SportSnowboarding:       workout.ActivitySnowboarding,
}

// sportsWithWalkingDistance contribute to the walking/running distance kind.
var sportsWithWalkingDistance = map[fit.Sport]bool{
	fit.SportRunning: true,
	fit.SportWalking: true,
	fit.SportHiking:  true,
}

// ActivityCode returns the workout activity code for a FIT sport.
func ActivityCode(sport fit.Sport, sub fit.SubSport) int {
	if sport == fit.SportTraining && sub == fit.SubSportStrengthTraining {
		return workout.ActivityTraditionalStrengthTraining
	}
	if code, ok := sportActivity[sport]; ok {
		return code
	}
	return workout.ActivityOther
}

// Convert decodes a FIT activity file into store samples: one workout per
// session, a distance and an energy sample per session where recorded, and
// thinned heart-rate samples. fileHash seeds the sample IDs.
func Convert(data []byte, fileHash, source string) ([]models.RawSample, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	var out []models.RawSample
	for i, session := range activity.Sessions {
		out = append(out, sessionSamples(session, i, fileHash, source)...)
	}
	out = append(out, heartRateSamples(activity.Records, fileHash, source)...)
	return out, nil
}

func sessionSamples(s *fit.SessionMsg, index int, fileHash, source string) []models.RawSample {
	start := validTimeOrZero(s.StartTime)
	end := validTimeOrZero(s.Timestamp)
	duration, hasDuration := positive(s.GetTotalTimerTimeScaled())
	if start.IsZero() {
		return nil
	}
	if end.IsZero() || end.Before(start) {
		if !hasDuration {
			return nil
		}
		end = start.Add(time.Duration(duration * float64(time.Second)))
	}
	if !hasDuration {
		duration = end.Sub(start).Seconds()
	}

	fields := &models.WorkoutFields{
		ActivityType: ActivityCode(s.Sport, s.SubSport),
		DurationSec:  duration,
	}
	distance, hasDistance := positive(s.GetTotalDistanceScaled())
	if hasDistance {
		fields.DistanceMeters = models.Float64(distance)
	}
	calories := float64(validUint16(s.TotalCalories))
	if calories > 0 {
		fields.EnergyKcal = models.Float64(calories)
	}

	prefix := fmt.Sprintf("session:%d", index)
	samples := []models.RawSample{{
		ID:      sampleID(fileHash, prefix),
		Kind:    models.KindWorkout,
		Start:   start,
		End:     end,
		Source:  source,
		Workout: fields,
		Metadata: map[string]any{
			"sport":     fmt.Sprint(s.Sport),
			"sub_sport": fmt.Sprint(s.SubSport),
		},
	}}

	if hasDistance && sportsWithWalkingDistance[s.Sport] {
		samples = append(samples, models.RawSample{
			ID:       sampleID(fileHash, prefix+":distance"),
			Kind:     models.KindDistanceWalkingRunning,
			Start:    start,
			End:      end,
			Quantity: models.Float64(distance),
			Unit:     "m",
			Source:   source,
		})
	}
	if calories > 0 {
		samples = append(samples, models.RawSample{
			ID:       sampleID(fileHash, prefix+":energy"),
			Kind:     models.KindActiveEnergyBurned,
			Start:    start,
			End:      end,
			Quantity: models.Float64(calories),
			Unit:     "kcal",
			Source:   source,
		})
	}
	return samples
}

func heartRateSamples(records []*fit.RecordMsg, fileHash, source string) []models.RawSample {
	var out []models.RawSample
	var last time.Time
	for _, rec := range records {
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() || rec.HeartRate == math.MaxUint8 || rec.HeartRate == 0 {
			continue
		}
		if !last.IsZero() && ts.Sub(last) < hrSampleInterval {
			continue
		}
		last = ts
		out = append(out, models.RawSample{
			ID:       sampleID(fileHash, "hr:"+ts.UTC().Format(time.RFC3339)),
			Kind:     models.KindHeartRate,
			Start:    ts,
			End:      ts,
			Quantity: models.Float64(float64(rec.HeartRate)),
			Unit:     "count/min",
			Source:   source,
		})
	}
	return out
}

func sampleID(fileHash, suffix string) string {
	return uuid.NewSHA1(idNamespace, []byte(fileHash+":"+suffix)).String()
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func positive(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
