package workout

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/claude/healthbridge/internal/models"
)

const (
	// AssumedMaxHeartRate is the maximum heart rate the zone estimate is
	// relative to.
	AssumedMaxHeartRate = 180.0

	// TailSampleDuration is the time credited to the last heart-rate sample
	// of a workout, which has no successor to measure against.
	TailSampleDuration = 5 * time.Second
)

// Zone upper bounds as a fraction of AssumedMaxHeartRate. Anything at or
// above the last bound is zone 5.
var zoneBounds = []float64{0.60, 0.70, 0.80, 0.90}

// ZoneFor classifies a heart rate into zones 1 through 5.
func ZoneFor(bpm float64) int {
	pct := bpm / AssumedMaxHeartRate
	for i, bound := range zoneBounds {
		if pct < bound {
			return i + 1
		}
	}
	return len(zoneBounds) + 1
}

var zoneNumberRe = regexp.MustCompile(`\d+`)

// ZonesFromMetadata reads zone durations recorded by the workout source.
// Keys mention "zone" in any case and carry the zone number; values are
// seconds unless the key mentions minutes. ok is false when no zone keys
// exist.
func ZonesFromMetadata(md map[string]any) (zones map[int]int, ok bool) {
	zones = make(map[int]int)
	for key, raw := range md {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "zone") {
			continue
		}
		m := zoneNumberRe.FindString(lower)
		if m == "" {
			continue
		}
		zone, err := strconv.Atoi(m)
		if err != nil || zone < 1 || zone > 5 {
			continue
		}
		v, isNum := number(raw)
		if !isNum {
			continue
		}
		ok = true

		minutes := v / 60
		if strings.Contains(lower, "min") {
			minutes = v
		}
		if rounded := int(math.Round(minutes)); rounded > 0 {
			zones[zone] += rounded
		}
	}
	return zones, ok
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// EstimateZones attributes time to zones from heart-rate samples. Each
// sample lasts until the next one starts; the last lasts
// TailSampleDuration. Zones with zero rounded minutes are omitted.
func EstimateZones(hr []models.RawSample) map[int]int {
	samples := append([]models.RawSample(nil), hr...)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Start.Before(samples[j].Start)
	})

	seconds := make(map[int]float64)
	for i, s := range samples {
		if s.Quantity == nil {
			continue
		}
		d := TailSampleDuration
		if i+1 < len(samples) {
			d = samples[i+1].Start.Sub(s.Start)
		}
		seconds[ZoneFor(*s.Quantity)] += d.Seconds()
	}

	zones := make(map[int]int)
	for zone, secs := range seconds {
		if m := int(math.Round(secs / 60)); m > 0 {
			zones[zone] = m
		}
	}
	return zones
}
