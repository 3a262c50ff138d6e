// Package sleep rebuilds sleep sessions from stage segments and summarizes
// them per wake day.
package sleep

import (
	"sort"
	"time"

	"github.com/claude/healthbridge/internal/calendar"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/units"
)

// SessionGap is the minimum pause between two segments that starts a new
// session. A gap of 29m59s still merges.
const SessionGap = 30 * time.Minute

// Segment is one staged interval of a night.
type Segment struct {
	Start time.Time
	End   time.Time
	Stage models.StageTag
}

// Session is a run of segments with no gap of SessionGap or more.
type Session struct {
	Start    time.Time
	End      time.Time
	Segments []Segment
}

// Day is the summary of every session that ended on one local date. Hour
// fields are rounded to one decimal.
type Day struct {
	Date            string
	TotalSleepHours float64
	SleepSessions   int
	DeepSleep       float64
	REMSleep        float64
	CoreSleep       float64
	AwakeTime       float64
	TimeInBed       float64
	Efficiency      int
	Sessions        []Session
}

// Segments converts raw sleep samples into segments. When any sample carries
// a detailed stage only detailed samples are kept, dropping the coarse
// in-bed and asleep intervals that overlap them. The result is sorted by
// start.
func Segments(samples []models.RawSample) []Segment {
	all := make([]Segment, 0, len(samples))
	detailed := false
	for _, s := range samples {
		seg := Segment{Start: s.Start, End: s.End, Stage: stageOf(s)}
		if seg.Stage.Detailed() {
			detailed = true
		}
		all = append(all, seg)
	}

	segs := all
	if detailed {
		segs = make([]Segment, 0, len(all))
		for _, seg := range all {
			if seg.Stage.Detailed() {
				segs = append(segs, seg)
			}
		}
	}

	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Start.Before(segs[j].Start)
	})
	return segs
}

// stageOf reads the stage from the category value, falling back to a
// stage name in the metadata for stores that record it as text.
func stageOf(s models.RawSample) models.StageTag {
	if s.Category != nil {
		stage, _ := models.StageFromCategory(*s.Category)
		return stage
	}
	if name, ok := s.Metadata["stage"].(string); ok {
		stage, _ := models.NormalizeSleepStage(name)
		return stage
	}
	return models.StageUnknown
}

// Sessions groups sorted segments into sessions. A segment opens a new
// session when it starts SessionGap or more after the previous segment's end.
// Session.End is the latest end seen in the session.
func Sessions(segs []Segment) []Session {
	var out []Session
	for i, seg := range segs {
		if n := len(out); n > 0 && seg.Start.Sub(segs[i-1].End) < SessionGap {
			cur := &out[n-1]
			cur.Segments = append(cur.Segments, seg)
			if seg.End.After(cur.End) {
				cur.End = seg.End
			}
			continue
		}
		out = append(out, Session{Start: seg.Start, End: seg.End, Segments: []Segment{seg}})
	}
	return out
}

// Summarize attributes each session to the local day of its end and
// aggregates per day. Days outside r are dropped; output is sorted by date.
func Summarize(sessions []Session, cal *calendar.Calendar, r calendar.Range) []Day {
	byDay := make(map[string][]Session)
	for _, s := range sessions {
		key := cal.DayKey(s.End)
		byDay[key] = append(byDay[key], s)
	}

	days := make([]Day, 0, len(byDay))
	for key, group := range byDay {
		if !r.Contains(key) {
			continue
		}
		days = append(days, summarizeDay(key, group))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func summarizeDay(date string, sessions []Session) Day {
	minutes := make(map[models.StageTag]float64)
	first, last := sessions[0].Start, sessions[0].End
	for _, s := range sessions {
		if s.Start.Before(first) {
			first = s.Start
		}
		if s.End.After(last) {
			last = s.End
		}
		for _, seg := range s.Segments {
			minutes[seg.Stage] += seg.End.Sub(seg.Start).Minutes()
		}
	}

	deep := minutes[models.StageAsleepDeep] / 60
	rem := minutes[models.StageAsleepREM] / 60
	core := minutes[models.StageAsleepCore] / 60
	unspecified := minutes[models.StageAsleepUnspecified] / 60
	total := deep + rem + core + unspecified
	inBed := last.Sub(first).Hours()

	efficiency := 0
	if inBed > 0 {
		efficiency = int(units.Round(total/inBed*100, 0))
	}

	return Day{
		Date:            date,
		TotalSleepHours: units.Round(total, 1),
		SleepSessions:   len(sessions),
		DeepSleep:       units.Round(deep, 1),
		REMSleep:        units.Round(rem, 1),
		CoreSleep:       units.Round(core, 1),
		AwakeTime:       units.Round(minutes[models.StageAwake]/60, 1),
		TimeInBed:       units.Round(inBed, 1),
		Efficiency:      efficiency,
		Sessions:        sessions,
	}
}

// Reconstruct runs the full pipeline over raw sleep samples.
func Reconstruct(samples []models.RawSample, cal *calendar.Calendar, r calendar.Range) []Day {
	return Summarize(Sessions(Segments(samples)), cal, r)
}
