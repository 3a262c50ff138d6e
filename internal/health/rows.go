package health

import (
	"strconv"

	"github.com/claude/healthbridge/internal/composite"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/sleep"
	"github.com/claude/healthbridge/internal/workout"
)

func simpleRow(dt models.DataType, s models.RawSample, value float64) Row {
	row := Row{
		"dataType":   dt,
		"unit":       dt.Unit(),
		"value":      value,
		"startDate":  models.FormatTime(s.Start),
		"endDate":    models.FormatTime(s.End),
		"sourceName": s.Source,
		"id":         s.ID,
	}
	if len(s.Metadata) > 0 {
		row["metadata"] = s.Metadata
	}
	return row
}

func compositeRow(dt models.DataType, d composite.DayRow) Row {
	row := Row{
		"dataType": dt,
		"unit":     dt.Unit(),
		"date":     d.Date,
	}
	for field, v := range d.Values {
		row[field] = v
	}
	return row
}

func sleepRow(d sleep.Day) Row {
	sessions := make([]map[string]any, 0, len(d.Sessions))
	for _, sess := range d.Sessions {
		segments := make([]map[string]any, 0, len(sess.Segments))
		for _, seg := range sess.Segments {
			segments = append(segments, map[string]any{
				"start": models.FormatTime(seg.Start),
				"end":   models.FormatTime(seg.End),
				"stage": seg.Stage.Label(),
			})
		}
		sessions = append(sessions, map[string]any{
			"start":    models.FormatTime(sess.Start),
			"end":      models.FormatTime(sess.End),
			"segments": segments,
		})
	}

	return Row{
		"dataType":        models.DataTypeSleep,
		"unit":            models.UnitHour,
		"date":            d.Date,
		"totalSleepHours": d.TotalSleepHours,
		"sleepSessions":   d.SleepSessions,
		"deepSleep":       d.DeepSleep,
		"remSleep":        d.REMSleep,
		"coreSleep":       d.CoreSleep,
		"awakeTime":       d.AwakeTime,
		"timeInBed":       d.TimeInBed,
		"efficiency":      d.Efficiency,
		"sessions":        sessions,
	}
}

func workoutRow(r workout.Record) Row {
	row := Row{
		"dataType":        models.DataTypeWorkout,
		"unit":            models.UnitMinute,
		"id":              r.ID,
		"date":            r.Date,
		"startDate":       models.FormatTime(r.Start),
		"endDate":         models.FormatTime(r.End),
		"activityType":    r.ActivityType,
		"durationMinutes": r.DurationMinutes,
		"sourceName":      r.SourceName,
	}
	if r.Distance != nil {
		row["distance"] = *r.Distance
	}
	if r.Calories != nil {
		row["calories"] = *r.Calories
	}
	if r.AvgHeartRate != nil {
		row["avgHeartRate"] = *r.AvgHeartRate
	}
	if r.MaxHeartRate != nil {
		row["maxHeartRate"] = *r.MaxHeartRate
	}
	if len(r.ZoneMinutes) > 0 {
		zones := make(map[string]int, len(r.ZoneMinutes))
		for zone, minutes := range r.ZoneMinutes {
			zones[strconv.Itoa(zone)] = minutes
		}
		row["zoneMinutes"] = zones
	}
	return row
}
