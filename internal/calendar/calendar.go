// Package calendar buckets instants into local calendar days.
package calendar

import "time"

// DateLayout is the layout of a day key.
const DateLayout = "2006-01-02"

// Calendar derives day keys in a fixed location.
type Calendar struct {
	loc *time.Location
}

// New returns a Calendar for loc. A nil loc means time.Local.
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc}
}

// Location returns the calendar's location.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DayKey returns the local calendar date of t as YYYY-MM-DD.
func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// Range is an inclusive span of day keys.
type Range struct {
	From string
	To   string
}

// RangeFor returns the day keys implied by a query window. The window's
// dates are read as the caller wrote them (in UTC), so a query for
// 2024-01-10T00:00Z..2024-01-12T00:00Z covers 2024-01-10 through 2024-01-12
// regardless of the local offset. Local buckets outside that span come from
// records that only fall inside the UTC window and are filtered out.
func (c *Calendar) RangeFor(start, end time.Time) Range {
	return Range{
		From: start.UTC().Format(DateLayout),
		To:   end.UTC().Format(DateLayout),
	}
}

// Contains reports whether key lies within the range. Day keys sort
// lexicographically in date order.
func (r Range) Contains(key string) bool {
	return key >= r.From && key <= r.To
}
