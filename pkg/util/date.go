package util

import (
	"math"
	"time"
)

// DateLayout is the calendar-date layout used by statistical providers.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

// AbsDays returns the absolute distance between two dates in days.
func AbsDays(a, b time.Time) float64 {
	return math.Abs(DaysBetween(a, b))
}
