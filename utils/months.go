package utils

import (
	"time"
)

// MonthStart returns the first instant of t's calendar month in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthBounds returns [start, end) of t's calendar month in loc.
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := MonthStart(t, loc)
	return start, start.AddDate(0, 1, 0)
}

// YearBounds returns [start, end) of the given year in loc.
func YearBounds(year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

// LoadLocation falls back to UTC for an empty or unknown zone name.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
