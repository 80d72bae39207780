package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for civil dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses a civil date and returns it as midnight UTC so that
// Weekday and equality behave the same regardless of server timezone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a civil date.
func FormatDate(t time.Time) string { return t.UTC().Format(DateLayout) }

// CivilDate returns the calendar date of t as observed in loc, as midnight UTC.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
