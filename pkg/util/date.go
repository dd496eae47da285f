package util

import (
	"fmt"
	"strconv"
	"time"
)

// DayLayout is the date format accepted by the query endpoints.
const DayLayout = "2006-01-02"

// TimeLayout is how bar times are rendered in API responses.
const TimeLayout = "2006-01-02 15:04:05"

// ParseDay parses a YYYY-MM-DD date as midnight UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseTime tries RFC3339, RFC3339Nano, TimeLayout and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation(TimeLayout, s, time.UTC); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AlignToBar truncates t to the start of its bar. Bars longer than a day are
// left as is since weekly and monthly bars follow the broker calendar.
func AlignToBar(t time.Time, bar time.Duration) time.Time {
	if bar <= 0 || bar > 24*time.Hour {
		return t
	}
	return t.Truncate(bar)
}
