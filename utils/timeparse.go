package utils

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayouts are tried in order when parsing order dates. Layouts
// without a zone produce UTC times; explicit offsets are kept as given.
// Slashed dates are always month first.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// dateOnlyLayouts carry no time of day
var dateOnlyLayouts = map[string]bool{
	"2006-01-02": true,
	"2006/01/02": true,
	"01/02/2006": true,
}

// ParseTimestamp parses value with the first matching layout
func ParseTimestamp(value string) (time.Time, error) {
	t, _, err := parseWithLayout(value)
	return t, err
}

// ParseDateBoundary parses a query boundary. dateOnly reports whether the
// value carried no time of day, so callers can widen an end bound to the
// whole day.
func ParseDateBoundary(value string) (t time.Time, dateOnly bool, err error) {
	t, layout, err := parseWithLayout(value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, dateOnlyLayouts[layout], nil
}

// EndOfDay returns the last nanosecond of t's calendar day in t's location
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func parseWithLayout(value string) (time.Time, string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, "", fmt.Errorf("empty timestamp")
	}
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unrecognized timestamp %q", value)
}
