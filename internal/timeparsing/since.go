// Package timeparsing turns the --since argument of `conductor events` into
// a lower time bound.
//
// Accepted forms, tried in order:
//  1. Go duration counted back from now (90m, 2h, 45s)
//  2. Calendar lookback window (1d, 2w, 3mo, 1y)
//  3. Absolute timestamp (RFC3339, 2025-01-15, 2025-01-15 08:30)
//  4. Natural language (yesterday, 2 hours ago, last monday)
package timeparsing

import (
	"fmt"
	"strings"
	"time"
)

// absoluteLayouts are tried in order by parseAbsolute.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseAbsolute parses RFC3339 and date/time layouts. Layouts without a zone
// are read in now's location.
func parseAbsolute(s string, now time.Time) (time.Time, error) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an absolute time: %q", s)
}

// ParseSince parses a lower bound for "what happened since" queries. Go
// durations win over windows, so "3m" is three minutes and months are "3mo".
// The sign of a duration or window is ignored: both always count back.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty --since value")
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			d = -d
		}
		return now.Add(-d), nil
	}
	if w, ok := ParseWindow(s); ok {
		return w.Before(now), nil
	}
	if t, err := parseAbsolute(s, now); err == nil {
		return t, nil
	}
	if t, err := ParseNaturalLanguage(s, now); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q: use a duration (90m, 2h), a window (1d, 2w, 3mo), a date (2025-01-15), RFC3339, or an expression like \"2 hours ago\"", s)
}
