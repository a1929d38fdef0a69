package timeparsing

import (
	"regexp"
	"strconv"
	"time"
)

// windowRe matches a calendar lookback: "1d", "2w", "3mo", "1y". A leading
// "-" is accepted and means the same thing.
var windowRe = regexp.MustCompile(`^-?(\d+)(d|w|mo|y)$`)

// Window is a calendar-aware lookback. Days, weeks, months and years are
// counted with AddDate, so "1d" across a DST change is one calendar day and
// month arithmetic normalizes like time.AddDate does.
type Window struct {
	N    int
	Unit string // d, w, mo, y
}

// ParseWindow parses a lookback window. ok is false when s is not one.
func ParseWindow(s string) (w Window, ok bool) {
	m := windowRe.FindStringSubmatch(s)
	if m == nil {
		return Window{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Window{}, false
	}
	return Window{N: n, Unit: m[2]}, true
}

// Before returns the start of the window ending at t.
func (w Window) Before(t time.Time) time.Time {
	switch w.Unit {
	case "d":
		return t.AddDate(0, 0, -w.N)
	case "w":
		return t.AddDate(0, 0, -7*w.N)
	case "mo":
		return t.AddDate(0, -w.N, 0)
	case "y":
		return t.AddDate(-w.N, 0, 0)
	}
	return t
}

func (w Window) String() string {
	return strconv.Itoa(w.N) + w.Unit
}
