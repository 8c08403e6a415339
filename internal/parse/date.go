package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/itchyny/timefmt-go"
)

// ParseDate parses a statement date cell.
//
// Each strftime pattern in formats is tried in order against the whole cell;
// the first match wins. When none match, day-first inference is attempted.
// ok is false when the cell is empty or nothing could read it.
func ParseDate(raw string, formats []string) (t time.Time, ok bool) {
	s := strings.Trim(raw, "' ")
	if s == "" {
		return time.Time{}, false
	}

	for _, f := range formats {
		if parsed, err := timefmt.Parse(s, f); err == nil {
			return naive(parsed), true
		}
	}

	parsed, err := dateparse.ParseIn(slashed(s), time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return naive(parsed), true
}

// numericDate matches d-m-y and d.m.y cells with an optional time suffix.
var numericDate = regexp.MustCompile(`^(\d{1,2})[-.](\d{1,2})[-.](\d{2,4})(\s.*)?$`)

// slashed rewrites numeric dashed or dotted dates to the slashed form that
// dateparse reads day-first. Other input is returned unchanged.
func slashed(s string) string {
	return numericDate.ReplaceAllString(s, "$1/$2/$3$4")
}

// naive drops any zone information, keeping the wall-clock reading.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
