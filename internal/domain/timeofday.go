package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// TimeOfDay is a wall-clock time as seconds since midnight.
// Dates and times are stored separately and only combined when compared
// against real timestamps.
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		// hours may drop the leading zero, minutes and seconds may not
		if len(p) > 2 || len(p) == 0 || (i > 0 && len(p) != 2) || !isDigits(p) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		values[i] = n
	}

	return TimeOfDay(values[0]*3600 + values[1]*60 + values[2]), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MustParseTimeOfDay panics on malformed input. Use only with literals.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a YYYY-MM-DD calendar date into midnight UTC
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Minutes returns whole minutes since midnight
func (t TimeOfDay) Minutes() int {
	return int(t) / 60
}

// Seconds returns seconds since midnight
func (t TimeOfDay) Seconds() int {
	return int(t)
}

// Valid reports whether t is within a single day
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// String formats as HH:MM, or HH:MM:SS when seconds are set
func (t TimeOfDay) String() string {
	h, m, s := int(t)/3600, (int(t)%3600)/60, int(t)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Add shifts t by d without wrapping at midnight
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Second)
}

// On combines a calendar date with t in loc
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, 0, 0, int(t), 0, loc)
}

// DurationBetween returns end-start, negative when inverted
func DurationBetween(start, end TimeOfDay) time.Duration {
	return time.Duration(end-start) * time.Second
}

// FormatDate formats a calendar date as YYYY-MM-DD
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// SameDate compares calendar dates ignoring time and location
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
