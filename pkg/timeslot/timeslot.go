package timeslot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a slot string cannot be parsed into a TimeRange.
var ErrInvalidFormat = errors.New("invalid time format")

// MaxHour bounds the hour field so minute arithmetic cannot overflow.
const MaxHour = 9999

// TimeRange is a half-open [Start, End) interval expressed in minutes since midnight.
type TimeRange struct {
	Start int `json:"start_minutes"`
	End   int `json:"end_minutes"`
}

// Parse converts an "H:MM-H:MM" slot into a TimeRange.
// Hours are not bounded to a calendar day, so "25:00-26:00" parses; ranges spanning midnight do not.
// Hours above MaxHour are rejected.
func Parse(text string) (TimeRange, error) {
	parts := strings.Split(strings.TrimSpace(text), "-")
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("%w: %q must look like H:MM-H:MM", ErrInvalidFormat, text)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q start: %v", ErrInvalidFormat, text, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q end: %v", ErrInvalidFormat, text, err)
	}
	if start >= end {
		return TimeRange{}, fmt.Errorf("%w: %q start must be before end", ErrInvalidFormat, text)
	}
	return TimeRange{Start: start, End: end}, nil
}

// MustParse is Parse for fixtures; it panics on malformed input.
func MustParse(text string) TimeRange {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

func parseClock(raw string) (int, error) {
	fields := strings.Split(strings.TrimSpace(raw), ":")
	if len(fields) != 2 {
		return 0, errors.New("expected H:MM")
	}
	hour, err := parseDigits(fields[0])
	if err != nil {
		return 0, fmt.Errorf("hour: %w", err)
	}
	if hour > MaxHour {
		return 0, fmt.Errorf("hour %d exceeds %d", hour, MaxHour)
	}
	minute, err := parseDigits(fields[1])
	if err != nil {
		return 0, fmt.Errorf("minute: %w", err)
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute %d out of range", minute)
	}
	return hour*60 + minute, nil
}

// parseDigits rejects signs and whitespace that strconv.Atoi would otherwise accept.
func parseDigits(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a number", raw)
		}
	}
	return strconv.Atoi(raw)
}

// Overlaps reports whether a and b share at least one minute. Touching ranges do not overlap.
func Overlaps(a, b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// Overlaps is the method form of the package-level Overlaps.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return Overlaps(r, other)
}

// Valid reports whether the range satisfies Start < End.
func (r TimeRange) Valid() bool {
	return r.Start >= 0 && r.Start < r.End
}

// Minutes returns the length of the range.
func (r TimeRange) Minutes() int {
	return r.End - r.Start
}

// String renders the canonical H:MM-H:MM form.
func (r TimeRange) String() string {
	return fmt.Sprintf("%d:%02d-%d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}
