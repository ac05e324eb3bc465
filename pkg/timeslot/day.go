package timeslot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDay is returned for day names outside the English week.
var ErrInvalidDay = errors.New("invalid day")

// Days lists the canonical day names in week order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// NormalizeDay maps "monday", "MON" or "Monday" to "Monday".
func NormalizeDay(text string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDay)
	}
	for _, day := range Days {
		lower := strings.ToLower(day)
		if key == lower || key == lower[:3] {
			return day, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDay, text)
}

// DayIndex returns the zero-based week position of a day name, or -1 when unknown.
func DayIndex(text string) int {
	day, err := NormalizeDay(text)
	if err != nil {
		return -1
	}
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

// SameDay compares two day names after normalisation.
func SameDay(a, b string) bool {
	na, errA := NormalizeDay(a)
	nb, errB := NormalizeDay(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return na == nb
}
