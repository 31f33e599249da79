// Package dateparse normalizes the date strings found in equipment records.
//
// Records arrive from forms, imports and older data files, so the same
// calendar day may be written as 15/05/2025, 2025-05-15 or 15/05/25. Layouts
// are tried in a fixed preference order (day-first before month-first); the
// parser never tries to guess the writer's locale.
package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the canonical DD/MM/YYYY layout used when dates are stored.
const DisplayLayout = "02/01/2006"

// ErrDateFormat is matched by every error returned from ParseFlexible.
var ErrDateFormat = errors.New("unsupported date format")

// layouts in preference order. Single-digit layout elements also accept
// zero-padded input, and a 4-digit year never matches a 2-digit layout.
var layouts = []string{
	"2/1/2006",
	"2006-1-2",
	"2/1/06",
	"1/2/2006",
	"2-1-2006",
	"2.1.2006",
}

// DateFormatError reports a date string that could not be parsed.
type DateFormatError struct {
	Input string
}

func (e *DateFormatError) Error() string {
	if strings.TrimSpace(e.Input) == "" {
		return "date string is empty"
	}
	return fmt.Sprintf("unable to parse date %q in any supported format", e.Input)
}

// Is lets callers match with errors.Is(err, ErrDateFormat).
func (e *DateFormatError) Is(target error) bool {
	return target == ErrDateFormat
}

// ParseFlexible parses s into a calendar date at midnight UTC.
// Out-of-range values such as 31/04/2025 fail instead of wrapping.
func ParseFlexible(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, &DateFormatError{Input: s}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateFormatError{Input: s}
}

// FormatDDMMYYYY renders t in the canonical stored layout.
func FormatDDMMYYYY(t time.Time) string {
	return t.Format(DisplayLayout)
}

// Normalize rewrites any accepted date string as DD/MM/YYYY.
func Normalize(s string) (string, error) {
	t, err := ParseFlexible(s)
	if err != nil {
		return "", err
	}
	return FormatDDMMYYYY(t), nil
}

// QuarterDatesFromQ1 derives the four quarterly dates from the first one,
// three months apart. Days past the end of a shorter month are clamped to its
// last day (31/01 -> 30/04, not 01/05).
func QuarterDatesFromQ1(q1 string) ([4]string, error) {
	var out [4]string
	start, err := ParseFlexible(q1)
	if err != nil {
		return out, err
	}
	for i := range out {
		out[i] = FormatDDMMYYYY(addMonthsClamped(start, 3*i))
	}
	return out, nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}
