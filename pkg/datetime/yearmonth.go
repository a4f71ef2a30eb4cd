// Package datetime provides YearMonth and calendar date utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/bertsdev33/himata-sub000/pkg/constants"
)

const (
	// DateTimeLayout is the YearMonth key format.
	DateTimeLayout = constants.DateTimeLayout

	// DateLayout is the calendar date format.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// MustDate parses a YYYY-MM-DD date in UTC and panics on error.
func MustDate(dateStr string) time.Time {
	return MustParseTime(DateLayout, dateStr)
}

// MonthKey returns the YearMonth key of the given date.
func MonthKey(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a YearMonth key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t, nil
}

// IsMonth reports whether month is a well-formed YearMonth key.
func IsMonth(month string) bool {
	_, err := ParseMonth(month)
	return err == nil
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// NextMonth returns the YearMonth following month.
func NextMonth(month string) (string, error) {
	return OffsetDate(month, DateTimeLayout, 1)
}

// MonthsBetween returns the number of calendar months from start to end;
// negative when end precedes start.
func MonthsBetween(start, end string) (int, error) {
	s, err := ParseMonth(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseMonth(end)
	if err != nil {
		return 0, err
	}
	return (e.Year()-s.Year())*constants.MonthsPerYear + int(e.Month()) - int(s.Month()), nil
}

// DaysInMonth returns the number of days in the given YearMonth.
func DaysInMonth(month string) (int, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	return t.AddDate(0, 1, -1).Day(), nil
}

// MonthStart and MonthEnd return the first and last calendar day of month.
func MonthStart(month string) (time.Time, error) {
	return ParseMonth(month)
}

func MonthEnd(month string) (time.Time, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 1, -1), nil
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
// Both dates are YearMonth keys.
func DateBeforeDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := time.Parse(DateTimeLayout, firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := time.Parse(DateTimeLayout, secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.Before(secondDateT), nil
}
