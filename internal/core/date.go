package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dates are stored as dd.mm.yy with the century fixed to 2000.
const (
	minYear = 2000
	maxYear = 2099
)

// Date is a calendar day at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month (1-12), day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current day in local time.
func Today() Date { return DateOf(time.Now()) }

// ParseDate parses dd.mm.yy. Day and month may have one or two digits, the
// year has exactly two. Overflowing days such as 31.02.25 are rejected.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q is not dd.mm.yy", ErrInvalidDate, s)
	}
	day, err := datePart(parts[0], 1, 2)
	if err != nil {
		return Date{}, fmt.Errorf("%w: bad day in %q", ErrInvalidDate, s)
	}
	month, err := datePart(parts[1], 1, 2)
	if err != nil {
		return Date{}, fmt.Errorf("%w: bad month in %q", ErrInvalidDate, s)
	}
	yy, err := datePart(parts[2], 2, 2)
	if err != nil {
		return Date{}, fmt.Errorf("%w: bad year in %q", ErrInvalidDate, s)
	}

	d := NewDate(minYear+yy, month, day)
	if d.Day() != day || d.Month() != month {
		return Date{}, fmt.Errorf("%w: %q is not a calendar day", ErrInvalidDate, s)
	}
	return d, nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func datePart(s string, minLen, maxLen int) (int, error) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, fmt.Errorf("length %d", len(s))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non digit %q", r)
		}
	}
	return strconv.Atoi(s)
}

// String formats the date as dd.mm.yy.
func (d Date) String() string {
	return fmt.Sprintf("%02d.%02d.%02d", d.Day(), d.Month(), d.Year()%100)
}

// Representable reports whether the date fits the two digit year scheme.
func (d Date) Representable() bool {
	return !d.IsZero() && d.Year() >= minYear && d.Year() <= maxYear
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// InMonth reports whether d falls in year and zero-based month index.
func (d Date) InMonth(year, month0 int) bool {
	return d.Year() == year && d.Month()-1 == month0
}

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.Time.Before(x.Time) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.Time.After(x.Time) }

// DaysInMonth returns the number of days of a zero-based month.
func DaysInMonth(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// PreviousMonth returns the year and zero-based month before the given one.
func PreviousMonth(year, month0 int) (int, int) {
	if month0 == 0 {
		return year - 1, 11
	}
	return year, month0 - 1
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name of a zero-based month index.
func MonthName(month0 int) string {
	if month0 < 0 || month0 > 11 {
		return ""
	}
	return monthNames[month0]
}

// MonthShort returns the three letter abbreviation of a zero-based month.
func MonthShort(month0 int) string {
	name := MonthName(month0)
	if len(name) < 3 {
		return name
	}
	return name[:3]
}
