// Package dates provides calendar-grid arithmetic over civil dates.
//
// A Date carries only year, month and day. It never holds a time-of-day or a
// location, so bucketing keys computed from event records and from grid cells
// are always derived from the same wall-clock fields.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Date is a local calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Of builds a normalized Date; out-of-range days roll over like time.Date
// (e.g. Of(2025, 2, 30) is 2025-03-02).
func Of(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(now.In(loc))
}

// midnight is the arithmetic carrier. UTC has no DST gaps, so adding 24h
// steps is exact.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday reports the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.midnight().Weekday()
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.midnight().Before(o.midnight())
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// String returns the day key.
func (d Date) String() string {
	return Key(d)
}

// MarshalText encodes the day key, so Dates serialize as "YYYY-MM-DD".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(Key(d)), nil
}

// UnmarshalText parses a "YYYY-MM-DD" key.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := time.Parse(keyLayout, string(b))
	if err != nil {
		return fmt.Errorf("dates: %w", err)
	}
	*d = FromTime(v)
	return nil
}

const keyLayout = "2006-01-02"

// Key returns the canonical zero-padded YYYY-MM-DD key of d.
func Key(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b Date) bool {
	return a.Year == b.Year && a.Month == b.Month && a.Day == b.Day
}

// AddDays returns the date n days after d (n may be negative).
func AddDays(d Date, n int) Date {
	return FromTime(d.midnight().AddDate(0, 0, n))
}

// WeekStart returns the Sunday on or before d.
func WeekStart(d Date) Date {
	return AddDays(d, -int(d.Weekday()))
}

// FirstOfMonth returns the 1st of d's month.
func FirstOfMonth(d Date) Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// AddMonths shifts a (year, month) pair by n months.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	t := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// Span returns n consecutive days starting at start.
func Span(start Date, n int) []Date {
	if n <= 0 {
		return nil
	}
	out := make([]Date, n)
	for i := range out {
		out[i] = AddDays(start, i)
	}
	return out
}

// accepted layouts for stored event dates, most specific first.
var parseLayouts = []string{
	keyLayout,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Parse is ParseIn with time.Local.
func Parse(s string) (Date, error) {
	return ParseIn(s, nil)
}

// ParseIn reads the calendar day of a stored event date as seen on loc's
// wall clock. Date-only values and local date-times carry no offset and yield
// their written day. Values with an offset (RFC 3339, including "Z") name an
// instant, which is converted into loc before its day is taken. A nil loc
// means time.Local.
func ParseIn(s string, loc *time.Location) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("dates: empty date")
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		if loc == nil {
			loc = time.Local
		}
		return FromTime(t.In(loc)), nil
	}
	return Date{}, fmt.Errorf("dates: unparseable date %q", s)
}
