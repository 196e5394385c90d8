package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CalendarDay is a timezone-free calendar date. It is stored as a
// year/month/day triple and compared through its canonical zero-padded
// YYYY-MM-DD string form, so ordering is plain lexicographic comparison.
//
// A CalendarDay is never derived by parsing an ambiguous timestamp in a
// local zone; it is always built from an explicit y/m/d decomposition to
// avoid timezone-induced off-by-one drift.
type CalendarDay struct {
	Year  int
	Month int
	Day   int
}

// ParseDay accepts only the exact YYYY-MM-DD pattern (4-2-2 digits,
// dash-separated). Month must be 1-12 and day 1-31; the day is NOT
// validated against month length (Feb 30 is accepted), matching the
// permissive behaviour of upstream feeds rather than silently correcting.
func ParseDay(raw string) (CalendarDay, error) {
	if len(raw) != 10 || raw[4] != '-' || raw[7] != '-' {
		return CalendarDay{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	year, err := atoiStrict(raw[0:4])
	if err != nil {
		return CalendarDay{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	month, err := atoiStrict(raw[5:7])
	if err != nil || month < 1 || month > 12 {
		return CalendarDay{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	day, err := atoiStrict(raw[8:10])
	if err != nil || day < 1 || day > 31 {
		return CalendarDay{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return CalendarDay{Year: year, Month: month, Day: day}, nil
}

// DayOf builds a CalendarDay from the date portion of t.
func DayOf(t time.Time) CalendarDay {
	return CalendarDay{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// String returns the canonical sortable form.
func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero value.
func (d CalendarDay) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Compare returns -1, 0 or 1 as d sorts before, equal to or after o.
func (d CalendarDay) Compare(o CalendarDay) int {
	return strings.Compare(d.String(), o.String())
}

// Before reports whether d sorts strictly before o.
func (d CalendarDay) Before(o CalendarDay) bool { return d.Compare(o) < 0 }

// After reports whether d sorts strictly after o.
func (d CalendarDay) After(o CalendarDay) bool { return d.Compare(o) > 0 }

// Equal reports whether the canonical forms match.
func (d CalendarDay) Equal(o CalendarDay) bool { return d.Compare(o) == 0 }

// AddDays returns the day n calendar days away. The arithmetic goes
// through time.Date in UTC (construct, add whole days, re-decompose), so
// it never crosses a daylight-saving boundary and is reversible:
// d.AddDays(n).AddDays(-n) == d for any valid d.
func (d CalendarDay) AddDays(n int) CalendarDay {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return DayOf(t.AddDate(0, 0, n))
}

// AddMonths returns the day n calendar months away, used for horizon ends.
func (d CalendarDay) AddMonths(n int) CalendarDay {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return DayOf(t.AddDate(0, n, 0))
}

// DaysBetween returns the whole-day distance from a to b (negative when b
// is before a).
func DaysBetween(a, b CalendarDay) int {
	ta := time.Date(a.Year, time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
	tb := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	return int(tb.Sub(ta) / (24 * time.Hour))
}

// MarshalJSON encodes the canonical string form.
func (d CalendarDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *CalendarDay) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("calendar day must be a string: %w", err)
	}
	parsed, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so the day persists as a DATE column.
func (d CalendarDay) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner, accepting DATE columns (time.Time from
// lib/pq) as well as raw text.
func (d *CalendarDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DayOf(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	case nil:
		*d = CalendarDay{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into CalendarDay", src)
	}
}

func (d *CalendarDay) scanString(raw string) error {
	if len(raw) > 10 {
		raw = raw[:10]
	}
	parsed, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func atoiStrict(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s)
		}
	}
	return strconv.Atoi(s)
}
