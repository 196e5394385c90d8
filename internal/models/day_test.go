package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayValid(t *testing.T) {
	day, err := ParseDay("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, CalendarDay{Year: 2026, Month: 1, Day: 5}, day)
	assert.Equal(t, "2026-01-05", day.String())
}

func TestParseDayPermissiveDayOfMonth(t *testing.T) {
	// Day-of-month is not validated against month length; upstream feeds
	// are permissive and we do not silently correct them.
	day, err := ParseDay("2026-02-30")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-30", day.String())
}

func TestParseDayInvalid(t *testing.T) {
	cases := []string{
		"",
		"2026-1-05",
		"2026/01/05",
		"20260105",
		"2026-13-01",
		"2026-00-01",
		"2026-01-32",
		"2026-01-00",
		"2026-01-05T00:00:00",
		"abcd-ef-gh",
	}
	for _, raw := range cases {
		_, err := ParseDay(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestCompareMatchesStringOrder(t *testing.T) {
	a, _ := ParseDay("2026-01-09")
	b, _ := ParseDay("2026-01-10")
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(a))
}

func TestAddDaysReversible(t *testing.T) {
	days := []string{"2026-01-31", "2026-02-28", "2024-02-29", "2026-12-31"}
	offsets := []int{-400, -31, -1, 0, 1, 28, 365, 1000}
	for _, raw := range days {
		d, err := ParseDay(raw)
		require.NoError(t, err)
		for _, n := range offsets {
			assert.Equal(t, d, d.AddDays(n).AddDays(-n), "%s +/- %d", raw, n)
		}
	}
}

func TestAddDaysCrossesMonthAndYear(t *testing.T) {
	d, _ := ParseDay("2025-12-31")
	assert.Equal(t, "2026-01-01", d.AddDays(1).String())

	d, _ = ParseDay("2026-03-01")
	assert.Equal(t, "2026-02-28", d.AddDays(-1).String())
}

func TestDaysBetween(t *testing.T) {
	a, _ := ParseDay("2026-01-05")
	b, _ := ParseDay("2026-01-08")
	assert.Equal(t, 3, DaysBetween(a, b))
	assert.Equal(t, -3, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 366, DaysBetween(CalendarDay{2024, 1, 1}, CalendarDay{2025, 1, 1}))
}

func TestCalendarDayJSONRoundTrip(t *testing.T) {
	d, _ := ParseDay("2026-07-04")
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-07-04"`, string(raw))

	var decoded CalendarDay
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, d, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"07/04/2026"`), &decoded))
}

func TestCalendarDayScan(t *testing.T) {
	var d CalendarDay
	require.NoError(t, d.Scan(time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-15", d.String())

	require.NoError(t, d.Scan([]byte("2026-03-16")))
	assert.Equal(t, "2026-03-16", d.String())

	require.NoError(t, d.Scan("2026-03-17T00:00:00"))
	assert.Equal(t, "2026-03-17", d.String())

	assert.Error(t, d.Scan(42))
}

func TestCalendarDayValue(t *testing.T) {
	d, _ := ParseDay("2026-03-15")
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", v)
}
