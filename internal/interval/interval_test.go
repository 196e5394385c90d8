package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlens/calendar-api/internal/models"
)

func day(t *testing.T, raw string) models.CalendarDay {
	t.Helper()
	d, err := models.ParseDay(raw)
	require.NoError(t, err)
	return d
}

func span(t *testing.T, start, end string) Span {
	t.Helper()
	return Span{Start: day(t, start), End: day(t, end)}
}

func TestMergeEmpty(t *testing.T) {
	assert.Nil(t, Merge(nil))
	assert.Nil(t, Merge([]Span{}))
}

func TestMergeDropsInvalidSpans(t *testing.T) {
	out := Merge([]Span{
		span(t, "2026-01-10", "2026-01-10"),
		span(t, "2026-01-12", "2026-01-11"),
	})
	assert.Empty(t, out)
}

func TestMergeTouchingRanges(t *testing.T) {
	// Adjacency uses the exclusive end: [10,12) + [12,15) is one block.
	out := Merge([]Span{
		span(t, "2026-01-10", "2026-01-12"),
		span(t, "2026-01-12", "2026-01-15"),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "2026-01-10", out[0].Start.String())
	assert.Equal(t, "2026-01-15", out[0].End.String())
}

func TestMergeLeavesGapOfOneDay(t *testing.T) {
	// [10,12) and [13,15) leave the 12th open and must not merge.
	out := Merge([]Span{
		span(t, "2026-01-10", "2026-01-12"),
		span(t, "2026-01-13", "2026-01-15"),
	})
	require.Len(t, out, 2)
}

func TestMergeOverlappingAndContained(t *testing.T) {
	out := Merge([]Span{
		span(t, "2026-01-20", "2026-01-22"),
		span(t, "2026-01-01", "2026-01-10"),
		span(t, "2026-01-05", "2026-01-07"),
		span(t, "2026-01-09", "2026-01-15"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, span(t, "2026-01-01", "2026-01-15"), out[0])
	assert.Equal(t, span(t, "2026-01-20", "2026-01-22"), out[1])
	assert.NoError(t, Verify(out))
}

func TestMergePreservesCoveredDays(t *testing.T) {
	input := []Span{
		span(t, "2026-02-01", "2026-02-05"),
		span(t, "2026-02-04", "2026-02-10"),
		span(t, "2026-02-10", "2026-02-11"),
		span(t, "2026-02-20", "2026-02-21"),
	}
	out := Merge(input)
	require.NoError(t, Verify(out))

	// The merged output covers exactly the same day set as the input union.
	covered := func(spans []Span) map[string]bool {
		days := map[string]bool{}
		for _, s := range spans {
			for d := s.Start; d.Before(s.End); d = d.AddDays(1) {
				days[d.String()] = true
			}
		}
		return days
	}
	assert.Equal(t, covered(input), covered(out))
}

func TestComplementFullyBlockedHorizon(t *testing.T) {
	horizon := span(t, "2026-01-01", "2026-04-01")
	blocked := []Span{span(t, "2025-12-20", "2026-05-01")}
	assert.Empty(t, Complement(blocked, horizon))
}

func TestComplementOpenHorizon(t *testing.T) {
	horizon := span(t, "2026-01-01", "2026-02-01")
	out := Complement(nil, horizon)
	require.Len(t, out, 1)
	assert.Equal(t, horizon, out[0])
}

func TestComplementCutsAroundBlocks(t *testing.T) {
	horizon := span(t, "2026-01-01", "2026-02-01")
	blocked := Merge([]Span{
		span(t, "2025-12-01", "2025-12-15"), // fully before: contributes nothing
		span(t, "2026-01-05", "2026-01-10"),
		span(t, "2026-01-20", "2026-03-01"), // runs past horizon: truncates tail
	})

	out := Complement(blocked, horizon)
	require.Len(t, out, 2)
	assert.Equal(t, span(t, "2026-01-01", "2026-01-05"), out[0])
	assert.Equal(t, span(t, "2026-01-10", "2026-01-20"), out[1])
}

func TestComplementDisjointFromBlocked(t *testing.T) {
	horizon := span(t, "2026-01-01", "2026-03-01")
	blocked := Merge([]Span{
		span(t, "2026-01-10", "2026-01-12"),
		span(t, "2026-02-01", "2026-02-15"),
	})
	open := Complement(blocked, horizon)

	// No open range overlaps a blocked one, and together they tile the horizon.
	total := 0
	for _, o := range open {
		for _, b := range blocked {
			overlap := o.Start.Before(b.End) && b.Start.Before(o.End)
			assert.False(t, overlap, "open %v overlaps blocked %v", o, b)
		}
		total += models.DaysBetween(o.Start, o.End)
	}
	for _, b := range blocked {
		total += models.DaysBetween(b.Start, b.End)
	}
	assert.Equal(t, models.DaysBetween(horizon.Start, horizon.End), total)
}

func TestVerifyDetectsOverlap(t *testing.T) {
	assert.Error(t, Verify([]Span{
		span(t, "2026-01-01", "2026-01-10"),
		span(t, "2026-01-05", "2026-01-12"),
	}))
	assert.Error(t, Verify([]Span{span(t, "2026-01-10", "2026-01-10")}))
	assert.NoError(t, Verify([]Span{
		span(t, "2026-01-01", "2026-01-10"),
		span(t, "2026-01-11", "2026-01-12"),
	}))
}
