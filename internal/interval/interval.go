// Package interval holds the pure day-range algebra the availability
// engine is built on: merging blocked spans and complementing them
// against a query horizon.
package interval

import (
	"fmt"
	"sort"

	"github.com/hostlens/calendar-api/internal/models"
)

// Span is a half-open day range [Start, End).
type Span struct {
	Start models.CalendarDay
	End   models.CalendarDay
}

// Valid reports whether the span covers at least one day.
func (s Span) Valid() bool {
	return s.End.After(s.Start)
}

// Merge collapses spans into a minimal, start-sorted, pairwise-disjoint
// set. Overlapping and exactly-adjacent spans merge: because End is
// exclusive, next.Start == current.End means the ranges touch with no gap.
// Invalid spans (End <= Start) are dropped. The input slice is not
// modified.
func Merge(spans []Span) []Span {
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Valid() {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := make([]Span, 0, len(valid))
	current := valid[0]
	for _, next := range valid[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

// Complement returns the open sub-ranges of horizon not covered by any of
// the blocked spans. Blocked must already be merged (sorted, disjoint);
// spans fully outside the horizon contribute nothing, spans extending past
// it truncate the open tail. A fully covered horizon yields an empty
// result.
func Complement(blocked []Span, horizon Span) []Span {
	if !horizon.Valid() {
		return nil
	}

	open := make([]Span, 0, len(blocked)+1)
	cursor := horizon.Start
	for _, b := range blocked {
		if !b.End.After(horizon.Start) {
			continue
		}
		if !b.Start.Before(horizon.End) {
			break
		}
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(horizon.End) {
				end = horizon.End
			}
			if end.After(cursor) {
				open = append(open, Span{Start: cursor, End: end})
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(horizon.End) {
			return open
		}
	}
	if cursor.Before(horizon.End) {
		open = append(open, Span{Start: cursor, End: horizon.End})
	}
	return open
}

// Verify checks the merge invariant: sorted, valid, pairwise-disjoint and
// non-adjacent. A violation indicates a programming error upstream and is
// returned so callers can abort instead of persisting a corrupt set.
func Verify(spans []Span) error {
	for i, s := range spans {
		if !s.Valid() {
			return fmt.Errorf("span %d has end %s <= start %s", i, s.End, s.Start)
		}
		if i > 0 && !spans[i-1].End.Before(s.Start) {
			return fmt.Errorf("span %d starting %s overlaps or touches previous ending %s", i, s.Start, spans[i-1].End)
		}
	}
	return nil
}
