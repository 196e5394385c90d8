package ical

import (
	"fmt"
	"sort"
	"time"

	"github.com/hostlens/calendar-api/internal/models"
)

// TokenKind tags how a date token was decoded.
type TokenKind int

const (
	// TokenWholeDay is an 8-digit YYYYMMDD value.
	TokenWholeDay TokenKind = iota
	// TokenDateTime is a YYYYMMDDTHHMMSS value with optional trailing Z,
	// truncated to its date portion. Clock time and the UTC/local
	// distinction are discarded; only day granularity matters here.
	TokenDateTime
	// TokenFallback was recovered by general-purpose layout parsing.
	TokenFallback
)

// DecodedDate is the typed result of decoding a feed date token.
type DecodedDate struct {
	Day  models.CalendarDay
	Kind TokenKind
}

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeDateToken decodes a DTSTART/DTEND token with ordered pattern
// checks: whole-day, then basic date-time, then fallback layouts. The
// result is always a date-only value.
func DecodeDateToken(token string) (DecodedDate, error) {
	if token == "" {
		return DecodedDate{}, fmt.Errorf("empty date token")
	}

	if isDigits(token) && len(token) == 8 {
		day, err := dayFromBasic(token)
		if err != nil {
			return DecodedDate{}, err
		}
		return DecodedDate{Day: day, Kind: TokenWholeDay}, nil
	}

	if isBasicDateTime(token) {
		day, err := dayFromBasic(token[:8])
		if err != nil {
			return DecodedDate{}, err
		}
		return DecodedDate{Day: day, Kind: TokenDateTime}, nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return DecodedDate{Day: models.DayOf(t), Kind: TokenFallback}, nil
		}
	}
	return DecodedDate{}, fmt.Errorf("undecodable date token %q", token)
}

// Normalize turns raw events into candidate synced blocked periods for one
// feed, sorted by start day. Per-event recovery rules:
//
//   - undecodable DTSTART: event skipped
//   - missing DTEND: single blocked day [start, start+1)
//   - undecodable DTEND: event skipped
//   - end <= start (DTEND is exclusive): event skipped
//   - end strictly before today: event skipped (past bookings carry no
//     forward-looking value); in-progress blocks are retained even when
//     start is in the past
func Normalize(events []RawEvent, feedID, propertyID string, today models.CalendarDay) []models.BlockedPeriod {
	periods := make([]models.BlockedPeriod, 0, len(events))
	for _, ev := range events {
		start, err := DecodeDateToken(ev.StartToken)
		if err != nil {
			continue
		}

		var end models.CalendarDay
		if ev.EndToken == "" {
			end = start.Day.AddDays(1)
		} else {
			decoded, err := DecodeDateToken(ev.EndToken)
			if err != nil {
				continue
			}
			end = decoded.Day
		}

		if !end.After(start.Day) {
			continue
		}
		if end.Before(today) {
			continue
		}

		fid := feedID
		periods = append(periods, models.BlockedPeriod{
			PropertyID: propertyID,
			FeedID:     &fid,
			Source:     models.PeriodSourceSynced,
			StartDay:   start.Day,
			EndDay:     end,
			UID:        optional(ev.UID),
			Summary:    optional(ev.Summary),
		})
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].StartDay.Before(periods[j].StartDay)
	})
	return periods
}

func dayFromBasic(token string) (models.CalendarDay, error) {
	// Reuse ParseDay's bounds checks (month 1-12, day 1-31, nothing more)
	// so the normalizer stays as permissive as the parser.
	return models.ParseDay(token[:4] + "-" + token[4:6] + "-" + token[6:8])
}

func isBasicDateTime(token string) bool {
	if len(token) == 16 && token[15] == 'Z' {
		token = token[:15]
	}
	if len(token) != 15 || token[8] != 'T' {
		return false
	}
	return isDigits(token[:8]) && isDigits(token[9:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
