package ical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"PRODID:-//Booking Platform//EN\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART;VALUE=DATE:20260110\r\n" +
	"DTEND;VALUE=DATE:20260112\r\n" +
	"SUMMARY:Reserved\r\n" +
	"UID:abc123@platform.example\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"dtstart:20260201T140000Z\r\n" +
	"summary:Blocked (Not available)\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseExtractsEvents(t *testing.T) {
	events := Parse(sampleFeed)
	require.Len(t, events, 2)

	assert.Equal(t, "20260110", events[0].StartToken)
	assert.Equal(t, "20260112", events[0].EndToken)
	assert.Equal(t, "Reserved", events[0].Summary)
	assert.Equal(t, "abc123@platform.example", events[0].UID)

	// Field names match case-insensitively; absent fields stay empty.
	assert.Equal(t, "20260201T140000Z", events[1].StartToken)
	assert.Equal(t, "", events[1].EndToken)
	assert.Equal(t, "Blocked (Not available)", events[1].Summary)
	assert.Equal(t, "", events[1].UID)
}

func TestParseExactFormWinsOverParameterized(t *testing.T) {
	feed := "BEGIN:VEVENT\n" +
		"DTSTART;TZID=America/New_York:20260301T000000\n" +
		"DTSTART:20260302\n" +
		"END:VEVENT\n"
	events := Parse(feed)
	require.Len(t, events, 1)
	assert.Equal(t, "20260302", events[0].StartToken)
}

func TestParseUnfoldsContinuationLines(t *testing.T) {
	feed := "BEGIN:VEVENT\n" +
		"SUMMARY:Reserved for a very long\n" +
		" guest name that wrapped\n" +
		"DTSTART:20260110\n" +
		"END:VEVENT\n"
	events := Parse(feed)
	require.Len(t, events, 1)
	assert.Equal(t, "Reserved for a very longguest name that wrapped", events[0].Summary)
	assert.Equal(t, "20260110", events[0].StartToken)
}

func TestParseMissingEndMarker(t *testing.T) {
	feed := "BEGIN:VEVENT\n" +
		"DTSTART:20260110\n" +
		"DTEND:20260115\n"
	events := Parse(feed)
	require.Len(t, events, 1)
	assert.Equal(t, "20260110", events[0].StartToken)
	assert.Equal(t, "20260115", events[0].EndToken)
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	feed := "BEGIN:VEVENT\n" +
		"X-CUSTOM:whatever\n" +
		"LOCATION:somewhere\n" +
		"DTSTART:20260110\n" +
		"END:VEVENT\n"
	events := Parse(feed)
	require.Len(t, events, 1)
	assert.Equal(t, "20260110", events[0].StartToken)
}

func TestParseTrimsValues(t *testing.T) {
	feed := "BEGIN:VEVENT\nDTSTART:  20260110  \nEND:VEVENT\n"
	events := Parse(feed)
	require.Len(t, events, 1)
	assert.Equal(t, "20260110", events[0].StartToken)
}

func TestParseGarbageYieldsNoEvents(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("not a calendar at all"))
	assert.Empty(t, Parse("BEGIN:VCALENDAR\nEND:VCALENDAR\n"))
}
