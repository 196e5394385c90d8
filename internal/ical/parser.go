// Package ical reads published booking-platform calendar feeds. It is a
// deliberately tolerant reader: unknown fields are ignored and malformed
// events are skipped instead of failing the whole feed, because upstream
// exports are frequently sloppy.
package ical

import "strings"

const (
	beginMarker = "BEGIN:VEVENT"
	endMarker   = "END:VEVENT"
)

// RawEvent is the transient parse artifact for a single VEVENT block.
// Nothing is required at this stage; missing fields are resolved (or the
// event discarded) by the normalizer.
type RawEvent struct {
	StartToken string
	EndToken   string
	Summary    string
	UID        string
}

// Parse converts full feed text into raw events. Empty or malformed text
// yields zero events, never an error: a feed with nothing parseable is a
// valid if useless outcome.
func Parse(text string) []RawEvent {
	if text == "" {
		return nil
	}

	lines := unfold(text)
	chunks := splitEvents(lines)

	events := make([]RawEvent, 0, len(chunks))
	for _, chunk := range chunks {
		events = append(events, RawEvent{
			StartToken: extractField(chunk, "DTSTART"),
			EndToken:   extractField(chunk, "DTEND"),
			Summary:    extractField(chunk, "SUMMARY"),
			UID:        extractField(chunk, "UID"),
		})
	}
	return events
}

// unfold splits the feed into logical lines, collapsing folded
// continuation lines (leading space or tab) into their predecessor.
func unfold(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitEvents cuts the logical lines into per-event chunks bounded by the
// begin marker and, when present, the end marker. A missing end marker
// means the remainder of the chunk is treated as one event.
func splitEvents(lines []string) [][]string {
	var chunks [][]string
	var current []string
	inEvent := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, beginMarker):
			if inEvent {
				chunks = append(chunks, current)
			}
			current = nil
			inEvent = true
		case strings.EqualFold(trimmed, endMarker):
			if inEvent {
				chunks = append(chunks, current)
				current = nil
				inEvent = false
			}
		default:
			if inEvent {
				current = append(current, line)
			}
		}
	}
	if inEvent && len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// extractField pulls the value for name from an event chunk. It tries the
// exact "NAME:value" form on every line first, then the parameterized
// "NAME;param=x:value" form, case-insensitively. First match wins and the
// value is trimmed of surrounding whitespace.
func extractField(lines []string, name string) string {
	exact := name + ":"
	for _, line := range lines {
		if len(line) >= len(exact) && strings.EqualFold(line[:len(exact)], exact) {
			return strings.TrimSpace(line[len(exact):])
		}
	}

	parameterized := name + ";"
	for _, line := range lines {
		if len(line) >= len(parameterized) && strings.EqualFold(line[:len(parameterized)], parameterized) {
			if idx := strings.Index(line, ":"); idx >= 0 {
				return strings.TrimSpace(line[idx+1:])
			}
		}
	}
	return ""
}
