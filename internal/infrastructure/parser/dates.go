package parser

import (
	"regexp"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Jan 2, 2006, 15:04",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006, 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006, 15:04",
	"January 2, 2006 15:04",
	"January 2, 2006, 3:04 PM",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006, 15:04",
	"2 Jan 2006 15:04",
	"2 Jan 2006, 3:04 PM",
	"2 Jan 2006",
	"2 January 2006, 15:04",
	"2 January 2006 15:04",
	"2 January 2006",
}

var (
	noisePrefix = regexp.MustCompile(`(?i)\b(first published|last updated|updated|published|posted)\b\s*(on|at)?\s*:?`)
	noiseZone   = regexp.MustCompile(`\(?\b(IST|GMT|UTC|EST|EDT|CST|CDT|PST|PDT|BST|CET|CEST|AEST|AEDT|JST|SGT)\b\)?`)
	monthDot    = regexp.MustCompile(`\b(Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.`)

	// datePattern finds a date-like run inside free text such as bylines.
	datePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?)?` +
		`|[A-Z][a-z]{2,8}\.? \d{1,2}, \d{4}(?:,? \d{1,2}:\d{2}(?: ?[AP]M)?)?` +
		`|\d{1,2} [A-Z][a-z]{2,8}\.? \d{4}(?:,? \d{1,2}:\d{2}(?: ?[AP]M)?)?)`)
)

// zoneOffsets holds the standard offsets of the abbreviations noiseZone strips.
var zoneOffsets = map[string]int{
	"IST":  5*3600 + 1800,
	"GMT":  0,
	"UTC":  0,
	"EST":  -5 * 3600,
	"EDT":  -4 * 3600,
	"CST":  -6 * 3600,
	"CDT":  -5 * 3600,
	"PST":  -8 * 3600,
	"PDT":  -7 * 3600,
	"BST":  1 * 3600,
	"CET":  1 * 3600,
	"CEST": 2 * 3600,
	"AEST": 10 * 3600,
	"AEDT": 11 * 3600,
	"JST":  9 * 3600,
	"SGT":  8 * 3600,
}

// parseDate normalizes a published-time string. It never fails: when nothing
// parses the ingestion time is returned.
func parseDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if t, ok := tryLayouts(raw, time.UTC); ok {
		return t
	}
	if t, ok := tryLayouts(stripDateNoise(raw), zoneOf(raw)); ok {
		return t
	}
	return now
}

// tryLayouts parses value in loc unless the layout carries its own offset.
func tryLayouts(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func zoneOf(value string) *time.Location {
	m := noiseZone.FindStringSubmatch(value)
	if m == nil {
		return time.UTC
	}
	offset, ok := zoneOffsets[m[1]]
	if !ok || offset == 0 {
		return time.UTC
	}
	return time.FixedZone(m[1], offset)
}

func stripDateNoise(value string) string {
	value = noisePrefix.ReplaceAllString(value, " ")
	value = noiseZone.ReplaceAllString(value, " ")
	value = monthDot.ReplaceAllString(value, "$1")
	value = strings.ReplaceAll(value, "|", " ")
	value = strings.Join(strings.Fields(value), " ")
	return strings.Trim(value, " ,-")
}
