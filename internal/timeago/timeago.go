// Package timeago renders server timestamps as relative strings.
package timeago

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Fallback is returned for timestamps that cannot be parsed.
const Fallback = "Unknown time"

// layouts are tried in order when parsing a timestamp.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse parses an ISO-8601 style timestamp as sent by the API.
func Parse(iso string) (time.Time, bool) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Format returns a relative description of iso as seen from now,
// e.g. "3 minutes ago". Timestamps slightly in the future (clock skew)
// read as "now".
func Format(iso string, now time.Time) string {
	t, ok := Parse(iso)
	if !ok {
		return Fallback
	}
	if t.After(now) && t.Sub(now) < time.Minute {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
