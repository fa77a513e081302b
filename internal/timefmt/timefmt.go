// Package timefmt handles the ISO timestamp format of stored records and the
// human-readable labels derived from it.
package timefmt

import (
	"fmt"
	"time"
)

// isoLayout matches the original records: UTC, millisecond precision, "Z".
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Stamp renders a timestamp the way every stored record carries it.
// The output sorts chronologically as a plain string.
func Stamp(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// Parse reads a stored timestamp. The zero time is returned on malformed
// input so that readers fail closed instead of erroring.
func Parse(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LastSeen renders a last-seen timestamp relative to now's local day:
// "Today at HH:MM", "Yesterday at HH:MM", or "D/M/YYYY HH:MM".
func LastSeen(t, now time.Time) string {
	t = t.In(now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	switch {
	case !t.Before(today):
		return fmt.Sprintf("Today at %02d:%02d", t.Hour(), t.Minute())
	case !t.Before(yesterday):
		return fmt.Sprintf("Yesterday at %02d:%02d", t.Hour(), t.Minute())
	default:
		return fmt.Sprintf("%d/%d/%d %02d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
	}
}

// MessageTime renders the in-bubble "HH:MM" label.
func MessageTime(t, now time.Time) string {
	t = t.In(now.Location())
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
