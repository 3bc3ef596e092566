// Package ytid extracts YouTube video identifiers from URLs and converts
// ISO-8601 durations into display labels.
package ytid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Matches the video id in every supported URL shape: youtu.be short links,
// /v/, /embed/, /shorts/ paths and watch?v= query forms, with or without
// trailing share-tracking parameters.
var videoIDPattern = regexp.MustCompile(`(?:youtu\.be/|/v/|/embed/|/shorts/|watch\?v=|[?&]v=)([^#&?/]+)`)

var isoDurationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ExtractVideoID returns the 11-character video id embedded in s.
// Non-YouTube or malformed input yields ("", false).
func ExtractVideoID(s string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(s)
	if m == nil || len(m[1]) != 11 {
		return "", false
	}
	return m[1], true
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// FormatDuration converts an ISO-8601 duration ("PT1H2M3S") into a clock
// label: "1:02:03" with hours, "2:03" without. Malformed input formats as
// "0:00".
func FormatDuration(iso string) string {
	h, m, s := parseISO(iso)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseDurationMs converts an ISO-8601 duration into milliseconds.
// Malformed input yields 0.
func ParseDurationMs(iso string) int {
	h, m, s := parseISO(iso)
	return (h*3600 + m*60 + s) * 1000
}

// ParseClock converts a clock label produced by FormatDuration back into
// whole seconds. Malformed input yields 0.
func ParseClock(label string) int {
	parts := strings.Split(label, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func parseISO(iso string) (h, m, s int) {
	matches := isoDurationPattern.FindStringSubmatch(iso)
	if len(matches) < 4 {
		return 0, 0, 0
	}
	h, _ = strconv.Atoi(matches[1])
	m, _ = strconv.Atoi(matches[2])
	s, _ = strconv.Atoi(matches[3])
	return h, m, s
}
