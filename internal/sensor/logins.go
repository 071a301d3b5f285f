package sensor

import (
	"regexp"
	"strings"
	"time"
)

// FailedLoginWindow is how far back CountFailedLogins looks.
const FailedLoginWindow = time.Hour

var failedLoginPattern = regexp.MustCompile(`(?i)authentication failure|failed password|connection closed by authenticating user|invalid user|disconnected from authenticating user`)

var (
	syslogStamp = regexp.MustCompile(`(?i)^([a-z]{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})`)
	isoStamp    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:\.\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?)`)
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CountFailedLogins counts lines logged within the hour before now that
// look like a failed authentication. Lines without a parseable leading
// timestamp are ignored.
func CountFailedLogins(lines []string, now time.Time) int {
	since := now.Add(-FailedLoginWindow)
	count := 0
	for _, line := range lines {
		ts, ok := lineTimestamp(line, now)
		if !ok {
			continue
		}
		if !ts.Before(since) && failedLoginPattern.MatchString(line) {
			count++
		}
	}
	return count
}

// lineTimestamp extracts a leading syslog ("Jul 19 16:18:16") or ISO-8601
// timestamp. Timestamps without a zone are read in now's location.
func lineTimestamp(line string, now time.Time) (time.Time, bool) {
	if m := syslogStamp.FindStringSubmatch(line); m != nil {
		ts, err := time.ParseInLocation("Jan 2 15:04:05", strings.Join(strings.Fields(m[1]), " "), now.Location())
		if err != nil {
			return time.Time{}, false
		}
		ts = ts.AddDate(now.Year()-ts.Year(), 0, 0)
		// syslog has no year; a stamp well ahead of now belongs to last year
		if ts.After(now.Add(24 * time.Hour)) {
			ts = ts.AddDate(-1, 0, 0)
		}
		return ts, true
	}

	if m := isoStamp.FindStringSubmatch(line); m != nil {
		for _, layout := range isoLayouts {
			if ts, err := time.ParseInLocation(layout, m[1], now.Location()); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
