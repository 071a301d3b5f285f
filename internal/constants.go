package sensortop

import (
	"time"
)

const (
	// MAX_DATA_POINTS is how many readings each rolling window keeps
	MAX_DATA_POINTS = 60

	// FETCH_INTERVAL is the default time between snapshot fetches in milliseconds
	FETCH_INTERVAL = 5000

	// CONNECTION_ERROR_TITLE replaces the hostname while the last fetch failed
	CONNECTION_ERROR_TITLE = "Connection Error"

	// NOT_AVAILABLE is shown for stats the snapshot reported as null
	NOT_AVAILABLE = "N/A"
)

// FetchDuration returns the default fetch interval as a time.Duration
func FetchDuration() time.Duration {
	return FETCH_INTERVAL * time.Millisecond
}

// WindowSpan returns how much history a full window covers at the given interval
func WindowSpan(interval time.Duration) time.Duration {
	return time.Duration(MAX_DATA_POINTS) * interval
}
