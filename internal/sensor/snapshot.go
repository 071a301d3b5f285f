// Package sensor reads host metrics from /proc, the root filesystem and the
// authentication log and assembles them into a Snapshot.
package sensor

import "time"

// TimestampLayout is the wire format of Snapshot.Timestamp (always UTC).
const TimestampLayout = "2006-01-02T15:04:05Z"

// AJAXHeader and AJAXValue mark a request as coming from the dashboard rather
// than from a browser navigating to the endpoint directly.
const (
	AJAXHeader = "X-Requested-With"
	AJAXValue  = "XMLHttpRequest"
)

// Snapshot is one sample of host metrics. Pointer fields are null on the
// wire when their source could not be read.
type Snapshot struct {
	Hostname  string   `json:"hostname"`
	Timestamp string   `json:"timestamp"`
	CPUUsage  *float64 `json:"cpuUsage"`

	// Memory values are in kibibytes.
	MemTotal     *int64 `json:"memTotal"`
	MemUsed      *int64 `json:"memUsed"`
	MemAvailable *int64 `json:"memAvailable"`
	MemCached    *int64 `json:"memCached"`
	MemFree      *int64 `json:"memFree"`

	LoadAvg1  *float64 `json:"loadAvg1"`
	LoadAvg5  *float64 `json:"loadAvg5"`
	LoadAvg15 *float64 `json:"loadAvg15"`

	RunningProcesses *int64 `json:"runningProcesses"`
	TotalProcesses   *int64 `json:"totalProcesses"`
	LastPID          *int64 `json:"lastPid"`

	// Disk values are in kibibytes.
	DiskUsed *int64 `json:"diskUsed"`
	DiskFree *int64 `json:"diskFree"`

	// AuthLog holds the tail of the auth log, oldest first. When the log
	// can't be read it holds a single explanatory line and AuthLogError is set.
	AuthLog      []string `json:"authLog"`
	AuthLogError string   `json:"authLogError,omitempty"`

	Syslog      []string `json:"syslog,omitempty"`
	SyslogError string   `json:"syslogError,omitempty"`

	FailedLoginsLastHour *int64 `json:"failedLoginsLastHour"`
}

// Time parses the snapshot timestamp.
func (s *Snapshot) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, s.Timestamp)
}

func ptr[T any](v T) *T {
	return &v
}
