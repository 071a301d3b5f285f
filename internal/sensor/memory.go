package sensor

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type memInfo struct {
	total     *int64
	free      *int64
	available *int64
	cached    *int64
}

// used is MemTotal - MemAvailable, or nil when either is missing.
func (m memInfo) used() *int64 {
	if m.total == nil || m.available == nil {
		return nil
	}
	return ptr(*m.total - *m.available)
}

// readMeminfo picks the kB values the snapshot needs out of /proc/meminfo.
// Keys that are missing or malformed stay nil.
func readMeminfo(path string) (memInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return memInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var m memInfo
	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 2 {
			continue
		}
		v, convErr := strconv.ParseInt(fields[1], 10, 64)
		if convErr != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			m.total = ptr(v)
		case "MemFree:":
			m.free = ptr(v)
		case "MemAvailable:":
			m.available = ptr(v)
		case "Cached:":
			m.cached = ptr(v)
		}
	}
	if err := s.Err(); err != nil {
		return memInfo{}, fmt.Errorf("scan %s: %w", path, err)
	}
	return m, nil
}
