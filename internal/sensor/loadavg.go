package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type loadAvg struct {
	load1, load5, load15 float64
	running, total       int64
	lastPID              int64
}

// parseLoadavg parses "<l1> <l5> <l15> <running>/<total> <lastPid>".
func parseLoadavg(content string) (loadAvg, error) {
	fields := strings.Fields(content)
	if len(fields) < 5 {
		return loadAvg{}, fmt.Errorf("unexpected loadavg: %q", strings.TrimSpace(content))
	}

	var (
		out loadAvg
		err error
	)
	loads := []*float64{&out.load1, &out.load5, &out.load15}
	for i, dst := range loads {
		if *dst, err = strconv.ParseFloat(fields[i], 64); err != nil {
			return loadAvg{}, fmt.Errorf("parse load %q: %w", fields[i], err)
		}
	}

	running, total, ok := strings.Cut(fields[3], "/")
	if !ok {
		return loadAvg{}, fmt.Errorf("unexpected process counts %q", fields[3])
	}
	if out.running, err = strconv.ParseInt(running, 10, 64); err != nil {
		return loadAvg{}, fmt.Errorf("parse running processes: %w", err)
	}
	if out.total, err = strconv.ParseInt(total, 10, 64); err != nil {
		return loadAvg{}, fmt.Errorf("parse total processes: %w", err)
	}
	if out.lastPID, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
		return loadAvg{}, fmt.Errorf("parse last pid: %w", err)
	}
	return out, nil
}

func readLoadavg(path string) (loadAvg, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return loadAvg{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parseLoadavg(string(raw))
}
