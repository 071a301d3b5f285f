package sensor

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CPUSampleWindow is the pause between the two /proc/stat reads.
const CPUSampleWindow = 400 * time.Millisecond

// cpuFieldLimit caps the counters taken from the aggregate line:
// user nice system idle iowait irq softirq steal guest guest_nice.
const cpuFieldLimit = 10

// CPUSample holds the idle and summed counters of one aggregate cpu line.
type CPUSample struct {
	Idle  float64
	Total float64
}

type waitFunc func(ctx context.Context, d time.Duration) error

// parseCPULine parses the aggregate "cpu" line of /proc/stat. Parsing stops
// at the first non-numeric field; at least four counters are required.
func parseCPULine(line string) (CPUSample, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "cpu" {
		return CPUSample{}, fmt.Errorf("unexpected cpu line: %q", line)
	}

	vals := make([]float64, 0, cpuFieldLimit)
	for _, f := range fields[1:] {
		if len(vals) == cpuFieldLimit {
			break
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			break
		}
		vals = append(vals, v)
	}
	if len(vals) < 4 {
		return CPUSample{}, fmt.Errorf("cpu line has %d counters, need at least 4", len(vals))
	}

	var s CPUSample
	for _, v := range vals {
		s.Total += v
	}
	s.Idle = vals[3]
	return s, nil
}

// readCPUSample parses the first line of the stat file.
func readCPUSample(path string) (CPUSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return CPUSample{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return CPUSample{}, fmt.Errorf("scan %s: %w", path, err)
		}
		return CPUSample{}, fmt.Errorf("%s is empty", path)
	}
	return parseCPULine(s.Text())
}

// UsageBetween returns the busy percentage between two samples rounded to
// two decimals. No elapsed ticks counts as no usage.
func UsageBetween(prev, cur CPUSample) float64 {
	deltaTotal := cur.Total - prev.Total
	if deltaTotal <= 0 {
		return 0
	}
	deltaIdle := cur.Idle - prev.Idle
	return roundTo((1-deltaIdle/deltaTotal)*100, 2)
}

// CPUUsage reads the stat file twice, window apart, and returns the
// utilisation over that window.
func CPUUsage(ctx context.Context, path string, window time.Duration, wait waitFunc) (float64, error) {
	first, err := readCPUSample(path)
	if err != nil {
		return 0, err
	}
	if err := wait(ctx, window); err != nil {
		return 0, err
	}
	second, err := readCPUSample(path)
	if err != nil {
		return 0, err
	}
	return UsageBetween(first, second), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
