package sensor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Sampler keeps a continuously refreshed CPU usage reading so requests
// don't have to wait for a two-sample measurement.
type Sampler struct {
	path   string
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	prev    CPUSample
	hasPrev bool
	latest  float64
	hasUse  bool
}

func NewSampler(path string, window time.Duration, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if window <= 0 {
		window = CPUSampleWindow
	}
	return &Sampler{path: path, window: window, logger: logger}
}

// Run samples every window until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sample()
		}
	}
}

// Latest returns the most recent usage and whether one is available.
func (s *Sampler) Latest() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasUse
}

func (s *Sampler) sample() {
	cur, err := readCPUSample(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// a gap in readings must not be bridged by one huge delta
		s.hasPrev = false
		s.hasUse = false
		s.logger.Warn("cpu sample failed", "error", err)
		return
	}
	if s.hasPrev {
		s.latest = UsageBetween(s.prev, cur)
		s.hasUse = true
	}
	s.prev = cur
	s.hasPrev = true
}
