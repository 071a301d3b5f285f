package sensor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSamplerSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	writeFile(t, path, "cpu 0 0 0 100\n")
	s := NewSampler(path, time.Second, nil)

	s.sample()
	if _, ok := s.Latest(); ok {
		t.Fatal("one sample should not yield a reading")
	}

	writeFile(t, path, "cpu 25 0 25 150\n")
	s.sample()
	v, ok := s.Latest()
	if !ok || v != 50 {
		t.Fatalf("Latest = %v, %v; want 50, true", v, ok)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	s.sample()
	if _, ok := s.Latest(); ok {
		t.Fatal("a failed read should clear the reading")
	}

	writeFile(t, path, "cpu 1000 0 0 1000\n")
	s.sample()
	if _, ok := s.Latest(); ok {
		t.Fatal("first sample after a gap should not yield a reading")
	}
}

func TestSamplerRunStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	writeFile(t, path, "cpu 0 0 0 100\n")
	s := NewSampler(path, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
