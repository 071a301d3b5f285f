package sensortop

import (
	"testing"
	"time"
)

func TestRollingWindowEvictsOldest(t *testing.T) {
	w := NewRollingWindow(MAX_DATA_POINTS)
	start := time.Date(2025, 7, 19, 16, 0, 0, 0, time.UTC)
	for i := 0; i < 61; i++ {
		w.Push(start.Add(time.Duration(i)*FetchDuration()), float64(i))
	}

	if w.Len() != 60 {
		t.Fatalf("Len = %d, want 60", w.Len())
	}
	points := w.Points()
	if points[0].Value != 1 {
		t.Errorf("oldest value = %v, want 1 (the first push should be evicted)", points[0].Value)
	}
	if !points[0].Time.Equal(start.Add(FetchDuration())) {
		t.Errorf("oldest time = %v", points[0].Time)
	}
	last, ok := w.Last()
	if !ok || last.Value != 60 {
		t.Errorf("Last = %v, %v; want 60", last.Value, ok)
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Time.After(points[i-1].Time) {
			t.Fatalf("points out of order at %d", i)
		}
	}
}

func TestRollingWindowNeverExceedsCapacity(t *testing.T) {
	w := NewRollingWindow(3)
	for i := 0; i < 10; i++ {
		w.Push(time.Unix(int64(i), 0), float64(i))
		if w.Len() > 3 {
			t.Fatalf("Len = %d after %d pushes", w.Len(), i+1)
		}
	}
	got := w.Values()
	want := []float64{7, 8, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values = %v, want %v", got, want)
		}
	}
}

func TestRollingWindowDefaults(t *testing.T) {
	w := NewRollingWindow(0)
	if _, ok := w.Last(); ok {
		t.Error("empty window should have no last point")
	}
	if len(w.Values()) != 0 {
		t.Error("empty window should have no values")
	}
	for i := 0; i < MAX_DATA_POINTS+1; i++ {
		w.Push(time.Unix(int64(i), 0), float64(i))
	}
	if w.Len() != MAX_DATA_POINTS {
		t.Errorf("Len = %d, want the default capacity %d", w.Len(), MAX_DATA_POINTS)
	}
}

func TestConstants(t *testing.T) {
	if FetchDuration() != 5*time.Second {
		t.Errorf("FetchDuration = %v, want 5s", FetchDuration())
	}
	if WindowSpan(FetchDuration()) != 5*time.Minute {
		t.Errorf("WindowSpan = %v, want 5m", WindowSpan(FetchDuration()))
	}
}
