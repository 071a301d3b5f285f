package sensortop

import "time"

// Point is one timestamped reading in a RollingWindow
type Point struct {
	Time  time.Time
	Value float64
}

// RollingWindow keeps the most recent readings of one series, oldest first.
// Once full, each Push evicts the oldest point.
type RollingWindow struct {
	points   []Point
	capacity int
}

// NewRollingWindow creates an empty window; a non-positive capacity means MAX_DATA_POINTS
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity <= 0 {
		capacity = MAX_DATA_POINTS
	}
	return &RollingWindow{
		points:   make([]Point, 0, capacity),
		capacity: capacity,
	}
}

func (w *RollingWindow) Push(t time.Time, v float64) {
	if len(w.points) == w.capacity {
		copy(w.points, w.points[1:])
		w.points = w.points[:len(w.points)-1]
	}
	w.points = append(w.points, Point{Time: t, Value: v})
}

func (w *RollingWindow) Len() int {
	return len(w.points)
}

// Points returns a copy of the readings, oldest first
func (w *RollingWindow) Points() []Point {
	out := make([]Point, len(w.points))
	copy(out, w.points)
	return out
}

// Values returns just the reading values, oldest first
func (w *RollingWindow) Values() []float64 {
	out := make([]float64, len(w.points))
	for i, p := range w.points {
		out[i] = p.Value
	}
	return out
}

// Last returns the newest point, if any
func (w *RollingWindow) Last() (Point, bool) {
	if len(w.points) == 0 {
		return Point{}, false
	}
	return w.points[len(w.points)-1], true
}
