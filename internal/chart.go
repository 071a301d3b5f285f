package sensortop

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jondoveston/sensortop/internal/sensor"
)

// sparkBlocks are the eighth-height blocks used to draw chart columns
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SeriesSpec describes one charted snapshot field
type SeriesSpec struct {
	Key     string
	Title   string
	Unit    string
	Color   lipgloss.Color
	Integer bool
	// YMax fixes the top of the scale; zero scales to the largest visible value
	YMax  float64
	Value func(*sensor.Snapshot) *float64
}

func intField(get func(*sensor.Snapshot) *int64) func(*sensor.Snapshot) *float64 {
	return func(s *sensor.Snapshot) *float64 {
		v := get(s)
		if v == nil {
			return nil
		}
		f := float64(*v)
		return &f
	}
}

// SERIES are the line charts the dashboard keeps, in display order
var SERIES = []SeriesSpec{
	{Key: "cpu", Title: "CPU Usage", Unit: "%", Color: lipgloss.Color("203"), YMax: 100,
		Value: func(s *sensor.Snapshot) *float64 { return s.CPUUsage }},
	{Key: "loadAvg1", Title: "Load 1m", Color: lipgloss.Color("39"),
		Value: func(s *sensor.Snapshot) *float64 { return s.LoadAvg1 }},
	{Key: "loadAvg5", Title: "Load 5m", Color: lipgloss.Color("45"),
		Value: func(s *sensor.Snapshot) *float64 { return s.LoadAvg5 }},
	{Key: "loadAvg15", Title: "Load 15m", Color: lipgloss.Color("51"),
		Value: func(s *sensor.Snapshot) *float64 { return s.LoadAvg15 }},
	{Key: "running", Title: "Running Processes", Color: lipgloss.Color("214"), Integer: true,
		Value: intField(func(s *sensor.Snapshot) *int64 { return s.RunningProcesses })},
	{Key: "total", Title: "Total Processes", Color: lipgloss.Color("170"), Integer: true,
		Value: intField(func(s *sensor.Snapshot) *int64 { return s.TotalProcesses })},
}

// Chart pairs a series with its rolling window
type Chart struct {
	Spec   SeriesSpec
	Window *RollingWindow
}

func NewChart(spec SeriesSpec) *Chart {
	return &Chart{Spec: spec, Window: NewRollingWindow(MAX_DATA_POINTS)}
}

// Update appends the snapshot's value at ts. A null value is skipped and
// reported as false.
func (c *Chart) Update(snap *sensor.Snapshot, ts time.Time) bool {
	v := c.Spec.Value(snap)
	if v == nil {
		return false
	}
	c.Window.Push(ts, *v)
	return true
}

// FormatValue renders v the way the chart label shows it
func (c *Chart) FormatValue(v float64) string {
	if c.Spec.Integer {
		return fmt.Sprintf("%d%s", int64(math.Round(v)), c.Spec.Unit)
	}
	return fmt.Sprintf("%.2f%s", v, c.Spec.Unit)
}

// Label is the title with the latest value, or N/A before the first reading
func (c *Chart) Label() string {
	p, ok := c.Window.Last()
	if !ok {
		return c.Spec.Title + ": " + NOT_AVAILABLE
	}
	return c.Spec.Title + ": " + c.FormatValue(p.Value)
}

func (c *Chart) scaleMax(values []float64) float64 {
	if c.Spec.YMax > 0 {
		return c.Spec.YMax
	}
	top := 0.0
	for _, v := range values {
		top = math.Max(top, v)
	}
	if top == 0 {
		return 1
	}
	if c.Spec.Integer {
		return math.Ceil(top)
	}
	return top
}

// Render draws the label and a column chart of the newest width points
func (c *Chart) Render(width, height int) string {
	labelStyle := lipgloss.NewStyle().Foreground(c.Spec.Color).Bold(true)
	label := labelStyle.Render(c.Label())
	if height <= 1 || width <= 0 {
		return label
	}
	if c.Window.Len() == 0 {
		return label + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("Waiting for data...")
	}

	points := c.Window.Points()
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	rows := renderColumns(values, width, height-1, 0, c.scaleMax(values))
	style := lipgloss.NewStyle().Foreground(c.Spec.Color)
	for i, row := range rows {
		rows[i] = style.Render(row)
	}
	since := lipgloss.NewStyle().Foreground(paneMutedColor).Render("  since " + points[0].Time.Format("15:04:05"))
	return label + since + "\n" + strings.Join(rows, "\n")
}

// renderColumns draws one column per value, newest on the right, using
// eighth blocks so each row adds eight steps of resolution
func renderColumns(values []float64, width, height int, lo, hi float64) []string {
	if width < len(values) {
		values = values[len(values)-width:]
	}
	pad := width - len(values)

	eighths := make([]int, len(values))
	for i, v := range values {
		frac := 0.0
		if hi > lo {
			frac = math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
		}
		eighths[i] = int(math.Round(frac * float64(height*8)))
	}

	rows := make([]string, height)
	for r := 0; r < height; r++ {
		floor := (height - 1 - r) * 8
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", pad))
		for _, e := range eighths {
			cell := e - floor
			switch {
			case cell <= 0:
				b.WriteRune(' ')
			case cell >= 8:
				b.WriteRune(sparkBlocks[7])
			default:
				b.WriteRune(sparkBlocks[cell-1])
			}
		}
		rows[r] = b.String()
	}
	return rows
}
