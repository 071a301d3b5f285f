package sensortop

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jondoveston/sensortop/internal/sensor"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestPercentages(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"disk 70", DiskUsedPercent(700, 300), "70.0"},
		{"disk 30", DiskUsedPercent(300, 700), "30.0"},
		{"disk empty", DiskUsedPercent(0, 0), "0"},
		{"disk rounding", DiskUsedPercent(1, 2), "33.3"},
		{"memory", MemoryUsedPercent(700, 1000), "70.0"},
		{"memory zero total", MemoryUsedPercent(5, 0), "0"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func seriesSpec(t *testing.T, key string) SeriesSpec {
	t.Helper()
	for _, s := range SERIES {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("no series %q", key)
	return SeriesSpec{}
}

func TestSeriesConfiguration(t *testing.T) {
	var keys []string
	for _, s := range SERIES {
		keys = append(keys, s.Key)
	}
	if got := strings.Join(keys, ","); got != "cpu,loadAvg1,loadAvg5,loadAvg15,running,total" {
		t.Errorf("series = %s", got)
	}
	if seriesSpec(t, "cpu").YMax != 100 {
		t.Error("cpu chart should be fixed to 100")
	}
	if !seriesSpec(t, "running").Integer || !seriesSpec(t, "total").Integer {
		t.Error("process charts should use integer values")
	}
}

func TestChartUpdate(t *testing.T) {
	c := NewChart(seriesSpec(t, "cpu"))
	ts := time.Date(2025, 7, 19, 16, 30, 0, 0, time.UTC)

	if c.Update(&sensor.Snapshot{}, ts) {
		t.Error("null cpuUsage should be skipped")
	}
	if c.Window.Len() != 0 {
		t.Fatalf("Len = %d after null value", c.Window.Len())
	}
	if c.Label() != "CPU Usage: N/A" {
		t.Errorf("Label = %q", c.Label())
	}

	if !c.Update(&sensor.Snapshot{CPUUsage: f64(12.5)}, ts) {
		t.Fatal("value should be pushed")
	}
	if c.Label() != "CPU Usage: 12.50%" {
		t.Errorf("Label = %q", c.Label())
	}

	procs := NewChart(seriesSpec(t, "running"))
	procs.Update(&sensor.Snapshot{RunningProcesses: i64(3)}, ts)
	if procs.Label() != "Running Processes: 3" {
		t.Errorf("Label = %q", procs.Label())
	}
}

func TestRenderColumns(t *testing.T) {
	rows := renderColumns([]float64{0, 50, 100}, 5, 2, 0, 100)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0] != "    █" {
		t.Errorf("top row = %q", rows[0])
	}
	if rows[1] != "   ██" {
		t.Errorf("bottom row = %q", rows[1])
	}

	rows = renderColumns([]float64{1, 2, 3, 4}, 2, 1, 0, 8)
	if rows[0] != "▃▄" {
		t.Errorf("clipped row = %q, want the newest two columns", rows[0])
	}
}

func TestChartRender(t *testing.T) {
	c := NewChart(seriesSpec(t, "loadAvg1"))
	if out := c.Render(20, 5); !strings.Contains(out, "Waiting for data") {
		t.Errorf("empty chart = %q", out)
	}
	for i := 0; i < 5; i++ {
		c.Update(&sensor.Snapshot{LoadAvg1: f64(float64(i))}, time.Unix(int64(i), 0))
	}
	out := c.Render(20, 5)
	if lipgloss.Height(out) != 5 {
		t.Errorf("height = %d, want 5", lipgloss.Height(out))
	}
	if !strings.Contains(out, "Load 1m: 4.00") {
		t.Errorf("missing label in %q", out)
	}
	if !strings.Contains(out, "since ") {
		t.Errorf("missing window start in %q", out)
	}
}

func TestMemoryChart(t *testing.T) {
	mc := NewMemoryChart()
	if mc.UsedPercent() != NOT_AVAILABLE {
		t.Errorf("UsedPercent = %q before data", mc.UsedPercent())
	}
	ts := time.Unix(0, 0)
	mc.Update(&sensor.Snapshot{MemTotal: i64(1000), MemUsed: i64(700), MemCached: i64(200), MemFree: i64(100)}, ts)
	mc.Update(&sensor.Snapshot{MemTotal: i64(1000), MemUsed: i64(600)}, ts.Add(time.Second))

	if mc.Used.Len() != 2 || mc.Cached.Len() != 1 || mc.Free.Len() != 1 {
		t.Errorf("lens = %d/%d/%d, want 2/1/1", mc.Used.Len(), mc.Cached.Len(), mc.Free.Len())
	}
	if mc.UsedPercent() != "60.0%" {
		t.Errorf("UsedPercent = %q, want 60.0%%", mc.UsedPercent())
	}
	if out := mc.Render(30, 20); !strings.Contains(out, "Memory: 60.0% used") {
		t.Errorf("render missing label: %q", out)
	}
}

func TestMemoryChartPercentFromOneSnapshot(t *testing.T) {
	mc := NewMemoryChart()
	ts := time.Unix(0, 0)
	mc.Update(&sensor.Snapshot{MemTotal: i64(1000), MemUsed: i64(700)}, ts)
	mc.Update(&sensor.Snapshot{MemTotal: i64(2000)}, ts.Add(time.Second))

	if mc.UsedPercent() != NOT_AVAILABLE {
		t.Errorf("UsedPercent = %q, want N/A when memUsed is null in the latest snapshot", mc.UsedPercent())
	}
	if mc.Used.Len() != 1 {
		t.Errorf("used window len = %d, want 1", mc.Used.Len())
	}
	for _, row := range mc.rows() {
		if row[0] == "Used" {
			t.Errorf("table shows %v from an older snapshot", row)
		}
	}
}

func TestDiskGauge(t *testing.T) {
	d := NewDiskGauge()
	if d.Percent() != NOT_AVAILABLE {
		t.Errorf("Percent = %q before data", d.Percent())
	}
	if d.Update(&sensor.Snapshot{DiskUsed: i64(700)}) {
		t.Error("partial disk reading should be skipped")
	}
	d.Update(&sensor.Snapshot{DiskUsed: i64(700), DiskFree: i64(300)})
	if d.Label() != "70.0% Used" {
		t.Errorf("Label = %q", d.Label())
	}
	if out := d.Render(30); !strings.Contains(out, "70.0% Used") {
		t.Errorf("render = %q", out)
	}
}

func TestFormatKiB(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 KiB"},
		{2048, "2.00 MiB"},
		{3 * 1024 * 1024, "3.00 GiB"},
	}
	for _, tt := range tests {
		if got := formatKiB(tt.in); got != tt.want {
			t.Errorf("formatKiB(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTabSetCycles(t *testing.T) {
	a := NewChart(seriesSpec(t, "loadAvg1"))
	b := NewChart(seriesSpec(t, "loadAvg5"))
	ts := NewTabSet(a, b)

	if ts.Selected() != a {
		t.Fatal("first chart should be selected")
	}
	ts.NextTab()
	if ts.Selected() != b {
		t.Error("NextTab should select the second chart")
	}
	ts.NextTab()
	if ts.Selected() != a {
		t.Error("NextTab should wrap")
	}
	ts.PrevTab()
	if ts.Selected() != b {
		t.Error("PrevTab should wrap backwards")
	}
	if !strings.Contains(ts.SetSize(30, 8).Render(), "Load 5m") {
		t.Error("render should show the selected chart")
	}
}

func TestWrapTableWraps(t *testing.T) {
	rows := [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	single := NewWrapTable().Headers("k", "v").Rows(rows...).Render()
	wrapped := NewWrapTable().MaxHeight(5).Headers("k", "v").Rows(rows...).Render()

	if lipgloss.Height(wrapped) >= lipgloss.Height(single) {
		t.Errorf("wrapped height %d should be below single height %d", lipgloss.Height(wrapped), lipgloss.Height(single))
	}
	if lipgloss.Width(wrapped) <= lipgloss.Width(single) {
		t.Error("wrapped table should be wider")
	}
	if NewWrapTable().Render() != "" {
		t.Error("empty table should render nothing")
	}
}
