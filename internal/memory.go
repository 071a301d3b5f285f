package sensortop

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jondoveston/sensortop/internal/sensor"
)

var (
	memUsedColor   = lipgloss.Color("203")
	memCachedColor = lipgloss.Color("214")
	memFreeColor   = lipgloss.Color("42")
)

// MemoryChart stacks used, cached and free memory per reading, scaled to
// the latest memTotal
type MemoryChart struct {
	Used   *RollingWindow
	Cached *RollingWindow
	Free   *RollingWindow

	// latest snapshot's readings, kept together so the percentage and
	// table never mix ticks
	used      *int64
	cached    *int64
	free      *int64
	total     *int64
	available *int64
}

func NewMemoryChart() *MemoryChart {
	return &MemoryChart{
		Used:   NewRollingWindow(MAX_DATA_POINTS),
		Cached: NewRollingWindow(MAX_DATA_POINTS),
		Free:   NewRollingWindow(MAX_DATA_POINTS),
	}
}

// Update pushes every non-null memory field of snap
func (mc *MemoryChart) Update(snap *sensor.Snapshot, ts time.Time) {
	push := func(w *RollingWindow, v *int64) {
		if v != nil {
			w.Push(ts, float64(*v))
		}
	}
	push(mc.Used, snap.MemUsed)
	push(mc.Cached, snap.MemCached)
	push(mc.Free, snap.MemFree)
	mc.used = snap.MemUsed
	mc.cached = snap.MemCached
	mc.free = snap.MemFree
	mc.total = snap.MemTotal
	mc.available = snap.MemAvailable
}

// UsedPercent is memUsed/memTotal of the latest snapshot, or N/A when
// either was null in it
func (mc *MemoryChart) UsedPercent() string {
	if mc.used == nil || mc.total == nil {
		return NOT_AVAILABLE
	}
	return MemoryUsedPercent(*mc.used, *mc.total) + "%"
}

func (mc *MemoryChart) Label() string {
	return "Memory: " + mc.UsedPercent() + " used"
}

// Render draws the stacked columns above a table of the latest values
func (mc *MemoryChart) Render(width, height int) string {
	label := lipgloss.NewStyle().Foreground(memUsedColor).Bold(true).Render(mc.Label())
	if mc.Used.Len() == 0 && mc.Cached.Len() == 0 && mc.Free.Len() == 0 {
		return label + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("Waiting for data...")
	}

	legend := strings.Join([]string{
		lipgloss.NewStyle().Foreground(memUsedColor).Render("█ used"),
		lipgloss.NewStyle().Foreground(memCachedColor).Render("█ cached"),
		lipgloss.NewStyle().Foreground(memFreeColor).Render("█ free"),
	}, "  ")

	table := NewWrapTable().
		MaxHeight(height - 2).
		Headers("Memory", "Value").
		Rows(mc.rows()...)
	tableView := table.Render()

	chartHeight := height - 2 - lipgloss.Height(tableView)
	if chartHeight < 2 {
		// not enough room for both; the table carries the numbers
		return lipgloss.JoinVertical(lipgloss.Left, label, tableView)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, mc.renderStack(width, chartHeight), legend, tableView)
}

func (mc *MemoryChart) rows() [][]string {
	var rows [][]string
	add := func(name string, v *int64) {
		if v != nil {
			rows = append(rows, []string{name, formatKiB(*v)})
		}
	}
	add("Total", mc.total)
	add("Used", mc.used)
	add("Cached", mc.cached)
	add("Free", mc.free)
	add("Available", mc.available)
	return rows
}

// renderStack draws used at the bottom, cached above it and free on top,
// each rounded to whole rows
func (mc *MemoryChart) renderStack(width, height int) string {
	used, cached, free := alignRight(mc.Used.Values(), mc.Cached.Values(), mc.Free.Values())
	n := len(used)
	if width < n {
		used, cached, free = used[n-width:], cached[n-width:], free[n-width:]
		n = width
	}

	top := 0.0
	if mc.total != nil {
		top = float64(*mc.total)
	}
	for i := 0; i < n; i++ {
		top = math.Max(top, used[i]+cached[i]+free[i])
	}
	if top <= 0 {
		top = 1
	}

	toRows := func(v float64) int {
		return int(math.Round(v / top * float64(height)))
	}
	usedStyle := lipgloss.NewStyle().Foreground(memUsedColor)
	cachedStyle := lipgloss.NewStyle().Foreground(memCachedColor)
	freeStyle := lipgloss.NewStyle().Foreground(memFreeColor)

	lines := make([]string, height)
	for r := 0; r < height; r++ {
		level := height - r
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", width-n))
		for i := 0; i < n; i++ {
			u := toRows(used[i])
			c := toRows(used[i] + cached[i])
			f := toRows(used[i] + cached[i] + free[i])
			switch {
			case level <= u:
				b.WriteString(usedStyle.Render("█"))
			case level <= c:
				b.WriteString(cachedStyle.Render("█"))
			case level <= f:
				b.WriteString(freeStyle.Render("█"))
			default:
				b.WriteByte(' ')
			}
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

// alignRight left-pads the shorter series with zeros so all three end on
// the newest reading
func alignRight(series ...[]float64) ([]float64, []float64, []float64) {
	n := 0
	for _, s := range series {
		n = max(n, len(s))
	}
	out := make([][]float64, len(series))
	for i, s := range series {
		out[i] = make([]float64, n)
		copy(out[i][n-len(s):], s)
	}
	return out[0], out[1], out[2]
}

// formatKiB renders a kibibyte count in the largest fitting binary unit
func formatKiB(kib int64) string {
	v := float64(kib)
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", kib, units[0])
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}
