package sensortop

import (
	"strconv"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/jondoveston/sensortop/internal/sensor"
)

// DiskGauge shows root filesystem usage from the latest snapshot
type DiskGauge struct {
	used *int64
	free *int64
}

func NewDiskGauge() *DiskGauge {
	return &DiskGauge{}
}

// Update replaces the reading when snap carries both disk fields
func (d *DiskGauge) Update(snap *sensor.Snapshot) bool {
	if snap.DiskUsed == nil || snap.DiskFree == nil {
		return false
	}
	d.used = snap.DiskUsed
	d.free = snap.DiskFree
	return true
}

// Percent is the used share as shown in the label, or N/A before any reading
func (d *DiskGauge) Percent() string {
	if d.used == nil || d.free == nil {
		return NOT_AVAILABLE
	}
	return DiskUsedPercent(*d.used, *d.free)
}

func (d *DiskGauge) Label() string {
	return d.Percent() + "% Used"
}

func (d *DiskGauge) Render(width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	if d.used == nil || d.free == nil {
		return titleStyle.Render("Disk /") + "\nWaiting for data..."
	}

	pct, _ := strconv.ParseFloat(d.Percent(), 64)
	color := "42"
	switch {
	case pct >= 90:
		color = "196"
	case pct >= 70:
		color = "214"
	}
	barWidth := max(width-2, 10)
	bar := progress.New(
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
		progress.WithSolidFill(color),
	)

	rows := [][]string{
		{"Used", formatKiB(*d.used)},
		{"Free", formatKiB(*d.free)},
		{"Total", formatKiB(*d.used + *d.free)},
	}
	table := NewWrapTable().MaxHeight(8).Headers("Disk", "Value").Rows(rows...)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Disk / "+d.Label()),
		bar.ViewAs(pct/100),
		table.Render(),
	)
}
