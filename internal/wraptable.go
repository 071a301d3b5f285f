package sensortop

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// tableChrome is the height a table needs beyond its rows: top and bottom
// border, header and header separator
const tableChrome = 4

// WrapTable is a lipgloss table that continues in a new column of tables
// to the right once its rows would exceed maxHeight
type WrapTable struct {
	headers     []string
	rows        [][]string
	maxHeight   int
	border      lipgloss.Border
	borderStyle lipgloss.Style
	headerStyle lipgloss.Style
}

func NewWrapTable() *WrapTable {
	return &WrapTable{
		border:      lipgloss.NormalBorder(),
		borderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		headerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
	}
}

func (wt *WrapTable) Headers(headers ...string) *WrapTable {
	wt.headers = headers
	return wt
}

func (wt *WrapTable) Rows(rows ...[]string) *WrapTable {
	wt.rows = rows
	return wt
}

// MaxHeight caps the rendered height; zero means unlimited
func (wt *WrapTable) MaxHeight(height int) *WrapTable {
	wt.maxHeight = height
	return wt
}

// RowsPerColumn is how many rows fit in one table under maxHeight
func (wt *WrapTable) RowsPerColumn() int {
	if wt.maxHeight <= 0 {
		return max(len(wt.rows), 1)
	}
	return max(wt.maxHeight-tableChrome, 1)
}

func (wt *WrapTable) Render() string {
	if len(wt.rows) == 0 {
		return ""
	}

	per := wt.RowsPerColumn()
	var columns []string
	for start := 0; start < len(wt.rows); start += per {
		end := min(start+per, len(wt.rows))
		columns = append(columns, wt.build(wt.rows[start:end]).String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (wt *WrapTable) build(rows [][]string) *table.Table {
	return table.New().
		Border(wt.border).
		BorderStyle(wt.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return wt.headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers(wt.headers...).
		Rows(rows...)
}
