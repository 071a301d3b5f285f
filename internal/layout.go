package sensortop

import (
	"github.com/charmbracelet/lipgloss"
)

// Horizontal renders panes side by side
func Horizontal(panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}
	views := make([]string, len(panes))
	for i, pane := range panes {
		views[i] = pane.Render()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// GridLayout stacks rows of panes
type GridLayout struct {
	rows [][]Pane
}

func NewGrid() *GridLayout {
	return &GridLayout{}
}

func (g *GridLayout) AddRow(panes ...Pane) *GridLayout {
	g.rows = append(g.rows, panes)
	return g
}

func (g *GridLayout) Render() string {
	if len(g.rows) == 0 {
		return ""
	}
	rowViews := make([]string, len(g.rows))
	for i, row := range g.rows {
		rowViews[i] = Horizontal(row...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rowViews...)
}

// gridSize splits the screen into rows x cols cells and returns the inner
// size of each pane, leaving reserved lines for bars
func gridSize(width, height, cols, rows, reserved int) (int, int) {
	paneWidth := max(width/cols-2, 10)
	paneHeight := max((height-reserved)/rows-2, 3)
	return paneWidth, paneHeight
}
