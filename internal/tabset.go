package sensortop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TabSet shows one of several charts in a single pane with a tab bar
type TabSet struct {
	charts      []*Chart
	selectedTab int
	width       int
	height      int
}

func NewTabSet(charts ...*Chart) *TabSet {
	return &TabSet{
		charts: charts,
		width:  40,
		height: 10,
	}
}

func (ts *TabSet) SetSize(width, height int) *TabSet {
	ts.width = width
	ts.height = height
	return ts
}

// NextTab moves to the next tab (wraps around)
func (ts *TabSet) NextTab() *TabSet {
	if len(ts.charts) > 0 {
		ts.selectedTab = (ts.selectedTab + 1) % len(ts.charts)
	}
	return ts
}

// PrevTab moves to the previous tab (wraps around)
func (ts *TabSet) PrevTab() *TabSet {
	if len(ts.charts) > 0 {
		ts.selectedTab = (ts.selectedTab - 1 + len(ts.charts)) % len(ts.charts)
	}
	return ts
}

func (ts *TabSet) Selected() *Chart {
	if len(ts.charts) == 0 {
		return nil
	}
	return ts.charts[ts.selectedTab]
}

func (ts *TabSet) SelectedTab() int {
	return ts.selectedTab
}

// Render draws the tab bar and the selected chart below it
func (ts *TabSet) Render() string {
	chart := ts.Selected()
	if chart == nil {
		return "No charts available"
	}

	var b strings.Builder
	contentHeight := ts.height
	if len(ts.charts) > 1 {
		tabs := ts.renderTabs()
		b.WriteString(tabs)
		b.WriteString("\n")
		contentHeight -= lipgloss.Height(tabs)
	}
	b.WriteString(chart.Render(ts.width, contentHeight))
	return b.String()
}

func (ts *TabSet) renderTabs() string {
	activeTabStyle := lipgloss.NewStyle().
		Foreground(paneFocusColor).
		Background(paneBarBackColor).
		Bold(true).
		Padding(0, 1)

	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(paneMutedColor).
		Padding(0, 1)

	rendered := make([]string, len(ts.charts))
	for i, chart := range ts.charts {
		if i == ts.SelectedTab() {
			rendered[i] = activeTabStyle.Render(chart.Spec.Title)
		} else {
			rendered[i] = inactiveTabStyle.Render(chart.Spec.Title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
