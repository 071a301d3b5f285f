package sensortop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	paneBorderColor  = lipgloss.Color("240")
	paneFocusColor   = lipgloss.Color("170")
	paneTitleColor   = lipgloss.Color("33")
	paneErrorColor   = lipgloss.Color("196")
	paneMutedColor   = lipgloss.Color("240")
	paneHeaderColor  = lipgloss.Color("214")
	paneBarBackColor = lipgloss.Color("235")
)

// Pane is a bordered box with an optional title line. Width and height are
// the inner size; the border adds two columns and two rows.
//
//	pane := NewPane("CPU", 40, 10).SetContent(chart.Render(40, 9)).SetFocused(true)
//	fmt.Println(pane.Render())
type Pane struct {
	title   string
	content string
	width   int
	height  int
	focused bool
}

func NewPane(title string, width, height int) Pane {
	return Pane{title: title, width: width, height: height}
}

func (p Pane) SetContent(content string) Pane {
	p.content = content
	return p
}

func (p Pane) SetFocused(focused bool) Pane {
	p.focused = focused
	return p
}

// Render draws the pane, clipping content that doesn't fit
func (p Pane) Render() string {
	border := paneBorderColor
	if p.focused {
		border = paneFocusColor
	}

	var lines []string
	if p.title != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(paneTitleColor).Bold(true).Render(p.title))
	}
	if p.content != "" {
		lines = append(lines, strings.Split(p.content, "\n")...)
	}
	if p.height > 0 && len(lines) > p.height {
		lines = lines[:p.height]
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(p.width).
		Height(p.height).
		MaxWidth(p.width + 2).
		Render(strings.Join(lines, "\n"))
}
