package sensortop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/jondoveston/sensortop/internal/sensor"
)

// Per-tick outcome shown in the title bar
const (
	STATE_UPDATED = "updated"
	STATE_ERROR   = "error"
)

// Panes that take tab keys, in focus order
const (
	PANE_LOAD = iota
	PANE_PROCESSES
	paneCount
)

type DashboardOptions struct {
	Source   Source
	Interval time.Duration
	// FetchTimeout bounds each fetch; zero leaves fetches unbounded
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

type tickMsg time.Time

type snapshotMsg struct {
	snap *sensor.Snapshot
	err  error
}

type dashboardModel struct {
	source   Source
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	order    []string
	charts   map[string]*Chart
	memory   *MemoryChart
	disk     *DiskGauge
	load     *TabSet
	procs    *TabSet
	authLog  viewport.Model
	help     help.Model
	keys     keyMap
	selected int

	title        string
	state        string
	lastErr      error
	lastPID      *int64
	failedLogins *int64
	authLogError string
	lastUpdate   time.Time

	width  int
	height int
	ready  bool
}

func NewDashboard(opts DashboardOptions) dashboardModel {
	if opts.Interval <= 0 {
		opts.Interval = FetchDuration()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	m := dashboardModel{
		source:   opts.Source,
		interval: opts.Interval,
		timeout:  opts.FetchTimeout,
		logger:   opts.Logger,
		now:      time.Now,
		charts:   make(map[string]*Chart, len(SERIES)),
		memory:   NewMemoryChart(),
		disk:     NewDiskGauge(),
		authLog:  viewport.New(0, 0),
		help:     help.New(),
		keys:     keys,
		title:    "sensortop",
	}
	for _, spec := range SERIES {
		m.order = append(m.order, spec.Key)
		m.charts[spec.Key] = NewChart(spec)
	}
	m.load = NewTabSet(m.charts["loadAvg1"], m.charts["loadAvg5"], m.charts["loadAvg15"])
	m.procs = NewTabSet(m.charts["running"], m.charts["total"])
	return m
}

func (m dashboardModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetch runs off the update loop; overlapping fetches are allowed and each
// result is applied whenever it arrives
func (m dashboardModel) fetch() tea.Cmd {
	src, timeout := m.source, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		snap, err := src.Fetch(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetch()
		case key.Matches(msg, m.keys.NextTab):
			m.focused().NextTab()
		case key.Matches(msg, m.keys.PrevTab):
			m.focused().PrevTab()
		case key.Matches(msg, m.keys.NextPane):
			m.selected = (m.selected + 1) % paneCount
		case key.Matches(msg, m.keys.PrevPane):
			m.selected = (m.selected - 1 + paneCount) % paneCount
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ScrollUp):
			m.authLog.LineUp(1)
		case key.Matches(msg, m.keys.ScrollDown):
			m.authLog.LineDown(1)
		case key.Matches(msg, m.keys.PageUp):
			m.authLog.ViewUp()
		case key.Matches(msg, m.keys.PageDown):
			m.authLog.ViewDown()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeAuthLog()

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case snapshotMsg:
		if msg.err != nil {
			m.state = STATE_ERROR
			m.lastErr = msg.err
			m.title = CONNECTION_ERROR_TITLE
			m.logger.Error("error fetching sensor data", "source", m.source.Name(), "error", msg.err)
			return m, nil
		}
		m.apply(msg.snap)
	}

	return m, nil
}

func (m *dashboardModel) focused() *TabSet {
	if m.selected == PANE_PROCESSES {
		return m.procs
	}
	return m.load
}

// apply pushes every non-null series of snap into its window
func (m *dashboardModel) apply(snap *sensor.Snapshot) {
	now := m.now()
	ts, err := snap.Time()
	if err != nil {
		ts = now
	}

	for _, k := range m.order {
		m.charts[k].Update(snap, ts)
	}
	m.memory.Update(snap, ts)
	m.disk.Update(snap)

	m.title = snap.Hostname
	m.lastPID = snap.LastPID
	m.failedLogins = snap.FailedLoginsLastHour
	m.authLogError = snap.AuthLogError
	m.lastUpdate = now
	m.state = STATE_UPDATED
	m.lastErr = nil

	m.authLog.SetContent(strings.Join(snap.AuthLog, "\n"))
	m.authLog.GotoBottom()
}

// layout returns the inner pane size for the 2x3 grid
func (m dashboardModel) layout() (int, int) {
	// title bar and help footer
	reserved := 2
	if m.help.ShowAll {
		reserved += 3
	}
	return gridSize(m.width, m.height, 2, 3, reserved)
}

func (m *dashboardModel) resizeAuthLog() {
	w, h := m.layout()
	m.authLog.Width = w
	m.authLog.Height = max(h-1, 1)
	m.authLog.GotoBottom()
}

func (m dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	w, h := m.layout()
	chartHeight := h - 1

	m.load.SetSize(w, chartHeight)
	m.procs.SetSize(w, chartHeight)

	cpu := NewPane("CPU", w, h).SetContent(m.charts["cpu"].Render(w, chartHeight))
	memory := NewPane("Memory", w, h).SetContent(m.memory.Render(w, chartHeight))
	load := NewPane("Load Average", w, h).SetContent(m.load.Render()).SetFocused(m.selected == PANE_LOAD)
	procs := NewPane("Processes", w, h).SetContent(m.procs.Render()).SetFocused(m.selected == PANE_PROCESSES)
	stats := NewPane("System", w, h).SetContent(m.renderStats(w))
	authTitle := "Auth Log"
	if m.authLogError != "" {
		authTitle += " (unreadable)"
	}
	auth := NewPane(authTitle, w, h).SetContent(m.authLog.View())

	grid := NewGrid().
		AddRow(cpu, memory).
		AddRow(load, procs).
		AddRow(stats, auth)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		grid.Render(),
		m.help.View(m.keys),
	)
}

func (m dashboardModel) renderTitle() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(paneHeaderColor).
		Background(paneBarBackColor).
		Width(m.width).
		Padding(0, 1)
	if m.state == STATE_ERROR {
		style = style.Foreground(paneErrorColor)
	}

	status := "waiting for first update"
	switch m.state {
	case STATE_UPDATED:
		status = "updated " + m.lastUpdate.Format("15:04:05")
	case STATE_ERROR:
		status = "error: " + m.lastErr.Error()
	}
	return style.Render(fmt.Sprintf("%s  %s  %s", m.title, lipgloss.NewStyle().Foreground(paneMutedColor).Render("│"), status))
}

func (m dashboardModel) renderStats(width int) string {
	updated := NOT_AVAILABLE
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("2006-01-02 15:04:05")
	}

	t := tree.New().
		Root(lipgloss.NewStyle().Foreground(paneHeaderColor).Bold(true).Render(m.title)).
		Child(
			"Last PID: "+formatOptional(m.lastPID),
			"Last update: "+updated,
			"History: "+WindowSpan(m.interval).String(),
			"Failed logins (1h): "+formatOptional(m.failedLogins),
			"Source: "+m.source.Name(),
		)
	return lipgloss.JoinVertical(lipgloss.Left, t.String(), "", m.disk.Render(width))
}

func formatOptional(v *int64) string {
	if v == nil {
		return NOT_AVAILABLE
	}
	return fmt.Sprintf("%d", *v)
}

// Dashboard runs the terminal UI until the user quits or ctx is cancelled
func Dashboard(ctx context.Context, opts DashboardOptions) error {
	p := tea.NewProgram(NewDashboard(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
