package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Tabs.
const (
	TabDeployments = iota
	TabPositions
	TabLog
)

var tabNames = []string{"Deployments", "Positions", "Execution Log"}

// SnapshotReader produces one consistent view of the journal per call.
// Tests substitute a stub.
type SnapshotReader interface {
	Snapshot() (SnapshotMsg, error)
}

// Model is the main Bubble Tea model for the journal dashboard.
type Model struct {
	reader          SnapshotReader
	refreshInterval time.Duration

	tab              int
	deploymentsTable table.Model
	positionsTable   table.Model
	logTable         table.Model

	lastRefresh time.Time
	err         error
	width       int
	height      int
}

// NewModel creates the dashboard model over a snapshot reader.
func NewModel(reader SnapshotReader, refreshInterval time.Duration) Model {
	if refreshInterval <= 0 {
		refreshInterval = 2 * time.Second
	}

	return Model{
		reader:           reader,
		refreshInterval:  refreshInterval,
		tab:              TabDeployments,
		deploymentsTable: NewDeploymentsTable(),
		positionsTable:   NewPositionsTable(),
		logTable:         NewLogTable(),
	}
}

// Init implements tea.Model. The first snapshot loads immediately.
func (m Model) Init() tea.Cmd {
	return m.loadSnapshot()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "right":
			m.tab = (m.tab + 1) % len(tabNames)
			return m, nil
		case "shift+tab", "left":
			m.tab = (m.tab + len(tabNames) - 1) % len(tabNames)
			return m, nil
		case "1":
			m.tab = TabDeployments
			return m, nil
		case "2":
			m.tab = TabPositions
			return m, nil
		case "3":
			m.tab = TabLog
			return m, nil
		case "r":
			return m, m.loadSnapshot()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.deploymentsTable.SetWidth(msg.Width)
		m.deploymentsTable.SetHeight(msg.Height - 6)
		m.positionsTable.SetWidth(msg.Width)
		m.positionsTable.SetHeight(msg.Height - 6)
		m.logTable.SetWidth(msg.Width)
		m.logTable.SetHeight(msg.Height - 6)

		return m, nil

	case SnapshotMsg:
		m.err = nil
		m.lastRefresh = msg.At
		m.deploymentsTable = UpdateDeploymentRows(m.deploymentsTable, msg.Deployments)
		m.positionsTable = UpdatePositionRows(m.positionsTable, msg.Positions)
		m.logTable = UpdateLogRows(m.logTable, msg.Log)

		return m, m.scheduleRefresh()

	case LoadErrorMsg:
		m.err = msg.Err
		return m, m.scheduleRefresh()

	case RefreshTickMsg:
		return m, m.loadSnapshot()
	}

	var cmd tea.Cmd

	switch m.tab {
	case TabDeployments:
		m.deploymentsTable, cmd = m.deploymentsTable.Update(msg)
	case TabPositions:
		m.positionsTable, cmd = m.positionsTable.Update(msg)
	case TabLog:
		m.logTable, cmd = m.logTable.Update(msg)
	}

	return m, cmd
}

// loadSnapshot reads the journal once and reports the result as a message.
func (m Model) loadSnapshot() tea.Cmd {
	reader := m.reader

	return func() tea.Msg {
		snapshot, err := reader.Snapshot()
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return snapshot
	}
}

// scheduleRefresh arms the next periodic journal read.
func (m Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return RefreshTickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Keel Trading - Journal Dashboard"))
	s.WriteString("\n\n")

	labels := make([]string, 0, len(tabNames))

	for i, name := range tabNames {
		if i == m.tab {
			labels = append(labels, ActiveTabStyle.Render(name))
		} else {
			labels = append(labels, TabStyle.Render(name))
		}
	}

	s.WriteString(strings.Join(labels, "  |  "))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n\n")
	}

	switch m.tab {
	case TabDeployments:
		s.WriteString(m.deploymentsTable.View())
	case TabPositions:
		s.WriteString(m.positionsTable.View())
	case TabLog:
		s.WriteString(m.logTable.View())
	}

	s.WriteString("\n")

	refreshed := "never"
	if !m.lastRefresh.IsZero() {
		refreshed = m.lastRefresh.Format("15:04:05")
	}

	s.WriteString(HelpStyle.Render("tab/1-3: switch | r: refresh | q: quit | refreshed: " + refreshed))

	return s.String()
}
