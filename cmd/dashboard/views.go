package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/keel-lab/keel-trading/internal/types"
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

// NewDeploymentsTable creates the table listing every deployment.
func NewDeploymentsTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 14},
		{Title: "Strategy", Width: 16},
		{Title: "Symbol", Width: 8},
		{Title: "Mode", Width: 6},
		{Title: "Status", Width: 10},
		{Title: "Last Run", Width: 17},
		{Title: "Last Error", Width: 28},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	return t
}

// NewPositionsTable creates the table listing open positions.
func NewPositionsTable() table.Model {
	columns := []table.Column{
		{Title: "Deployment", Width: 14},
		{Title: "Symbol", Width: 8},
		{Title: "Quantity", Width: 12},
		{Title: "Avg Price", Width: 12},
		{Title: "Cost Basis", Width: 12},
		{Title: "Updated", Width: 17},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	return t
}

// NewLogTable creates the table showing recent execution log entries.
func NewLogTable() table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 17},
		{Title: "Deployment", Width: 14},
		{Title: "Signal", Width: 6},
		{Title: "Outcome", Width: 8},
		{Title: "Message", Width: 44},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	return t
}

// shortID keeps table rows readable without losing the searchable prefix.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}

	return id[:12]
}

// UpdateDeploymentRows replaces the deployment table contents.
func UpdateDeploymentRows(t table.Model, deployments []types.Deployment) table.Model {
	rows := make([]table.Row, 0, len(deployments))

	for _, d := range deployments {
		lastRun := "-"
		if run, err := d.LastRunAt.Take(); err == nil {
			lastRun = run.Format("01-02 15:04:05")
		}

		lastError := ""
		if msg, err := d.LastError.Take(); err == nil {
			lastError = msg
		}

		rows = append(rows, table.Row{
			shortID(d.ID),
			d.Strategy,
			d.Symbol,
			string(d.Mode),
			FormatStatus(d.Status),
			lastRun,
			lastError,
		})
	}

	t.SetRows(rows)

	return t
}

// UpdatePositionRows replaces the position table contents.
func UpdatePositionRows(t table.Model, positions []types.Position) table.Model {
	rows := make([]table.Row, 0, len(positions))

	for _, p := range positions {
		rows = append(rows, table.Row{
			shortID(p.DeploymentID),
			p.Symbol,
			FormatQuantity(p.Quantity),
			fmt.Sprintf("%.2f", p.AveragePrice),
			p.CostBasis().StringFixed(2),
			p.UpdatedAt.Format("01-02 15:04:05"),
		})
	}

	t.SetRows(rows)

	return t
}

// UpdateLogRows replaces the execution log table contents.
func UpdateLogRows(t table.Model, entries []types.ExecutionLogEntry) table.Model {
	rows := make([]table.Row, 0, len(entries))

	for _, entry := range entries {
		rows = append(rows, table.Row{
			entry.CreatedAt.Format("01-02 15:04:05"),
			shortID(entry.DeploymentID),
			string(entry.Signal),
			FormatOutcome(entry.Success),
			entry.Message,
		})
	}

	t.SetRows(rows)

	return t
}
