package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/keel-lab/keel-trading/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	// ActiveTabStyle for the selected tab label.
	ActiveTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// TabStyle for unselected tab labels.
	TabStyle = lipgloss.NewStyle().Faint(true)
)

// FormatStatus renders a deployment status with a marker so error states
// stand out in the table.
func FormatStatus(status types.DeploymentStatus) string {
	switch status {
	case types.DeploymentStatusActive:
		return "active ●"
	case types.DeploymentStatusError:
		return "error ✗"
	case types.DeploymentStatusStopped:
		return "stopped"
	default:
		return string(status)
	}
}

// FormatOutcome renders an execution log success flag.
func FormatOutcome(success bool) string {
	if success {
		return "ok"
	}

	return "FAIL"
}

// FormatQuantity trims a float to a readable share count.
func FormatQuantity(quantity float64) string {
	return fmt.Sprintf("%.4f", quantity)
}
