package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/keel-lab/keel-trading/internal/journal"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/urfave/cli/v3"
)

// logLimit bounds the execution log tab.
const logLimit = 100

// journalSnapshotReader adapts the journal to the dashboard's reader.
type journalSnapshotReader struct {
	journal *journal.Journal
}

// Snapshot implements SnapshotReader.
func (r *journalSnapshotReader) Snapshot() (SnapshotMsg, error) {
	deployments, err := r.journal.ListDeployments()
	if err != nil {
		return SnapshotMsg{}, err
	}

	positions, err := r.journal.OpenPositions()
	if err != nil {
		return SnapshotMsg{}, err
	}

	entries, err := r.journal.RecentExecutionLog(logLimit)
	if err != nil {
		return SnapshotMsg{}, err
	}

	return SnapshotMsg{
		Deployments: deployments,
		Positions:   positions,
		Log:         entries,
		At:          time.Now(),
	}, nil
}

// dashboardAction opens the journal and runs the TUI until the user quits.
func dashboardAction(ctx context.Context, cmd *cli.Command) error {
	logger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	j, err := journal.NewJournal(cmd.String("journal"), logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	if err := j.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	model := NewModel(&journalSnapshotReader{journal: j}, cmd.Duration("refresh"))

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard exited with error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Terminal dashboard over the trading journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "journal",
				Aliases:  []string{"j"},
				Usage:    "Path to the journal database file",
				Value:    "trader.duckdb",
				Required: false,
			},
			&cli.DurationFlag{
				Name:     "refresh",
				Aliases:  []string{"r"},
				Usage:    "Interval between journal reads",
				Value:    2 * time.Second,
				Required: false,
			},
		},
		Action: dashboardAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
