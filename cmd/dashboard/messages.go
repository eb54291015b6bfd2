package main

import (
	"time"

	"github.com/keel-lab/keel-trading/internal/types"
)

// SnapshotMsg carries one consistent read of the journal.
type SnapshotMsg struct {
	Deployments []types.Deployment
	Positions   []types.Position
	Log         []types.ExecutionLogEntry
	At          time.Time
}

// LoadErrorMsg indicates a journal read failed.
type LoadErrorMsg struct {
	Err error
}

// RefreshTickMsg triggers the next periodic journal read.
type RefreshTickMsg struct{}
