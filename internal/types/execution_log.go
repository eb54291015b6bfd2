package types

import "time"

// ExecutionLogEntry is one append-only audit record per evaluation cycle.
// Entries are never mutated or deleted.
type ExecutionLogEntry struct {
	ID           string     `yaml:"id" json:"id" csv:"id"`
	DeploymentID string     `yaml:"deployment_id" json:"deployment_id" csv:"deployment_id"`
	Signal       SignalType `yaml:"signal" json:"signal" csv:"signal"`
	Message      string     `yaml:"message" json:"message" csv:"message"`
	Success      bool       `yaml:"success" json:"success" csv:"success"`
	CreatedAt    time.Time  `yaml:"created_at" json:"created_at" csv:"created_at"`
}
