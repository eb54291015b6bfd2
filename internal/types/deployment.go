package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
)

type DeploymentMode string

type DeploymentStatus string

type SizeMode string

const (
	DeploymentModePaper DeploymentMode = "paper"
	DeploymentModeLive  DeploymentMode = "live"
)

const (
	DeploymentStatusActive  DeploymentStatus = "active"
	DeploymentStatusError   DeploymentStatus = "error"
	DeploymentStatusStopped DeploymentStatus = "stopped"
)

const (
	// SizeModeAmount sizes entries by a fixed dollar amount.
	SizeModeAmount SizeMode = "amount"
	// SizeModeShares sizes entries by a fixed share count.
	SizeModeShares SizeMode = "shares"
)

// Deployment is a running instance of a strategy bound to a symbol and an
// execution mode. Deployments are never deleted from the journal; stopping
// one moves it to the stopped status.
type Deployment struct {
	ID           string         `yaml:"id" json:"id" validate:"required"`
	Strategy     string         `yaml:"strategy" json:"strategy" validate:"required"`
	Symbol       string         `yaml:"symbol" json:"symbol" validate:"required"`
	Mode         DeploymentMode `yaml:"mode" json:"mode" validate:"required,oneof=paper live"`
	Status       DeploymentStatus
	AccountID    string    `yaml:"account_id" json:"account_id"`
	Venue        string    `yaml:"venue" json:"venue"`
	PositionSize float64   `yaml:"position_size" json:"position_size" validate:"required,gt=0"`
	SizeMode     SizeMode  `yaml:"size_mode" json:"size_mode" validate:"required,oneof=amount shares"`
	OrderType    OrderType `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT STOP STOP_LIMIT"`
	// StrategyConfig is the opaque configuration handed to the strategy's
	// Initialize. Stored so a deployment can be inspected and restarted.
	StrategyConfig string `yaml:"strategy_config" json:"strategy_config"`
	CreatedAt      time.Time
	LastRunAt      optional.Option[time.Time]
	LastError      optional.Option[string]
}

// Validate checks the deployment row before it is persisted.
func (d *Deployment) Validate() error {
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDeployment, "invalid deployment", err)
	}

	if d.Mode == DeploymentModeLive && d.AccountID == "" {
		return errors.New(errors.ErrCodeInvalidDeployment, "live deployments require an account id")
	}

	return nil
}
