package live

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	tradingprovider "github.com/keel-lab/keel-trading/internal/trading/provider"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied to deployment entries that omit the polling knobs.
const (
	DefaultCycleInterval = 60 * time.Second
	DefaultLookbackBars  = 100
	DefaultMinBars       = 20
	DefaultBarInterval   = types.Interval1d
)

// TraderConfig is the YAML file consumed by the trader command: one journal
// database shared by a list of deployments.
type TraderConfig struct {
	Journal     string             `yaml:"journal" validate:"required"`
	Deployments []DeploymentConfig `yaml:"deployments" validate:"required,min=1,dive"`
}

// DeploymentConfig is one deployment entry. The polling knobs (interval,
// lookback, minimum bars, bar granularity) default when omitted.
type DeploymentConfig struct {
	ID           string               `yaml:"id"`
	Strategy     string               `yaml:"strategy" validate:"required"`
	Symbol       string               `yaml:"symbol" validate:"required"`
	Mode         types.DeploymentMode `yaml:"mode" validate:"required,oneof=paper live"`
	Venue        string               `yaml:"venue" validate:"omitempty,oneof=brokerage binance"`
	AccountID    string               `yaml:"account_id"`
	PositionSize float64              `yaml:"position_size" validate:"required,gt=0"`
	SizeMode     types.SizeMode       `yaml:"size_mode" validate:"required,oneof=amount shares"`
	OrderType    types.OrderType      `yaml:"order_type" validate:"required,oneof=MARKET LIMIT STOP STOP_LIMIT"`
	// Interval is the sleep between evaluation cycles.
	Interval time.Duration `yaml:"interval" validate:"gte=1s"`
	// LookbackBars is how many bars each cycle fetches.
	LookbackBars int `yaml:"lookback_bars" validate:"gte=1"`
	// MinBars is the evaluation threshold below which a cycle reports
	// insufficient data instead of a signal.
	MinBars int `yaml:"min_bars" validate:"gte=1"`
	// BarInterval is the granularity of the fetched bars.
	BarInterval types.Interval `yaml:"bar_interval" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
	// StrategyConfig is handed opaquely to Strategy.Initialize.
	StrategyConfig string `yaml:"strategy_config"`
}

// UnmarshalYAML decodes a deployment entry, accepting the interval as a
// duration string like "60s" or "5m".
func (c *DeploymentConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type entry struct {
		ID             string               `yaml:"id"`
		Strategy       string               `yaml:"strategy"`
		Symbol         string               `yaml:"symbol"`
		Mode           types.DeploymentMode `yaml:"mode"`
		Venue          string               `yaml:"venue"`
		AccountID      string               `yaml:"account_id"`
		PositionSize   float64              `yaml:"position_size"`
		SizeMode       types.SizeMode       `yaml:"size_mode"`
		OrderType      types.OrderType      `yaml:"order_type"`
		Interval       string               `yaml:"interval"`
		LookbackBars   int                  `yaml:"lookback_bars"`
		MinBars        int                  `yaml:"min_bars"`
		BarInterval    types.Interval       `yaml:"bar_interval"`
		StrategyConfig string               `yaml:"strategy_config"`
	}

	var raw entry
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.ID = raw.ID
	c.Strategy = raw.Strategy
	c.Symbol = raw.Symbol
	c.Mode = raw.Mode
	c.Venue = raw.Venue
	c.AccountID = raw.AccountID
	c.PositionSize = raw.PositionSize
	c.SizeMode = raw.SizeMode
	c.OrderType = raw.OrderType
	c.LookbackBars = raw.LookbackBars
	c.MinBars = raw.MinBars
	c.BarInterval = raw.BarInterval
	c.StrategyConfig = raw.StrategyConfig

	if raw.Interval != "" {
		interval, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid cycle interval %q", raw.Interval)
		}

		c.Interval = interval
	}

	return nil
}

// Normalize fills defaults: the uuid for an omitted id, the polling knobs,
// and the synthetic account id for Binance deployments.
func (c *DeploymentConfig) Normalize() {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	if c.Interval == 0 {
		c.Interval = DefaultCycleInterval
	}

	if c.LookbackBars == 0 {
		c.LookbackBars = DefaultLookbackBars
	}

	if c.MinBars == 0 {
		c.MinBars = DefaultMinBars
	}

	if c.BarInterval == "" {
		c.BarInterval = DefaultBarInterval
	}

	if c.Mode == types.DeploymentModeLive && c.Venue == string(tradingprovider.ProviderBinance) && c.AccountID == "" {
		c.AccountID = tradingprovider.BinanceAccountID
	}
}

// Validate checks one normalized deployment entry.
func (c *DeploymentConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid deployment config", err)
	}

	if c.Mode == types.DeploymentModeLive {
		if c.Venue == "" {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "live deployment %s requires a venue", c.ID)
		}

		if c.AccountID == "" {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "live deployment %s requires an account id", c.ID)
		}
	}

	return nil
}

// Deployment converts the config entry to its journal row.
func (c *DeploymentConfig) Deployment() types.Deployment {
	return types.Deployment{
		ID:             c.ID,
		Strategy:       c.Strategy,
		Symbol:         c.Symbol,
		Mode:           c.Mode,
		Status:         types.DeploymentStatusActive,
		AccountID:      c.AccountID,
		Venue:          c.Venue,
		PositionSize:   c.PositionSize,
		SizeMode:       c.SizeMode,
		OrderType:      c.OrderType,
		StrategyConfig: c.StrategyConfig,
	}
}

// LoadTraderConfig reads and validates the trader YAML file, normalizing
// every deployment entry.
func LoadTraderConfig(path string) (TraderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TraderConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return ParseTraderConfig(data)
}

// ParseTraderConfig parses the trader YAML document.
func ParseTraderConfig(data []byte) (TraderConfig, error) {
	var config TraderConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return TraderConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse trader config", err)
	}

	for i := range config.Deployments {
		config.Deployments[i].Normalize()
	}

	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return TraderConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid trader config", err)
	}

	for i := range config.Deployments {
		if err := config.Deployments[i].Validate(); err != nil {
			return TraderConfig{}, err
		}
	}

	return config, nil
}
