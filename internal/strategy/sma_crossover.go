package strategy

import (
	"github.com/keel-lab/keel-trading/internal/indicator"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"gopkg.in/yaml.v3"
)

// apiVersion is the strategy API version the built-in strategies are
// compiled against.
const apiVersion = "v1.2.0"

// SMACrossoverConfig configures the moving average crossover strategy.
type SMACrossoverConfig struct {
	// FastPeriod is the lookback of the fast moving average.
	FastPeriod int `yaml:"fast_period" json:"fast_period" jsonschema:"minimum=1,default=10"`
	// SlowPeriod is the lookback of the slow moving average. Must be
	// greater than FastPeriod.
	SlowPeriod int `yaml:"slow_period" json:"slow_period" jsonschema:"minimum=2,default=30"`
}

// SMACrossover buys when the fast moving average crosses above the slow one
// and sells when it crosses back below.
type SMACrossover struct {
	config SMACrossoverConfig
}

// NewSMACrossover creates the strategy with default periods. Initialize
// overrides them from config.
func NewSMACrossover() *SMACrossover {
	return &SMACrossover{
		config: SMACrossoverConfig{
			FastPeriod: 10,
			SlowPeriod: 30,
		},
	}
}

// Name implements Strategy.
func (s *SMACrossover) Name() string {
	return "sma_crossover"
}

// APIVersion implements Strategy.
func (s *SMACrossover) APIVersion() string {
	return apiVersion
}

// Initialize implements Strategy.
func (s *SMACrossover) Initialize(config string) error {
	if config == "" {
		return nil
	}

	cfg := s.config
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse sma_crossover config", err)
	}

	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 {
		return errors.New(errors.ErrCodeStrategyConfigError, "sma_crossover periods must be positive")
	}

	if cfg.FastPeriod >= cfg.SlowPeriod {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"fast period %d must be shorter than slow period %d", cfg.FastPeriod, cfg.SlowPeriod)
	}

	s.config = cfg

	return nil
}

// Evaluate implements Strategy. A crossover is detected by comparing the
// averages on the current window against the window one bar earlier.
func (s *SMACrossover) Evaluate(bars []types.MarketData) (types.SignalType, error) {
	// One extra bar is needed to observe a cross, not just a level.
	if len(bars) <= s.config.SlowPeriod {
		return types.SignalTypeHold, nil
	}

	fast, _ := indicator.SMA(bars, s.config.FastPeriod)
	slow, _ := indicator.SMA(bars, s.config.SlowPeriod)

	prev := bars[:len(bars)-1]
	prevFast, _ := indicator.SMA(prev, s.config.FastPeriod)
	prevSlow, _ := indicator.SMA(prev, s.config.SlowPeriod)

	if fast > slow && prevFast <= prevSlow {
		return types.SignalTypeBuy, nil
	}

	if fast < slow && prevFast >= prevSlow {
		return types.SignalTypeSell, nil
	}

	return types.SignalTypeHold, nil
}

// ConfigSchema implements Strategy.
func (s *SMACrossover) ConfigSchema() (string, error) {
	return ToJSONSchema(SMACrossoverConfig{})
}
