package strategy

import (
	"github.com/keel-lab/keel-trading/internal/indicator"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RSIReversionConfig configures the RSI mean reversion strategy.
type RSIReversionConfig struct {
	// Period is the RSI lookback.
	Period int `yaml:"period" json:"period" jsonschema:"minimum=2,default=14"`
	// Oversold is the RSI level below which the strategy buys.
	Oversold float64 `yaml:"oversold" json:"oversold" jsonschema:"minimum=0,maximum=100,default=30"`
	// Overbought is the RSI level above which the strategy sells.
	Overbought float64 `yaml:"overbought" json:"overbought" jsonschema:"minimum=0,maximum=100,default=70"`
}

// RSIReversion buys oversold bars and sells overbought ones.
type RSIReversion struct {
	config RSIReversionConfig
}

// NewRSIReversion creates the strategy with the conventional 14/30/70
// parameters. Initialize overrides them from config.
func NewRSIReversion() *RSIReversion {
	return &RSIReversion{
		config: RSIReversionConfig{
			Period:     14,
			Oversold:   30,
			Overbought: 70,
		},
	}
}

// Name implements Strategy.
func (s *RSIReversion) Name() string {
	return "rsi_reversion"
}

// APIVersion implements Strategy.
func (s *RSIReversion) APIVersion() string {
	return apiVersion
}

// Initialize implements Strategy.
func (s *RSIReversion) Initialize(config string) error {
	if config == "" {
		return nil
	}

	cfg := s.config
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse rsi_reversion config", err)
	}

	if cfg.Period < 2 {
		return errors.New(errors.ErrCodeStrategyConfigError, "rsi_reversion period must be at least 2")
	}

	if cfg.Oversold >= cfg.Overbought {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"oversold level %.1f must be below overbought level %.1f", cfg.Oversold, cfg.Overbought)
	}

	s.config = cfg

	return nil
}

// Evaluate implements Strategy.
func (s *RSIReversion) Evaluate(bars []types.MarketData) (types.SignalType, error) {
	rsi, ok := indicator.RSI(bars, s.config.Period)
	if !ok {
		return types.SignalTypeHold, nil
	}

	if rsi < s.config.Oversold {
		return types.SignalTypeBuy, nil
	}

	if rsi > s.config.Overbought {
		return types.SignalTypeSell, nil
	}

	return types.SignalTypeHold, nil
}

// ConfigSchema implements Strategy.
func (s *RSIReversion) ConfigSchema() (string, error) {
	return ToJSONSchema(RSIReversionConfig{})
}
