package backtest

import (
	"context"

	"github.com/keel-lab/keel-trading/internal/strategy"
	"github.com/keel-lab/keel-trading/internal/types"
)

// Result carries the trade list synthesized from one simulated run together
// with its summary statistics.
type Result struct {
	Symbol string           `yaml:"symbol" json:"symbol"`
	Trades []types.Trade    `yaml:"trades" json:"trades"`
	Stats  types.TradeStats `yaml:"stats" json:"stats"`
}

// Runner replays a bar window through a strategy and records the round trips
// its signals would have produced.
type Runner interface {
	// Run feeds the strategy the same growing bar prefix it would see live
	// and applies each signal at the close of the bar that produced it.
	Run(ctx context.Context, symbol string, bars []types.MarketData, strat strategy.Strategy) (Result, error)
}
