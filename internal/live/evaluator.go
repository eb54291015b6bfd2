package live

import (
	"context"

	"github.com/keel-lab/keel-trading/internal/backtest"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/strategy"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"go.uber.org/zap"
)

// SignalEvaluator turns a bar window into a trading signal. It replays the
// deployment's strategy through the backtest runner and infers intent from
// the synthesized trade list, which keeps live evaluation on the exact same
// code path as backtesting at the cost of approximating live intent. The
// alternative of reading indicator state off the latest bar would need the
// strategy interface to expose incremental per-bar state, which it does not.
type SignalEvaluator struct {
	runner backtest.Runner
	logger *logger.Logger
}

func NewSignalEvaluator(runner backtest.Runner, logger *logger.Logger) *SignalEvaluator {
	return &SignalEvaluator{
		runner: runner,
		logger: logger,
	}
}

// Evaluate produces BUY, SELL or HOLD for the latest bar. Fewer than minBars
// bars is an InsufficientDataError. The inference reads the trade list the
// runner produced: an open final trade with no position held means BUY, a
// closed final trade with a position held means SELL, anything else HOLD.
func (e *SignalEvaluator) Evaluate(ctx context.Context, strat strategy.Strategy, symbol string, bars []types.MarketData, minBars int, hasPosition bool) (types.SignalType, error) {
	if minBars <= 0 {
		minBars = DefaultMinBars
	}

	if len(bars) < minBars {
		return types.SignalTypeHold, errors.NewInsufficientDataErrorf(minBars, len(bars), symbol,
			"evaluating %s requires %d bars, got %d", symbol, minBars, len(bars))
	}

	result, err := e.runner.Run(ctx, symbol, bars, strat)
	if err != nil {
		return types.SignalTypeHold, err
	}

	signal := inferSignal(result.Trades, hasPosition)

	e.logger.Debug("evaluated signal",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(result.Trades)),
		zap.Bool("has_position", hasPosition),
		zap.String("signal", string(signal)),
	)

	return signal, nil
}

func inferSignal(trades []types.Trade, hasPosition bool) types.SignalType {
	if len(trades) == 0 {
		return types.SignalTypeHold
	}

	last := trades[len(trades)-1]

	switch {
	case last.IsOpen() && !hasPosition:
		return types.SignalTypeBuy
	case !last.IsOpen() && hasPosition:
		return types.SignalTypeSell
	default:
		return types.SignalTypeHold
	}
}
