package backtest

import (
	"context"

	"github.com/keel-lab/keel-trading/internal/strategy"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// SimulationRunner is the in-memory Runner implementation. A BUY opens a unit
// position when none is open, a SELL closes the open one, and every other
// signal is ignored, so the synthesized trade list never holds more than one
// open trade.
type SimulationRunner struct{}

func NewSimulationRunner() *SimulationRunner {
	return &SimulationRunner{}
}

func (r *SimulationRunner) Run(ctx context.Context, symbol string, bars []types.MarketData, strat strategy.Strategy) (Result, error) {
	trades := make([]types.Trade, 0)
	openIdx := -1

	for i := range bars {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		signal, err := strat.Evaluate(bars[:i+1])
		if err != nil {
			return Result{}, errors.Wrapf(errors.ErrCodeStrategyEvaluation, err,
				"strategy %s failed evaluating %s", strat.Name(), symbol)
		}

		bar := bars[i]
		switch signal {
		case types.SignalTypeBuy:
			if openIdx < 0 {
				trades = append(trades, types.Trade{
					Symbol:     symbol,
					Quantity:   1,
					EntryTime:  bar.Time,
					EntryPrice: bar.Close,
				})
				openIdx = len(trades) - 1
			}
		case types.SignalTypeSell:
			if openIdx >= 0 {
				trades[openIdx].ExitTime = optional.Some(bar.Time)
				trades[openIdx].ExitPrice = optional.Some(bar.Close)
				openIdx = -1
			}
		}
	}

	return Result{
		Symbol: symbol,
		Trades: trades,
		Stats:  ComputeStats(trades),
	}, nil
}

// ComputeStats summarizes a trade list. Open trades count toward the total
// but contribute nothing to the realized figures.
func ComputeStats(trades []types.Trade) types.TradeStats {
	stats := types.TradeStats{
		TotalTrades: len(trades),
		NetPnL:      decimal.Zero,
	}

	for i := range trades {
		trade := &trades[i]
		if trade.IsOpen() {
			continue
		}

		stats.ClosedTrades++
		pnl := trade.PnL()
		if pnl.GreaterThan(decimal.Zero) {
			stats.WinningTrades++
		}
		stats.NetPnL = stats.NetPnL.Add(pnl)
	}

	return stats
}
