package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Trade is one round trip synthesized by the backtest runner. A trade with
// no exit is still open at the end of the bar window.
type Trade struct {
	Symbol     string                     `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity   float64                    `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryTime  time.Time                  `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryPrice float64                    `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitTime   optional.Option[time.Time] `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitPrice  optional.Option[float64]   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
}

// IsOpen reports whether the trade has no recorded exit.
func (t *Trade) IsOpen() bool {
	return t.ExitTime.IsNone()
}

// PnL returns the realized profit for a closed trade and zero for an open
// one.
func (t *Trade) PnL() decimal.Decimal {
	if t.IsOpen() {
		return decimal.Zero
	}

	entry := decimal.NewFromFloat(t.EntryPrice)
	exit := decimal.NewFromFloat(t.ExitPrice.Unwrap())

	return exit.Sub(entry).Mul(decimal.NewFromFloat(t.Quantity))
}

// TradeStats summarizes the trade list produced by one backtest run.
type TradeStats struct {
	TotalTrades   int             `yaml:"total_trades" json:"total_trades"`
	ClosedTrades  int             `yaml:"closed_trades" json:"closed_trades"`
	WinningTrades int             `yaml:"winning_trades" json:"winning_trades"`
	NetPnL        decimal.Decimal `yaml:"net_pnl" json:"net_pnl"`
}

// WinRate returns winning trades over closed trades, zero when no trade has
// closed.
func (s *TradeStats) WinRate() decimal.Decimal {
	if s.ClosedTrades == 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(s.WinningTrades)).
		Div(decimal.NewFromInt(int64(s.ClosedTrades)))
}
