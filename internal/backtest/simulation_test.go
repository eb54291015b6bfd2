package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// scriptedStrategy replays a fixed signal sequence, one signal per bar.
type scriptedStrategy struct {
	signals []types.SignalType
	err     error
	calls   int
}

func (s *scriptedStrategy) Name() string                    { return "scripted" }
func (s *scriptedStrategy) APIVersion() string              { return "v1.2.0" }
func (s *scriptedStrategy) Initialize(config string) error  { return nil }
func (s *scriptedStrategy) ConfigSchema() (string, error)   { return "{}", nil }
func (s *scriptedStrategy) Evaluate(bars []types.MarketData) (types.SignalType, error) {
	if s.err != nil {
		return types.SignalTypeHold, s.err
	}

	signal := s.signals[s.calls]
	s.calls++

	return signal, nil
}

type SimulationRunnerTestSuite struct {
	suite.Suite

	runner *SimulationRunner
	ctx    context.Context
}

func TestSimulationRunnerSuite(t *testing.T) {
	suite.Run(t, new(SimulationRunnerTestSuite))
}

func (suite *SimulationRunnerTestSuite) SetupTest() {
	suite.runner = NewSimulationRunner()
	suite.ctx = context.Background()
}

func (suite *SimulationRunnerTestSuite) bars(closes ...float64) []types.MarketData {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	bars := make([]types.MarketData, 0, len(closes))
	for i, close := range closes {
		bars = append(bars, types.MarketData{
			Symbol: "AAPL",
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 500,
		})
	}

	return bars
}

func (suite *SimulationRunnerTestSuite) TestRoundTrip() {
	strat := &scriptedStrategy{signals: []types.SignalType{
		types.SignalTypeHold,
		types.SignalTypeBuy,
		types.SignalTypeHold,
		types.SignalTypeSell,
	}}

	result, err := suite.runner.Run(suite.ctx, "AAPL", suite.bars(100, 101, 103, 105), strat)
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(101.0, trade.EntryPrice)
	suite.Equal(105.0, trade.ExitPrice.Unwrap())
	suite.False(trade.IsOpen())

	suite.Equal(1, result.Stats.TotalTrades)
	suite.Equal(1, result.Stats.ClosedTrades)
	suite.Equal(1, result.Stats.WinningTrades)
	suite.True(result.Stats.NetPnL.Equal(decimal.NewFromInt(4)))
}

func (suite *SimulationRunnerTestSuite) TestBuyWhileOpenIsIgnored() {
	strat := &scriptedStrategy{signals: []types.SignalType{
		types.SignalTypeBuy,
		types.SignalTypeBuy,
		types.SignalTypeSell,
	}}

	result, err := suite.runner.Run(suite.ctx, "AAPL", suite.bars(100, 101, 99), strat)
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 1)
	suite.Equal(100.0, result.Trades[0].EntryPrice)
}

func (suite *SimulationRunnerTestSuite) TestSellWithoutOpenIsIgnored() {
	strat := &scriptedStrategy{signals: []types.SignalType{
		types.SignalTypeSell,
		types.SignalTypeHold,
	}}

	result, err := suite.runner.Run(suite.ctx, "AAPL", suite.bars(100, 101), strat)
	suite.Require().NoError(err)
	suite.Empty(result.Trades)
	suite.Equal(0, result.Stats.TotalTrades)
}

func (suite *SimulationRunnerTestSuite) TestTrailingBuyStaysOpen() {
	strat := &scriptedStrategy{signals: []types.SignalType{
		types.SignalTypeBuy,
		types.SignalTypeSell,
		types.SignalTypeBuy,
	}}

	result, err := suite.runner.Run(suite.ctx, "AAPL", suite.bars(100, 102, 101), strat)
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 2)

	suite.False(result.Trades[0].IsOpen())
	suite.True(result.Trades[1].IsOpen())
	suite.Equal(2, result.Stats.TotalTrades)
	suite.Equal(1, result.Stats.ClosedTrades)
}

func (suite *SimulationRunnerTestSuite) TestStrategyErrorIsWrapped() {
	strat := &scriptedStrategy{err: errors.New(errors.ErrCodeStrategyConfigError, "not initialized")}

	_, err := suite.runner.Run(suite.ctx, "AAPL", suite.bars(100), strat)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyEvaluation))
}

func (suite *SimulationRunnerTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strat := &scriptedStrategy{signals: []types.SignalType{types.SignalTypeHold}}
	_, err := suite.runner.Run(ctx, "AAPL", suite.bars(100), strat)
	suite.ErrorIs(err, context.Canceled)
	suite.Zero(strat.calls)
}

func (suite *SimulationRunnerTestSuite) TestComputeStatsLosingTrade() {
	exitTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	trades := []types.Trade{
		{
			Symbol:     "AAPL",
			Quantity:   1,
			EntryPrice: 100,
			ExitTime:   optional.Some(exitTime),
			ExitPrice:  optional.Some(97.0),
		},
	}

	stats := ComputeStats(trades)
	suite.Equal(1, stats.ClosedTrades)
	suite.Equal(0, stats.WinningTrades)
	suite.True(stats.NetPnL.Equal(decimal.NewFromInt(-3)))
}
