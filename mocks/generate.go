package mocks

//go:generate mockgen -destination=./mock_runner.go -package=mocks github.com/keel-lab/keel-trading/internal/backtest Runner
//go:generate mockgen -destination=./mock_data_provider.go -package=mocks github.com/keel-lab/keel-trading/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_trading_provider.go -package=mocks github.com/keel-lab/keel-trading/internal/trading/provider TradingProvider
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/keel-lab/keel-trading/internal/strategy Strategy
