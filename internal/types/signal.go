package types

import "time"

type SignalType string

const (
	// SignalTypeBuy tells the deployment to open a position
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell tells the deployment to close its position
	SignalTypeSell SignalType = "SELL"
	// SignalTypeHold tells the deployment to take no action
	SignalTypeHold SignalType = "HOLD"
)

type Signal struct {
	// Time is the time of the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Symbol is the symbol the signal applies to
	Symbol string
	// StrategyName is the strategy that produced the signal
	StrategyName string
	// Reason is the reason for the signal
	Reason string
}
