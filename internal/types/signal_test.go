package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) TestSignalTypeValues() {
	suite.Equal(SignalType("BUY"), SignalTypeBuy)
	suite.Equal(SignalType("SELL"), SignalTypeSell)
	suite.Equal(SignalType("HOLD"), SignalTypeHold)
}

func (suite *SignalTestSuite) TestSignalStruct() {
	now := time.Now()
	signal := Signal{
		Time:         now,
		Type:         SignalTypeBuy,
		Symbol:       "AAPL",
		StrategyName: "sma_crossover",
		Reason:       "fast crossed above slow",
	}

	suite.Equal(now, signal.Time)
	suite.Equal(SignalTypeBuy, signal.Type)
	suite.Equal("AAPL", signal.Symbol)
	suite.Equal("sma_crossover", signal.StrategyName)
	suite.Equal("fast crossed above slow", signal.Reason)
}
