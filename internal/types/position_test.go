package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PositionTestSuite struct {
	suite.Suite
}

func TestPositionSuite(t *testing.T) {
	suite.Run(t, new(PositionTestSuite))
}

func (suite *PositionTestSuite) TestCostBasis() {
	pos := Position{
		DeploymentID: "dep-1",
		Symbol:       "AAPL",
		Quantity:     10,
		AveragePrice: 100.25,
		UpdatedAt:    time.Now(),
	}
	suite.True(pos.CostBasis().Equal(decimal.NewFromFloat(1002.5)))
}

func (suite *PositionTestSuite) TestMarketValueAndUnrealizedPnL() {
	pos := Position{
		DeploymentID: "dep-1",
		Symbol:       "AAPL",
		Quantity:     10,
		AveragePrice: 100.0,
		UpdatedAt:    time.Now(),
	}

	suite.True(pos.MarketValue(110.0).Equal(decimal.NewFromFloat(1100.0)))
	suite.True(pos.UnrealizedPnL(110.0).Equal(decimal.NewFromFloat(100.0)))
	suite.True(pos.UnrealizedPnL(95.0).Equal(decimal.NewFromFloat(-50.0)))
}
