package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestMarketDataStruct() {
	now := time.Now()
	data := MarketData{
		Id:     "test-id-123",
		Symbol: "AAPL",
		Time:   now,
		Open:   150.0,
		High:   155.0,
		Low:    148.0,
		Close:  152.5,
		Volume: 1000000.0,
	}

	suite.Equal("test-id-123", data.Id)
	suite.Equal("AAPL", data.Symbol)
	suite.Equal(now, data.Time)
	suite.Equal(150.0, data.Open)
	suite.Equal(155.0, data.High)
	suite.Equal(148.0, data.Low)
	suite.Equal(152.5, data.Close)
	suite.Equal(1000000.0, data.Volume)
}

func (suite *MarketTestSuite) TestIntervalDuration() {
	suite.Equal(time.Minute, Interval1m.Duration())
	suite.Equal(5*time.Minute, Interval5m.Duration())
	suite.Equal(time.Hour, Interval1h.Duration())
	suite.Equal(24*time.Hour, Interval1d.Duration())

	// Unknown intervals fall back to one minute
	suite.Equal(time.Minute, Interval("7m").Duration())
}
