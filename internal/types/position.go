package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the current holding of one deployment in one symbol. A
// quantity of zero is never persisted; closing a position removes the row.
type Position struct {
	DeploymentID string    `yaml:"deployment_id" json:"deployment_id" csv:"deployment_id"`
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity     float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	AveragePrice float64   `yaml:"average_price" json:"average_price" csv:"average_price"`
	UpdatedAt    time.Time `yaml:"updated_at" json:"updated_at" csv:"updated_at"`
}

// CostBasis returns quantity * average price.
func (p *Position) CostBasis() decimal.Decimal {
	return decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.AveragePrice))
}

// MarketValue returns the position value at the given price.
func (p *Position) MarketValue(price float64) decimal.Decimal {
	return decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(price))
}

// UnrealizedPnL returns the gain or loss against the cost basis at the given
// price.
func (p *Position) UnrealizedPnL(price float64) decimal.Decimal {
	return p.MarketValue(price).Sub(p.CostBasis())
}
