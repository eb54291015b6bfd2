package live

import (
	"testing"

	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paperDeployment() types.Deployment {
	return types.Deployment{
		ID:           "dep-1",
		Strategy:     "sma_crossover",
		Symbol:       "AAPL",
		Mode:         types.DeploymentModePaper,
		Status:       types.DeploymentStatusActive,
		PositionSize: 1000,
		SizeMode:     types.SizeModeAmount,
		OrderType:    types.OrderTypeMarket,
	}
}

func heldPosition(quantity float64) optional.Option[types.Position] {
	return optional.Some(types.Position{
		DeploymentID: "dep-1",
		Symbol:       "AAPL",
		Quantity:     quantity,
		AveragePrice: 95,
	})
}

func TestDecideBuyOpensPosition(t *testing.T) {
	req, actionable := Decide(types.SignalTypeBuy, optional.None[types.Position](), paperDeployment(), 101.5)
	require.True(t, actionable)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, types.SideBuy, req.Side)
	assert.Equal(t, types.OrderTypeMarket, req.OrderType)
	assert.Equal(t, types.TimeInForceDay, req.TimeInForce)
	assert.Equal(t, types.SignalTypeBuy, req.Signal)
	assert.True(t, req.Quantity.IsNone())
	assert.Equal(t, 1000.0, req.Amount.Unwrap())
	assert.True(t, req.LimitPrice.IsNone())
	assert.True(t, req.StopPrice.IsNone())

	assert.NoError(t, req.Validate())
}

func TestDecideBuySizesByShares(t *testing.T) {
	deployment := paperDeployment()
	deployment.SizeMode = types.SizeModeShares
	deployment.PositionSize = 10

	req, actionable := Decide(types.SignalTypeBuy, optional.None[types.Position](), deployment, 101.5)
	require.True(t, actionable)

	assert.Equal(t, 10.0, req.Quantity.Unwrap())
	assert.True(t, req.Amount.IsNone())
	assert.NoError(t, req.Validate())
}

func TestDecideBuyWhilePositionHeldIsIgnored(t *testing.T) {
	_, actionable := Decide(types.SignalTypeBuy, heldPosition(10), paperDeployment(), 101.5)
	assert.False(t, actionable)
}

func TestDecideSellExitsFullQuantity(t *testing.T) {
	req, actionable := Decide(types.SignalTypeSell, heldPosition(7.5), paperDeployment(), 101.5)
	require.True(t, actionable)

	assert.Equal(t, types.SideSell, req.Side)
	assert.Equal(t, 7.5, req.Quantity.Unwrap())
	assert.True(t, req.Amount.IsNone())
	assert.Equal(t, types.SignalTypeSell, req.Signal)
	assert.NoError(t, req.Validate())
}

func TestDecideSellWithoutPositionIsIgnored(t *testing.T) {
	_, actionable := Decide(types.SignalTypeSell, optional.None[types.Position](), paperDeployment(), 101.5)
	assert.False(t, actionable)
}

func TestDecideHoldIsIgnored(t *testing.T) {
	_, withPosition := Decide(types.SignalTypeHold, heldPosition(3), paperDeployment(), 101.5)
	assert.False(t, withPosition)

	_, withoutPosition := Decide(types.SignalTypeHold, optional.None[types.Position](), paperDeployment(), 101.5)
	assert.False(t, withoutPosition)
}

func TestDecideAnchorsPrices(t *testing.T) {
	tests := []struct {
		name      string
		orderType types.OrderType
		wantLimit bool
		wantStop  bool
	}{
		{name: "market", orderType: types.OrderTypeMarket, wantLimit: false, wantStop: false},
		{name: "limit", orderType: types.OrderTypeLimit, wantLimit: true, wantStop: false},
		{name: "stop", orderType: types.OrderTypeStop, wantLimit: false, wantStop: true},
		{name: "stop limit", orderType: types.OrderTypeStopLimit, wantLimit: true, wantStop: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deployment := paperDeployment()
			deployment.OrderType = tc.orderType

			req, actionable := Decide(types.SignalTypeBuy, optional.None[types.Position](), deployment, 250.25)
			require.True(t, actionable)
			assert.Equal(t, tc.orderType, req.OrderType)

			if tc.wantLimit {
				assert.Equal(t, 250.25, req.LimitPrice.Unwrap())
			} else {
				assert.True(t, req.LimitPrice.IsNone())
			}

			if tc.wantStop {
				assert.Equal(t, 250.25, req.StopPrice.Unwrap())
			} else {
				assert.True(t, req.StopPrice.IsNone())
			}

			assert.NoError(t, req.Validate())
		})
	}
}

func TestDecideGeneratesUniqueOrderIDs(t *testing.T) {
	first, actionable := Decide(types.SignalTypeBuy, optional.None[types.Position](), paperDeployment(), 100)
	require.True(t, actionable)
	second, actionable := Decide(types.SignalTypeBuy, optional.None[types.Position](), paperDeployment(), 100)
	require.True(t, actionable)

	assert.NotEqual(t, first.ID, second.ID)
}
