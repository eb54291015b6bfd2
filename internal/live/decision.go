package live

import (
	"github.com/google/uuid"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/moznion/go-optional"
)

// Decide maps a signal and the currently held position to at most one order
// request. It enforces the two position rules every deployment runs under:
// a BUY while a position is held is ignored (no pyramiding), and a SELL
// always exits the full held quantity. The returned bool reports whether an
// order should be executed at all.
//
// currentPrice is the close of the latest bar. Entry sizing in amount mode
// and the limit and stop prices of non-market deployments are anchored to it.
func Decide(signal types.SignalType, position optional.Option[types.Position], deployment types.Deployment, currentPrice float64) (types.OrderRequest, bool) {
	switch signal {
	case types.SignalTypeBuy:
		if position.IsSome() {
			return types.OrderRequest{}, false
		}
		return entryRequest(deployment, currentPrice), true
	case types.SignalTypeSell:
		if position.IsNone() {
			return types.OrderRequest{}, false
		}
		return exitRequest(deployment, position.Unwrap(), currentPrice), true
	default:
		return types.OrderRequest{}, false
	}
}

func entryRequest(deployment types.Deployment, currentPrice float64) types.OrderRequest {
	req := types.OrderRequest{
		ID:          uuid.NewString(),
		Symbol:      deployment.Symbol,
		Side:        types.SideBuy,
		OrderType:   deployment.OrderType,
		TimeInForce: types.TimeInForceDay,
		Signal:      types.SignalTypeBuy,
	}

	switch deployment.SizeMode {
	case types.SizeModeShares:
		req.Quantity = optional.Some(deployment.PositionSize)
	default:
		req.Amount = optional.Some(deployment.PositionSize)
	}

	anchorPrices(&req, currentPrice)
	return req
}

func exitRequest(deployment types.Deployment, position types.Position, currentPrice float64) types.OrderRequest {
	req := types.OrderRequest{
		ID:          uuid.NewString(),
		Symbol:      deployment.Symbol,
		Side:        types.SideSell,
		OrderType:   deployment.OrderType,
		TimeInForce: types.TimeInForceDay,
		Quantity:    optional.Some(position.Quantity),
		Signal:      types.SignalTypeSell,
	}

	anchorPrices(&req, currentPrice)
	return req
}

// anchorPrices fills the limit and stop prices non-market order types
// require. The deployment config carries no price levels of its own, so the
// latest close stands in for both.
func anchorPrices(req *types.OrderRequest, currentPrice float64) {
	if req.OrderType == types.OrderTypeLimit || req.OrderType == types.OrderTypeStopLimit {
		req.LimitPrice = optional.Some(currentPrice)
	}
	if req.OrderType == types.OrderTypeStop || req.OrderType == types.OrderTypeStopLimit {
		req.StopPrice = optional.Some(currentPrice)
	}
}
