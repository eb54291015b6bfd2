package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
)

func validRequest() OrderRequest {
	return OrderRequest{
		ID:          uuid.New().String(),
		Symbol:      "AAPL",
		Side:        SideBuy,
		OrderType:   OrderTypeMarket,
		TimeInForce: TimeInForceDay,
		Quantity:    optional.None[float64](),
		Amount:      optional.Some(1000.0),
		LimitPrice:  optional.None[float64](),
		StopPrice:   optional.None[float64](),
		Signal:      SignalTypeBuy,
	}
}

func TestOrderRequestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(r *OrderRequest)
		shouldError bool
	}{
		{
			name:        "valid market buy by amount",
			mutate:      func(r *OrderRequest) {},
			shouldError: false,
		},
		{
			name: "valid market sell by quantity",
			mutate: func(r *OrderRequest) {
				r.Side = SideSell
				r.Amount = optional.None[float64]()
				r.Quantity = optional.Some(10.0)
			},
			shouldError: false,
		},
		{
			name: "valid limit order",
			mutate: func(r *OrderRequest) {
				r.OrderType = OrderTypeLimit
				r.LimitPrice = optional.Some(99.5)
			},
			shouldError: false,
		},
		{
			name: "valid stop limit order",
			mutate: func(r *OrderRequest) {
				r.OrderType = OrderTypeStopLimit
				r.LimitPrice = optional.Some(99.5)
				r.StopPrice = optional.Some(98.0)
			},
			shouldError: false,
		},
		{
			name: "both quantity and amount",
			mutate: func(r *OrderRequest) {
				r.Quantity = optional.Some(10.0)
			},
			shouldError: true,
		},
		{
			name: "neither quantity nor amount",
			mutate: func(r *OrderRequest) {
				r.Amount = optional.None[float64]()
			},
			shouldError: true,
		},
		{
			name: "limit order without limit price",
			mutate: func(r *OrderRequest) {
				r.OrderType = OrderTypeLimit
			},
			shouldError: true,
		},
		{
			name: "stop order without stop price",
			mutate: func(r *OrderRequest) {
				r.OrderType = OrderTypeStop
			},
			shouldError: true,
		},
		{
			name: "stop limit order without stop price",
			mutate: func(r *OrderRequest) {
				r.OrderType = OrderTypeStopLimit
				r.LimitPrice = optional.Some(99.5)
			},
			shouldError: true,
		},
		{
			name: "invalid side",
			mutate: func(r *OrderRequest) {
				r.Side = Side("SHORT")
			},
			shouldError: true,
		},
		{
			name: "invalid order type",
			mutate: func(r *OrderRequest) {
				r.OrderType = OrderType("TRAILING")
			},
			shouldError: true,
		},
		{
			name: "missing id",
			mutate: func(r *OrderRequest) {
				r.ID = ""
			},
			shouldError: true,
		},
		{
			name: "zero amount",
			mutate: func(r *OrderRequest) {
				r.Amount = optional.Some(0.0)
			},
			shouldError: true,
		},
		{
			name: "negative quantity",
			mutate: func(r *OrderRequest) {
				r.Amount = optional.None[float64]()
				r.Quantity = optional.Some(-5.0)
			},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.shouldError {
				assert.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidOrder))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
