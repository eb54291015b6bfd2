package brokerage

import "github.com/keel-lab/keel-trading/internal/types"

// Wire payloads for the brokerage REST API. Field names follow the vendor's
// camelCase convention and must not change independently of it.

type tokenRequest struct {
	ValidityInMinutes int    `json:"validityInMinutes"`
	Secret            string `json:"secret"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type instrumentPayload struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

// orderPayload is the order submission body. The orderId is generated on our
// side and acts as the idempotency key for retried submissions.
type orderPayload struct {
	OrderID     string            `json:"orderId"`
	Side        types.Side        `json:"side"`
	OrderType   types.OrderType   `json:"orderType"`
	TimeInForce types.TimeInForce `json:"timeInForce"`
	Instrument  instrumentPayload `json:"instrument"`
	Quantity    *float64          `json:"quantity,omitempty"`
	Amount      *float64          `json:"amount,omitempty"`
	LimitPrice  *float64          `json:"limitPrice,omitempty"`
	StopPrice   *float64          `json:"stopPrice,omitempty"`
}

type placeOrderResponse struct {
	OrderID string `json:"orderId"`
}

type accountsResponse struct {
	Accounts []types.Account `json:"accounts"`
}
