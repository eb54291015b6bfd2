package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
)

type Side string

type OrderType string

type OrderStatus string

type TimeInForce string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const (
	TimeInForceDay TimeInForce = "DAY"
	TimeInForceGTC TimeInForce = "GTC"
)

// InstrumentTypeEquity is the only instrument type the brokerage order
// endpoint accepts.
const InstrumentTypeEquity = "EQUITY"

// OrderRequest describes one order to be executed. ID is generated on the
// client side and doubles as the idempotency key sent to the brokerage, so a
// retried submission of the same request cannot fill twice.
type OrderRequest struct {
	ID          string      `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol      string      `yaml:"symbol" json:"symbol" validate:"required"`
	Side        Side        `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	OrderType   OrderType   `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT STOP STOP_LIMIT"`
	TimeInForce TimeInForce `yaml:"time_in_force" json:"time_in_force" validate:"required,oneof=DAY GTC"`
	// Quantity is the number of shares. Exactly one of Quantity and Amount
	// must be set.
	Quantity optional.Option[float64] `yaml:"quantity" json:"quantity"`
	// Amount is the dollar amount for fractional entries.
	Amount optional.Option[float64] `yaml:"amount" json:"amount"`
	// LimitPrice is required for LIMIT and STOP_LIMIT orders.
	LimitPrice optional.Option[float64] `yaml:"limit_price" json:"limit_price"`
	// StopPrice is required for STOP and STOP_LIMIT orders.
	StopPrice optional.Option[float64] `yaml:"stop_price" json:"stop_price"`
	// Signal is the signal that produced this request, kept as context on
	// the journal row.
	Signal SignalType `yaml:"signal" json:"signal"`
}

// Order is one attempted trade as recorded in the journal. Status moves from
// placed to exactly one terminal state and is never updated again.
type Order struct {
	ID               string                   `yaml:"id" json:"id"`
	DeploymentID     string                   `yaml:"deployment_id" json:"deployment_id" validate:"required"`
	Symbol           string                   `yaml:"symbol" json:"symbol" validate:"required"`
	Side             Side                     `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	OrderType        OrderType                `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT STOP STOP_LIMIT"`
	Quantity         optional.Option[float64] `yaml:"quantity" json:"quantity"`
	Amount           optional.Option[float64] `yaml:"amount" json:"amount"`
	Status           OrderStatus              `yaml:"status" json:"status" validate:"required,oneof=placed filled rejected cancelled"`
	FillPrice        optional.Option[float64] `yaml:"fill_price" json:"fill_price"`
	Paper            bool                     `yaml:"paper" json:"paper"`
	BrokerageOrderID optional.Option[string]  `yaml:"brokerage_order_id" json:"brokerage_order_id"`
	Signal           SignalType               `yaml:"signal" json:"signal"`
	CreatedAt        time.Time                `yaml:"created_at" json:"created_at"`
	UpdatedAt        time.Time                `yaml:"updated_at" json:"updated_at"`
}

// PlacedOrder is the brokerage's acknowledgement of an order submission.
type PlacedOrder struct {
	// ClientOrderID is the idempotency key the order was submitted with.
	ClientOrderID string `json:"clientOrderId"`
	// BrokerageOrderID is the id assigned by the brokerage.
	BrokerageOrderID string `json:"orderId"`
}

// BrokerageOrderState is the order status payload returned by the brokerage.
type BrokerageOrderState struct {
	OrderID        string                   `json:"orderId"`
	Status         string                   `json:"status"`
	FilledQuantity float64                  `json:"filledQuantity"`
	AveragePrice   optional.Option[float64] `json:"averagePrice"`
}

// ExecutionResult describes what executing one order request produced. A
// paper execution fills immediately; a live one is only placed, with the
// fill confirmed by later reconciliation.
type ExecutionResult struct {
	Order   Order  `yaml:"order" json:"order"`
	Filled  bool   `yaml:"filled" json:"filled"`
	Message string `yaml:"message" json:"message"`
}

// Validate checks the request locally. It must pass before any network call
// is attempted.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	if r.Quantity.IsNone() && r.Amount.IsNone() {
		return errors.New(errors.ErrCodeInvalidOrder, "must specify either quantity or amount")
	}

	if r.Quantity.IsSome() && r.Amount.IsSome() {
		return errors.New(errors.ErrCodeInvalidOrder, "cannot specify both quantity and amount")
	}

	if r.Quantity.IsSome() && r.Quantity.Unwrap() <= 0 {
		return errors.New(errors.ErrCodeInvalidOrder, "quantity must be positive")
	}

	if r.Amount.IsSome() && r.Amount.Unwrap() <= 0 {
		return errors.New(errors.ErrCodeInvalidOrder, "amount must be positive")
	}

	if (r.OrderType == OrderTypeLimit || r.OrderType == OrderTypeStopLimit) && r.LimitPrice.IsNone() {
		return errors.Newf(errors.ErrCodeInvalidOrder, "%s orders require a limit price", r.OrderType)
	}

	if (r.OrderType == OrderTypeStop || r.OrderType == OrderTypeStopLimit) && r.StopPrice.IsNone() {
		return errors.Newf(errors.ErrCodeInvalidOrder, "%s orders require a stop price", r.OrderType)
	}

	return nil
}
