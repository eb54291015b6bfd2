package tradingprovider

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

const (
	// binanceDecimalPrecision is the quantity precision used for submissions.
	// 8 decimals covers satoshi-level sizing for BTC-like assets; a production
	// system would read symbol-specific LOT_SIZE filters instead.
	binanceDecimalPrecision = 8

	// binanceQuoteAsset is the asset whose free balance is reported as cash.
	binanceQuoteAsset = "USDT"
)

// BinanceAccountID is the synthetic account id reported for the spot
// account. Binance scopes orders by symbol, not account, so deployments on
// this venue carry this placeholder id.
const BinanceAccountID = "binance-spot"

// Service interfaces for mocking the Binance API.

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	QuoteOrderQty(quoteOrderQty string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// GetOrderService interface for querying order state.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	Do(ctx context.Context) (*binance.Order, error)
}

// CancelOrderService interface for canceling orders.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*binance.CancelOrderResponse, error)
}

// GetAccountService interface for getting account info.
type GetAccountService interface {
	Do(ctx context.Context) (*binance.Account, error)
}

// BinanceClient abstracts the Binance SDK for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewGetAccountService() GetAccountService
}

// realBinanceClient wraps the actual binance.Client.
type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realBinanceClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realBinanceClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: r.client.NewGetAccountService()}
}

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) QuoteOrderQty(quoteOrderQty string) CreateOrderService {
	s.service = s.service.QuoteOrderQty(quoteOrderQty)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *binance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*binance.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *binance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*binance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetAccountService struct {
	service *binance.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*binance.Account, error) {
	return s.service.Do(ctx)
}

// BinanceProvider implements TradingProvider on the Binance spot API. It is
// stateless; all data is fetched from the API on demand. Orders are scoped by
// symbol, so the accountID arguments are unused.
type BinanceProvider struct {
	client BinanceClient
}

// NewBinanceProvider creates a Binance spot trading provider. If
// config.UseTestnet is set the SDK is pointed at the Binance testnet; an
// explicit BaseURL takes precedence.
func NewBinanceProvider(config BinanceProviderConfig) (*BinanceProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.UseTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)
	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return &BinanceProvider{client: &realBinanceClient{client: client}}, nil
}

// newBinanceProviderWithClient creates a provider with a custom client.
// Tests use this with mock services.
func newBinanceProviderWithClient(client BinanceClient) *BinanceProvider {
	return &BinanceProvider{client: client}
}

func (p *BinanceProvider) PlaceOrder(ctx context.Context, _ string, req types.OrderRequest) (types.PlacedOrder, error) {
	if err := req.Validate(); err != nil {
		return types.PlacedOrder{}, err
	}

	var side binance.SideType

	switch req.Side {
	case types.SideBuy:
		side = binance.SideTypeBuy
	case types.SideSell:
		side = binance.SideTypeSell
	}

	var orderType binance.OrderType

	switch req.OrderType {
	case types.OrderTypeMarket:
		orderType = binance.OrderTypeMarket
	case types.OrderTypeLimit:
		orderType = binance.OrderTypeLimit
	default:
		return types.PlacedOrder{}, errors.Newf(errors.ErrCodeInvalidOrder,
			"binance provider does not support %s orders", req.OrderType)
	}

	service := p.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(orderType).
		NewClientOrderID(req.ID)

	switch {
	case req.Quantity.IsSome():
		service = service.Quantity(formatQuantity(req.Quantity.Unwrap()))
	case req.OrderType == types.OrderTypeMarket:
		// Dollar-sized market orders map onto quote-asset sizing.
		service = service.QuoteOrderQty(formatQuantity(req.Amount.Unwrap()))
	default:
		return types.PlacedOrder{}, errors.New(errors.ErrCodeInvalidOrder,
			"amount sizing on binance requires a market order")
	}

	if req.OrderType == types.OrderTypeLimit {
		service = service.
			Price(strconv.FormatFloat(req.LimitPrice.Unwrap(), 'f', -1, 64)).
			TimeInForce(binance.TimeInForceTypeGTC)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return types.PlacedOrder{}, errors.Wrap(errors.ErrCodeOrderRejected, "failed to place order on Binance", err)
	}

	return types.PlacedOrder{
		ClientOrderID:    req.ID,
		BrokerageOrderID: strconv.FormatInt(resp.OrderID, 10),
	}, nil
}

func (p *BinanceProvider) GetOrderStatus(ctx context.Context, _ string, symbol string, orderID string) (types.BrokerageOrderState, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return types.BrokerageOrderState{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err,
			"invalid binance order id %q", orderID)
	}

	order, err := p.client.NewGetOrderService().Symbol(symbol).OrderID(id).Do(ctx)
	if err != nil {
		return types.BrokerageOrderState{}, errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to get order from Binance", err)
	}

	return binanceOrderState(order), nil
}

func (p *BinanceProvider) CancelOrder(ctx context.Context, _ string, symbol string, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid binance order id %q", orderID)
	}

	if _, err := p.client.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to cancel order on Binance", err)
	}

	return nil
}

// ListAccounts reports the spot account as a single account whose cash is the
// free quote-asset balance.
func (p *BinanceProvider) ListAccounts(ctx context.Context) ([]types.Account, error) {
	account, err := p.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to get account info from Binance", err)
	}

	cash := 0.0

	for _, balance := range account.Balances {
		if balance.Asset == binanceQuoteAsset {
			cash, _ = strconv.ParseFloat(balance.Free, 64)

			break
		}
	}

	return []types.Account{
		{
			ID:       BinanceAccountID,
			Type:     "SPOT",
			Currency: binanceQuoteAsset,
			Cash:     cash,
		},
	}, nil
}

// binanceOrderState maps a Binance order to the venue-neutral state shape.
func binanceOrderState(order *binance.Order) types.BrokerageOrderState {
	filled, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	quote, _ := strconv.ParseFloat(order.CummulativeQuoteQuantity, 64)

	state := types.BrokerageOrderState{
		OrderID:        strconv.FormatInt(order.OrderID, 10),
		Status:         string(order.Status),
		FilledQuantity: filled,
	}

	if filled > 0 && quote > 0 {
		average := decimal.NewFromFloat(quote).Div(decimal.NewFromFloat(filled))
		state.AveragePrice = optional.Some(average.InexactFloat64())
	}

	return state
}

func formatQuantity(quantity float64) string {
	return decimal.NewFromFloat(quantity).Round(binanceDecimalPrecision).String()
}
