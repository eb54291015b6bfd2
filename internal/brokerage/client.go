package brokerage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

const defaultHTTPTimeout = 30 * time.Second

// ClientConfig configures the brokerage REST client.
type ClientConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url" validate:"required,url"`
	Secret  string `yaml:"secret" json:"secret" validate:"required"`
	// TokenValidityInMinutes is the validity window requested for access
	// tokens. Zero means the default of one hour.
	TokenValidityInMinutes int `yaml:"token_validity_in_minutes" json:"token_validity_in_minutes" validate:"omitempty,min=1"`
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Client exposes the typed brokerage operations. All calls go through the
// retrying gateway with a bearer token from the token manager; a 401 on an
// API call forces one token refresh and a single resend before giving up.
type Client struct {
	baseURL string
	tokens  *TokenManager
	gateway *Gateway
	logger  *logger.Logger
}

func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid brokerage client configuration", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	gateway := NewGateway(&http.Client{Timeout: timeout}, DefaultRetryPolicy(), log)
	tokens := NewTokenManager(TokenManagerConfig{
		BaseURL:           config.BaseURL,
		Secret:            config.Secret,
		ValidityInMinutes: config.TokenValidityInMinutes,
	}, gateway, log)

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		tokens:  tokens,
		gateway: gateway,
		logger:  log,
	}, nil
}

// ListAccounts returns all accounts visible to the credential.
func (c *Client) ListAccounts(ctx context.Context) ([]types.Account, error) {
	var decoded accountsResponse
	if err := c.do(ctx, http.MethodGet, "/trading/account", nil, &decoded); err != nil {
		return nil, err
	}

	return decoded.Accounts, nil
}

// GetAccountID returns the id of the first account matching the given type.
// An empty accountType matches any account.
func (c *Client) GetAccountID(ctx context.Context, accountType string) (string, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return "", err
	}

	for _, account := range accounts {
		if accountType == "" || strings.EqualFold(account.Type, accountType) {
			return account.ID, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeAccountNotFound, "no account with type %q", accountType)
}

// PlaceOrder validates the request locally and submits it. Validation
// failures surface before any network call. The request id rides along as the
// brokerage-side idempotency key, so a retried submission cannot fill twice.
func (c *Client) PlaceOrder(ctx context.Context, accountID string, req types.OrderRequest) (types.PlacedOrder, error) {
	if req.TimeInForce == "" {
		req.TimeInForce = types.TimeInForceDay
	}

	if err := req.Validate(); err != nil {
		return types.PlacedOrder{}, err
	}

	payload := orderPayload{
		OrderID:     req.ID,
		Side:        req.Side,
		OrderType:   req.OrderType,
		TimeInForce: req.TimeInForce,
		Instrument: instrumentPayload{
			Symbol: req.Symbol,
			Type:   types.InstrumentTypeEquity,
		},
		Quantity:   floatPtr(req.Quantity),
		Amount:     floatPtr(req.Amount),
		LimitPrice: floatPtr(req.LimitPrice),
		StopPrice:  floatPtr(req.StopPrice),
	}

	var decoded placeOrderResponse

	path := fmt.Sprintf("/trading/account/%s/orders", accountID)
	if err := c.do(ctx, http.MethodPost, path, payload, &decoded); err != nil {
		return types.PlacedOrder{}, err
	}

	return types.PlacedOrder{
		ClientOrderID:    req.ID,
		BrokerageOrderID: decoded.OrderID,
	}, nil
}

// GetOrderStatus fetches the brokerage's view of a previously placed order.
func (c *Client) GetOrderStatus(ctx context.Context, accountID string, orderID string) (types.BrokerageOrderState, error) {
	var decoded types.BrokerageOrderState

	path := fmt.Sprintf("/trading/account/%s/orders/%s", accountID, orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &decoded); err != nil {
		return types.BrokerageOrderState{}, err
	}

	return decoded, nil
}

// CancelOrder asks the brokerage to cancel a previously placed order.
func (c *Client) CancelOrder(ctx context.Context, accountID string, orderID string) error {
	path := fmt.Sprintf("/trading/account/%s/orders/%s", accountID, orderID)

	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do runs one typed call: marshal, send with a cached token, refresh-and-
// resend once on 401, then map the terminal status and decode into out.
func (c *Client) do(ctx context.Context, method string, path string, payload any, out any) error {
	var body []byte

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to encode request body", err)
		}

		body = encoded
	}

	resp, err := c.send(ctx, method, path, body, false)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		c.logger.Debug("brokerage rejected token, refreshing and resending",
			zap.String("method", method),
			zap.String("path", path))

		resp, err = c.send(ctx, method, path, body, true)
		if err != nil {
			return err
		}
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeAuthenticationFailed, "brokerage rejected credentials")
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return errors.Newf(errors.ErrCodeBrokerageRequest,
			"brokerage returned status %d for %s %s: %s", resp.StatusCode, method, path, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to decode brokerage response", err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, method string, path string, body []byte, forceToken bool) (*http.Response, error) {
	token, err := c.tokens.GetToken(ctx, forceToken)
	if err != nil {
		return nil, err
	}

	header := jsonHeader()
	header.Set("Authorization", "Bearer "+token)

	return c.gateway.Do(ctx, Request{
		Method: method,
		URL:    c.baseURL + path,
		Body:   body,
		Header: header,
	})
}

func floatPtr(value optional.Option[float64]) *float64 {
	if value.IsNone() {
		return nil
	}

	v := value.Unwrap()

	return &v
}
