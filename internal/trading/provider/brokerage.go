package tradingprovider

import (
	"context"

	"github.com/keel-lab/keel-trading/internal/brokerage"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/types"
)

// BrokerageProvider adapts the brokerage REST client to the TradingProvider
// surface. Orders are scoped by account, so the symbol arguments are unused.
type BrokerageProvider struct {
	client *brokerage.Client
}

func NewBrokerageProvider(config brokerage.ClientConfig, log *logger.Logger) (*BrokerageProvider, error) {
	client, err := brokerage.NewClient(config, log)
	if err != nil {
		return nil, err
	}

	return &BrokerageProvider{client: client}, nil
}

// NewBrokerageProviderWithClient wraps an existing client. Tests use this.
func NewBrokerageProviderWithClient(client *brokerage.Client) *BrokerageProvider {
	return &BrokerageProvider{client: client}
}

func (p *BrokerageProvider) PlaceOrder(ctx context.Context, accountID string, req types.OrderRequest) (types.PlacedOrder, error) {
	return p.client.PlaceOrder(ctx, accountID, req)
}

func (p *BrokerageProvider) GetOrderStatus(ctx context.Context, accountID string, _ string, orderID string) (types.BrokerageOrderState, error) {
	return p.client.GetOrderStatus(ctx, accountID, orderID)
}

func (p *BrokerageProvider) CancelOrder(ctx context.Context, accountID string, _ string, orderID string) error {
	return p.client.CancelOrder(ctx, accountID, orderID)
}

func (p *BrokerageProvider) ListAccounts(ctx context.Context) ([]types.Account, error) {
	return p.client.ListAccounts(ctx)
}
