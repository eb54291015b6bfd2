package tradingprovider

import (
	"context"

	"github.com/keel-lab/keel-trading/internal/brokerage"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/strategy"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
)

// TradingProvider is the venue-facing order surface used by live deployments.
// accountID and symbol are both carried because venues disagree on which one
// scopes an order: the brokerage keys by account, Binance keys by symbol.
type TradingProvider interface {
	// PlaceOrder submits a validated order and returns the venue's order id.
	PlaceOrder(ctx context.Context, accountID string, req types.OrderRequest) (types.PlacedOrder, error)
	// GetOrderStatus returns the venue's view of a previously placed order.
	GetOrderStatus(ctx context.Context, accountID string, symbol string, orderID string) (types.BrokerageOrderState, error)
	// CancelOrder cancels a previously placed order.
	CancelOrder(ctx context.Context, accountID string, symbol string, orderID string) error
	// ListAccounts returns the accounts visible to the credential.
	ListAccounts(ctx context.Context) ([]types.Account, error)
}

type ProviderType string

const (
	ProviderBrokerage ProviderType = "brokerage"
	ProviderBinance   ProviderType = "binance"
)

type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBrokerage: {
		Name:        string(ProviderBrokerage),
		DisplayName: "Brokerage",
		Description: "Equity brokerage REST API with token auth and idempotent order submission",
	},
	ProviderBinance: {
		Name:        string(ProviderBinance),
		DisplayName: "Binance",
		Description: "Binance spot trading API for cryptocurrency pairs",
	},
}

func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific trading provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeUnsupportedVenue, "unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's
// configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderBrokerage:
		return strategy.ToJSONSchema(brokerage.ClientConfig{})
	case ProviderBinance:
		return strategy.ToJSONSchema(BinanceProviderConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeUnsupportedVenue, "unsupported trading provider: %s", providerName)
	}
}

// NewTradingProvider creates a trading provider for the given venue.
func NewTradingProvider(providerType ProviderType, config any, log *logger.Logger) (TradingProvider, error) {
	switch providerType {
	case ProviderBrokerage:
		cfg, ok := config.(brokerage.ClientConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "brokerage provider requires a brokerage.ClientConfig")
		}

		return NewBrokerageProvider(cfg, log)
	case ProviderBinance:
		cfg, ok := config.(BinanceProviderConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "binance provider requires a BinanceProviderConfig")
		}

		return NewBinanceProvider(cfg)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedVenue, "unsupported trading provider: %s", providerType)
	}
}
