package tradingprovider

import (
	"github.com/go-playground/validator/v10"
	"github.com/keel-lab/keel-trading/pkg/errors"
)

// BinanceProviderConfig contains configuration for Binance spot trading.
type BinanceProviderConfig struct {
	ApiKey    string `json:"apiKey" yaml:"api_key" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `json:"secretKey" yaml:"secret_key" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// BaseURL overrides the SDK endpoint. Used to point orders at a mock
	// exchange in tests.
	BaseURL string `json:"baseUrl,omitempty" yaml:"base_url" jsonschema:"title=Base URL,description=Override for the Binance API endpoint"`
	// UseTestnet routes orders to the Binance spot testnet.
	UseTestnet bool `json:"useTestnet,omitempty" yaml:"use_testnet" jsonschema:"title=Use Testnet,description=Route orders to the Binance spot testnet"`
}

// Validate validates the BinanceProviderConfig struct.
func (c *BinanceProviderConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance provider config", err)
	}

	return nil
}
