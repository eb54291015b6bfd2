package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/marketdata/writer"
)

// ProviderType identifies a market data source.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderDuckDB  ProviderType = "duckdb"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer Download streams bars through.
	// It could target a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches the bar history for the ticker and date range and
	// persists it through the configured writer, returning the path of the
	// produced artifact. The context cancels the download.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, interval types.Interval, onProgress OnDownloadProgress) (path string, err error)
	// FetchBars returns the bars covering the window in ascending time
	// order without touching the writer. Deployments poll through this.
	FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time, interval types.Interval) ([]types.MarketData, error)
}

// NewMarketDataProvider creates a provider from its type. The config string
// carries the provider-specific setting: the API key for polygon, the data
// file path for duckdb. Binance needs none for public market data.
func NewMarketDataProvider(providerType ProviderType, config string) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(config)
	case ProviderDuckDB:
		return NewDuckDBProvider(config)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}
