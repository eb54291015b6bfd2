package provider

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/marketdata/writer"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// DuckDBProvider serves bars from a previously downloaded Parquet file, so
// paper deployments can replay stored history without a vendor API key.
type DuckDBProvider struct {
	db   *sql.DB
	path string
}

func NewDuckDBProvider(dataPath string) (Provider, error) {
	if dataPath == "" {
		return nil, fmt.Errorf("dataPath is required")
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	return &DuckDBProvider{
		db:   db,
		path: dataPath,
	}, nil
}

func (c *DuckDBProvider) ConfigWriter(w writer.MarketDataWriter) {
	// Replay data is already on disk; there is nothing to write.
}

func (c *DuckDBProvider) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, interval types.Interval, onProgress OnDownloadProgress) (string, error) {
	return "", fmt.Errorf("duckdb provider replays stored data and cannot download")
}

// FetchBars reads the stored bars covering the window. The interval is fixed
// at download time, so the argument only documents the caller's expectation.
func (c *DuckDBProvider) FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time, interval types.Interval) ([]types.MarketData, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, symbol, time, open, high, low, close, volume
		FROM read_parquet(?)
		WHERE symbol = ? AND time >= ? AND time <= ?
		ORDER BY time ASC
	`, c.path, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored bars from %s: %w", c.path, err)
	}

	defer rows.Close()

	bars := make([]types.MarketData, 0)

	for rows.Next() {
		var bar types.MarketData
		if err := rows.Scan(&bar.Id, &bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan stored bar: %w", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stored bars: %w", err)
	}

	return bars, nil
}

// Close releases the underlying database connection.
func (c *DuckDBProvider) Close() error {
	return c.db.Close()
}
