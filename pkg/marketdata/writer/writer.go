package writer

import "github.com/keel-lab/keel-trading/internal/types"

// MarketDataWriter persists downloaded bars. Implementations buffer writes
// between Initialize and Finalize; Close releases resources whether or not
// Finalize ran.
type MarketDataWriter interface {
	Initialize() error
	Write(data types.MarketData) error
	// Finalize flushes buffered data and returns the path of the produced
	// artifact.
	Finalize() (string, error)
	Close() error
}
