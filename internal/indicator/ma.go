package indicator

import "github.com/keel-lab/keel-trading/internal/types"

// SMA returns the simple moving average of the closing price over the last
// period bars.
func SMA(bars []types.MarketData, period int) (float64, bool) {
	if period <= 0 || len(bars) < period {
		return 0, false
	}

	sum := 0.0
	for _, bar := range bars[len(bars)-period:] {
		sum += bar.Close
	}

	return sum / float64(period), true
}
