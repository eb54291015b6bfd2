package indicator

import "github.com/keel-lab/keel-trading/internal/types"

// RSI returns the relative strength index computed with simple averages over
// the last period price changes. The window needs period+1 bars so that
// period deltas exist.
func RSI(bars []types.MarketData, period int) (float64, bool) {
	if period < 1 || len(bars) <= period {
		return 0, false
	}

	window := bars[len(bars)-period-1:]

	gains := 0.0
	losses := 0.0

	for i := 1; i < len(window); i++ {
		change := window[i].Close - window[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			// Flat prices carry no momentum either way.
			return 50, true
		}

		return 100, true
	}

	rs := (gains / float64(period)) / (losses / float64(period))

	return 100 - 100/(1+rs), true
}
