package marketdata

import (
	"fmt"

	"github.com/keel-lab/keel-trading/internal/types"
)

// supportedIntervals lists the bar granularities accepted by every provider,
// in ascending bar length order.
var supportedIntervals = []types.Interval{
	types.Interval1m,
	types.Interval5m,
	types.Interval15m,
	types.Interval30m,
	types.Interval1h,
	types.Interval4h,
	types.Interval1d,
}

// SupportedIntervals returns the accepted interval names.
func SupportedIntervals() []string {
	names := make([]string, 0, len(supportedIntervals))
	for _, interval := range supportedIntervals {
		names = append(names, string(interval))
	}

	return names
}

// ParseInterval converts a string like "5m" or "1d" to an Interval.
func ParseInterval(s string) (types.Interval, error) {
	for _, interval := range supportedIntervals {
		if string(interval) == s {
			return interval, nil
		}
	}

	return "", fmt.Errorf("unsupported interval %q, supported values: %v", s, SupportedIntervals())
}
