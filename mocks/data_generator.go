package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/keel-lab/keel-trading/internal/types"
)

// BarGenerator produces synthetic OHLCV series for tests. Prices follow a
// geometric Brownian walk so indicator math behaves the way it would on
// real bars.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator seeds the generator. Tests use a fixed seed so the same
// series comes back on every run.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// BarSeriesConfig shapes one generated series.
type BarSeriesConfig struct {
	// Symbol stamps every bar.
	Symbol string
	// StartTime is the timestamp of the first bar.
	StartTime time.Time
	// Interval is the spacing between consecutive bars.
	Interval types.Interval
	// Count is the number of bars to produce.
	Count int
	// StartPrice is the open of the first bar.
	StartPrice float64
	// Volatility is the per-bar standard deviation of returns
	// (0.002 is an uneventful intraday minute).
	Volatility float64
	// Drift is the total return spread across the whole series;
	// 0.3 grinds up about 30%, negative values grind down.
	Drift float64
	// BaseVolume is the average bar volume.
	BaseVolume float64
	// VolumeJitter is the relative volume variance, 0 to 1.
	VolumeJitter float64
}

// DefaultBarSeriesConfig returns a neutral minute series long enough for
// any strategy warmup.
func DefaultBarSeriesConfig() BarSeriesConfig {
	return BarSeriesConfig{
		Symbol:       "TEST",
		StartTime:    time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
		Interval:     types.Interval1m,
		Count:        500,
		StartPrice:   100,
		Volatility:   0.002,
		Drift:        0,
		BaseVolume:   10000,
		VolumeJitter: 0.3,
	}
}

// Series generates config.Count bars in ascending time order.
func (g *BarGenerator) Series(config BarSeriesConfig) []types.MarketData {
	bars := make([]types.MarketData, config.Count)
	price := config.StartPrice
	at := config.StartTime
	step := config.Interval.Duration()

	for i := range bars {
		open := price

		// Box-Muller gives the normally distributed return for this bar.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		shock := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*shock + config.Drift/float64(config.Count))
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		wickUp := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		wickDown := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + wickUp

		low := math.Min(open, closePrice) - wickDown
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.BaseVolume * (1 + (g.rng.Float64()*2-1)*config.VolumeJitter)
		if volume < 0 {
			volume = config.BaseVolume * 0.1
		}

		bars[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   at,
			Open:   roundTo(open, 4),
			High:   roundTo(high, 4),
			Low:    roundTo(low, 4),
			Close:  roundTo(closePrice, 4),
			Volume: roundTo(volume, 2),
		}

		price = closePrice
		at = at.Add(step)
	}

	return bars
}

// SeriesBySymbol generates an independent series per symbol, varying the
// start price and volatility so symbols do not move in lockstep.
func (g *BarGenerator) SeriesBySymbol(symbols []string, base BarSeriesConfig) map[string][]types.MarketData {
	series := make(map[string][]types.MarketData, len(symbols))

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		config.StartPrice = base.StartPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)
		series[symbol] = g.Series(config)
	}

	return series
}

// TrendingBars is a convenience for signal tests: a reproducible series
// whose drift is strong enough for moving-average crossovers to fire.
func TrendingBars(symbol string, count int, drift float64) []types.MarketData {
	config := DefaultBarSeriesConfig()
	config.Symbol = symbol
	config.Count = count
	config.Drift = drift

	return NewBarGenerator(42).Series(config)
}

// roundTo rounds a value to the given number of decimal places.
func roundTo(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
