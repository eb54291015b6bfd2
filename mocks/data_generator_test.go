package mocks

import (
	"math"
	"testing"

	"github.com/keel-lab/keel-trading/internal/types"
)

func TestBarGenerator_Series(t *testing.T) {
	gen := NewBarGenerator(42) // Fixed seed for reproducibility
	config := DefaultBarSeriesConfig()
	config.Count = 100

	bars := gen.Series(config)

	if len(bars) != 100 {
		t.Fatalf("expected 100 bars, got %d", len(bars))
	}

	step := config.Interval.Duration()

	for i, bar := range bars {
		if bar.Symbol != config.Symbol {
			t.Errorf("expected symbol %s at index %d, got %s", config.Symbol, i, bar.Symbol)
		}

		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			t.Errorf("invalid OHLC values at index %d: O=%f H=%f L=%f C=%f",
				i, bar.Open, bar.High, bar.Low, bar.Close)
		}

		if bar.High < math.Max(bar.Open, bar.Close) {
			t.Errorf("high below body at index %d: H=%f O=%f C=%f", i, bar.High, bar.Open, bar.Close)
		}

		if bar.Low > math.Min(bar.Open, bar.Close) {
			t.Errorf("low above body at index %d: L=%f O=%f C=%f", i, bar.Low, bar.Open, bar.Close)
		}

		if i == 0 {
			continue
		}

		if gap := bar.Time.Sub(bars[i-1].Time); gap != step {
			t.Errorf("unexpected spacing at index %d: expected %v, got %v", i, step, gap)
		}
	}
}

func TestBarGenerator_Reproducibility(t *testing.T) {
	// Same seed should produce the same series.
	config := DefaultBarSeriesConfig()
	config.Count = 10

	first := NewBarGenerator(42).Series(config)
	second := NewBarGenerator(42).Series(config)

	for i := range first {
		if first[i].Close != second[i].Close {
			t.Errorf("series not reproducible at index %d: got %f and %f",
				i, first[i].Close, second[i].Close)
		}
	}
}

func TestBarGenerator_DifferentSeeds(t *testing.T) {
	config := DefaultBarSeriesConfig()
	config.Count = 10

	first := NewBarGenerator(42).Series(config)
	second := NewBarGenerator(123).Series(config)

	sameCount := 0
	for i := range first {
		if first[i].Close == second[i].Close {
			sameCount++
		}
	}

	if sameCount == len(first) {
		t.Error("different seeds produced identical series")
	}
}

func TestTrendingBars(t *testing.T) {
	rising := TrendingBars("AAPL", 300, 0.5)

	if len(rising) != 300 {
		t.Fatalf("expected 300 bars, got %d", len(rising))
	}

	if rising[0].Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", rising[0].Symbol)
	}

	if last := rising[len(rising)-1]; last.Close <= rising[0].Open {
		t.Errorf("positive drift did not rise: first open %f, last close %f", rising[0].Open, last.Close)
	}

	falling := TrendingBars("AAPL", 300, -0.5)

	if last := falling[len(falling)-1]; last.Close >= falling[0].Open {
		t.Errorf("negative drift did not fall: first open %f, last close %f", falling[0].Open, last.Close)
	}
}

func TestBarGenerator_SeriesBySymbol(t *testing.T) {
	symbols := []string{"AAPL", "GOOG", "MSFT"}
	gen := NewBarGenerator(42)
	config := DefaultBarSeriesConfig()
	config.Count = 100

	series := gen.SeriesBySymbol(symbols, config)

	if len(series) != len(symbols) {
		t.Fatalf("expected %d series, got %d", len(symbols), len(series))
	}

	for _, symbol := range symbols {
		bars, ok := series[symbol]
		if !ok {
			t.Errorf("missing series for %s", symbol)
			continue
		}

		if len(bars) != config.Count {
			t.Errorf("expected %d bars for %s, got %d", config.Count, symbol, len(bars))
		}

		for i, bar := range bars {
			if bar.Symbol != symbol {
				t.Errorf("expected symbol %s at index %d, got %s", symbol, i, bar.Symbol)
			}
		}
	}

	if series["AAPL"][0].Open == series["GOOG"][0].Open {
		t.Error("expected per-symbol start prices to vary")
	}
}

func TestDefaultBarSeriesConfig(t *testing.T) {
	config := DefaultBarSeriesConfig()

	if config.Count != 500 {
		t.Errorf("expected default count 500, got %d", config.Count)
	}

	if config.Symbol != "TEST" {
		t.Errorf("expected default symbol TEST, got %s", config.Symbol)
	}

	if config.Interval != types.Interval1m {
		t.Errorf("expected default interval 1m, got %v", config.Interval)
	}

	if config.StartPrice != 100 {
		t.Errorf("expected default start price 100, got %f", config.StartPrice)
	}
}
