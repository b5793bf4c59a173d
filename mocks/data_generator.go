package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// DataGenerator generates realistic daily price series for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// Symbol is the ticker (e.g., "AAPL", "RELIANCE.NS")
	Symbol string
	// StartDate is the date of the first bar
	StartDate time.Time
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the total drift over the whole series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average daily volume; zero leaves volume unset
	VolumeBase float64
}

// DefaultConfig returns one trading year of mildly volatile daily bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:        252,
		InitialPrice: 100.0,
		Volatility:   0.01,
		Trend:        0.0,
		VolumeBase:   1_000_000,
	}
}

// Generate creates bars following a geometric Brownian motion, one per calendar day.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.PriceBar {
	bars := make([]types.PriceBar, config.Count)
	currentPrice := config.InitialPrice
	currentDate := config.StartDate

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a standard normal draw
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, closePrice) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := optional.None[int64]()
		if config.VolumeBase > 0 {
			volume = optional.Some(int64(config.VolumeBase * (0.7 + g.rng.Float64()*0.6)))
		}

		bars[i] = types.PriceBar{
			Date:   currentDate,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: volume,
		}

		currentPrice = closePrice
		currentDate = currentDate.AddDate(0, 0, 1)
	}

	return bars
}

// GenerateSeries wraps Generate in a PriceSeries. Generated bars always satisfy the bar invariants.
func (g *DataGenerator) GenerateSeries(config GeneratorConfig) types.PriceSeries {
	return types.PriceSeries{
		Symbol: config.Symbol,
		Bars:   g.Generate(config),
	}
}

// SeriesFromCloses builds daily bars around the given closes: open equals close and the
// high/low sit half a unit away. Useful for hand-checked expectations.
func SeriesFromCloses(symbol string, closes []float64) types.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.PriceBar, len(closes))

	for i, c := range closes {
		low := c - 0.5
		if low <= 0 {
			low = c / 2
		}

		bars[i] = types.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    low,
			Close:  c,
			Volume: optional.None[int64](),
		}
	}

	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

// LinearCloses returns n closes starting at start and increasing by step.
func LinearCloses(start, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}

	return closes
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
