package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

const (
	ConversionPeriod = 9
	BasePeriod       = 26
	SpanBPeriod      = 52
	// Displacement is how far the leading spans are shifted forward
	Displacement = 26
)

// Ichimoku computes the simplified Ichimoku lines. The leading spans are the value computed at
// index i placed at index i+Displacement; values that would land past the end are dropped.
func Ichimoku(series types.PriceSeries) types.IndicatorResult {
	highs := series.Highs()
	lows := series.Lows()
	n := len(highs)

	conversion := rollingMidpoint(highs, lows, ConversionPeriod)
	base := rollingMidpoint(highs, lows, BasePeriod)
	spanB := rollingMidpoint(highs, lows, SpanBPeriod)

	spanA := types.Undefined(n)
	for i := 0; i < n; i++ {
		spanA[i] = (conversion[i] + base[i]) / 2
	}

	return types.IndicatorResult{
		types.LineConversion:   conversion,
		types.LineBase:         base,
		types.LineLeadingSpanA: shiftForward(spanA, Displacement),
		types.LineLeadingSpanB: shiftForward(spanB, Displacement),
	}
}

// rollingMidpoint is (highest high + lowest low) / 2 over the trailing period bars.
func rollingMidpoint(highs, lows []float64, period int) []float64 {
	n := len(highs)
	out := types.Undefined(n)

	if n < period {
		return out
	}

	highest := talib.Max(highs, period)
	lowest := talib.Min(lows, period)

	for i := period - 1; i < n; i++ {
		out[i] = (highest[i] + lowest[i]) / 2
	}

	return out
}

func shiftForward(values []float64, by int) []float64 {
	out := types.Undefined(len(values))
	for i := 0; i+by < len(values); i++ {
		out[i+by] = values[i]
	}

	return out
}

// IchimokuCloud indicator wraps Ichimoku for the registry.
type IchimokuCloud struct{}

// NewIchimoku creates a new Ichimoku indicator.
func NewIchimoku() Indicator {
	return &IchimokuCloud{}
}

// Name returns the name of the indicator.
func (c *IchimokuCloud) Name() types.IndicatorType {
	return types.IndicatorTypeIchimoku
}

// Calculate ignores params; the periods are fixed at 9/26/52.
func (c *IchimokuCloud) Calculate(series types.PriceSeries, _ types.StrategyParams) (types.IndicatorResult, error) {
	return Ichimoku(series), nil
}
