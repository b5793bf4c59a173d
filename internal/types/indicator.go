package types

import (
	"fmt"
	"math"
)

type IndicatorType string

const (
	IndicatorTypeMA       IndicatorType = "ma"
	IndicatorTypeIchimoku IndicatorType = "ichimoku"
	IndicatorTypeSAR      IndicatorType = "sar"
)

// Line names used as keys of an IndicatorResult.
const (
	LineConversion   = "ConversionLine"
	LineBase         = "BaseLine"
	LineLeadingSpanA = "LeadingSpanA"
	LineLeadingSpanB = "LeadingSpanB"
	LineSAR          = "SAR"
)

// MovingAverageLine returns the line name of a moving average, e.g. "MA20".
func MovingAverageLine(window int) string {
	return fmt.Sprintf("MA%d", window)
}

// IndicatorResult maps a line name to values aligned with the input series.
// NaN marks an undefined value (warm-up window or shifted-out position).
type IndicatorResult map[string][]float64

// Latest returns the value at the last index of the named line and whether it is defined.
func (r IndicatorResult) Latest(name string) (float64, bool) {
	values, ok := r[name]
	if !ok || len(values) == 0 {
		return math.NaN(), false
	}

	v := values[len(values)-1]

	return v, !math.IsNaN(v)
}

// Merge copies all lines of other into r, overwriting duplicates.
func (r IndicatorResult) Merge(other IndicatorResult) IndicatorResult {
	for name, values := range other {
		r[name] = values
	}

	return r
}

// Undefined returns a slice of n NaN values.
func Undefined(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}

	return values
}
