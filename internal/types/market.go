package types

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// PriceField selects one price column of a bar.
type PriceField string

const (
	PriceFieldOpen  PriceField = "open"
	PriceFieldHigh  PriceField = "high"
	PriceFieldLow   PriceField = "low"
	PriceFieldClose PriceField = "close"
)

// PriceBar is a single daily OHLC(V) record.
type PriceBar struct {
	// Date is the trading day of the bar
	Date time.Time `json:"date" yaml:"date"`
	// Open is the opening price
	Open float64 `json:"open" yaml:"open"`
	// High is the highest traded price
	High float64 `json:"high" yaml:"high"`
	// Low is the lowest traded price
	Low float64 `json:"low" yaml:"low"`
	// Close is the closing price
	Close float64 `json:"close" yaml:"close"`
	// Volume is the traded volume when the provider reports one
	Volume optional.Option[int64] `json:"volume" yaml:"volume"`
}

// Value returns the requested price column.
func (b PriceBar) Value(field PriceField) (float64, error) {
	switch field {
	case PriceFieldOpen:
		return b.Open, nil
	case PriceFieldHigh:
		return b.High, nil
	case PriceFieldLow:
		return b.Low, nil
	case PriceFieldClose:
		return b.Close, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unknown price field %q", field)
	}
}

// Validate checks high >= max(open, close) >= min(open, close) >= low, that every price is a
// positive finite number and that volume, when present, is non-negative.
func (b PriceBar) Validate() error {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPriceBar, "bar %s has non-positive or non-finite price %v", b.Date.Format(time.DateOnly), p)
		}
	}

	if b.High < math.Max(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeInvalidPriceBar, "bar %s: high %.4f below open/close", b.Date.Format(time.DateOnly), b.High)
	}

	if b.Low > math.Min(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeInvalidPriceBar, "bar %s: low %.4f above open/close", b.Date.Format(time.DateOnly), b.Low)
	}

	if b.Volume.IsSome() && b.Volume.Unwrap() < 0 {
		return errors.Newf(errors.ErrCodeInvalidPriceBar, "bar %s: negative volume %d", b.Date.Format(time.DateOnly), b.Volume.Unwrap())
	}

	return nil
}

// PriceSeries is an ordered, read-only sequence of daily bars for one symbol.
// Dates are strictly increasing.
type PriceSeries struct {
	Symbol string
	Bars   []PriceBar
}

// NewPriceSeries validates every bar and the date ordering. The bars are copied so the
// caller's slice can be reused.
func NewPriceSeries(symbol string, bars []PriceBar) (PriceSeries, error) {
	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return PriceSeries{}, err
		}

		if i > 0 && !bar.Date.After(bars[i-1].Date) {
			return PriceSeries{}, errors.Newf(errors.ErrCodeUnorderedSeries,
				"bar %d (%s) is not after bar %d (%s)", i, bar.Date.Format(time.DateOnly), i-1, bars[i-1].Date.Format(time.DateOnly))
		}
	}

	copied := make([]PriceBar, len(bars))
	copy(copied, bars)

	return PriceSeries{Symbol: symbol, Bars: copied}, nil
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// IsEmpty reports whether the series has no bars.
func (s PriceSeries) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Last returns the most recent bar. The series must not be empty.
func (s PriceSeries) Last() PriceBar {
	return s.Bars[len(s.Bars)-1]
}

// Prefix returns the first n bars as a series sharing the same backing array.
func (s PriceSeries) Prefix(n int) PriceSeries {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}

	if n < 0 {
		n = 0
	}

	return PriceSeries{Symbol: s.Symbol, Bars: s.Bars[:n:n]}
}

// Field extracts one price column.
func (s PriceSeries) Field(field PriceField) ([]float64, error) {
	values := make([]float64, len(s.Bars))

	for i, bar := range s.Bars {
		v, err := bar.Value(field)
		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	return values, nil
}

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	values, _ := s.Field(PriceFieldClose)

	return values
}

// Highs returns the high column.
func (s PriceSeries) Highs() []float64 {
	values, _ := s.Field(PriceFieldHigh)

	return values
}

// Lows returns the low column.
func (s PriceSeries) Lows() []float64 {
	values, _ := s.Field(PriceFieldLow)

	return values
}

// Dates returns the bar dates.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, bar := range s.Bars {
		dates[i] = bar.Date
	}

	return dates
}
