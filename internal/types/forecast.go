package types

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// ForecastResult is produced fresh by every forecast call and never mutated.
type ForecastResult struct {
	// PointForecasts holds the forecast for horizon steps 1..N
	PointForecasts []float64
	// BacktestError is the MAPE over the held-out tail as a fraction, when a backtest was requested and defined
	BacktestError optional.Option[float64]
	// FittedOn is the series the production model was fitted on
	FittedOn PriceSeries
	// Field is the price column that was modelled
	Field PriceField
	// Coefficients are the fitted autoregressive coefficients, empty for degenerate forecasts
	Coefficients []float64
	// Degenerate is true when the model could not be fitted and the last value was repeated
	Degenerate bool
	// FallbackReason is the fit error that forced a degenerate forecast
	FallbackReason error
	// BacktestFailure explains why BacktestError is None although a backtest was requested
	BacktestFailure error
	// TrainSize is the number of observations in the backtest training split
	TrainSize int
}

// Next returns the one-step-ahead forecast.
func (f ForecastResult) Next() (float64, bool) {
	if len(f.PointForecasts) == 0 {
		return 0, false
	}

	return f.PointForecasts[0], true
}

// ProjectionMode selects how an investment is projected forward.
type ProjectionMode string

const (
	// ProjectionRatio scales the investment by forecast/current price
	ProjectionRatio ProjectionMode = "ratio"
	// ProjectionCompound compounds the mean daily return over the horizon
	ProjectionCompound ProjectionMode = "compound"
)

// ReturnEstimate is the expected outcome of buying at the current price.
type ReturnEstimate struct {
	// PercentageReturn is (forecast-current)/current*100
	PercentageReturn decimal.Decimal
	// MonetaryGain is investment*PercentageReturn/100
	MonetaryGain decimal.Decimal
}

// Projection is the projected value of an investment after HorizonDays.
type Projection struct {
	Mode        ProjectionMode
	HorizonDays int
	Value       decimal.Decimal
}

// ReturnStats summarizes daily percentage-change returns.
type ReturnStats struct {
	MeanDailyReturn float64
	StdDev          float64
	Observations    int
}
