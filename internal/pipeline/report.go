package pipeline

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// Report is the outcome of a run. Failures are carried in Warnings and Error, never panicked.
type Report struct {
	Request Request
	// Series is the fetched history, empty when the fetch failed
	Series types.PriceSeries
	// Indicators holds every registered indicator line aligned with Series
	Indicators types.IndicatorResult
	Forecast   optional.Option[types.ForecastResult]
	// CurrentPrice is the requested field of the last bar
	CurrentPrice float64
	// ForecastPrice is the forecast at the final horizon step
	ForecastPrice float64
	// Signal is Hold when no decision could be made
	Signal types.SignalType
	// ExpectedReturn is set only for a Buy signal
	ExpectedReturn optional.Option[types.ReturnEstimate]
	Projection     optional.Option[types.Projection]
	ReturnStats    optional.Option[types.ReturnStats]
	// HorizonProjections compounds the mean daily return at 1, 30 and 365 days
	HorizonProjections []types.Projection
	Backtest           optional.Option[types.BacktestMetrics]
	Warnings           []string
	// Error is the failure that stopped the run, nil when it completed
	Error error
}

// OK reports whether the run completed.
func (r Report) OK() bool {
	return r.Error == nil && !r.Series.IsEmpty()
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
