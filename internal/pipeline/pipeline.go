package pipeline

import (
	"context"
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/backtest/engine"
	v1 "github.com/rxtech-lab/argo-forecast/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-forecast/internal/forecast"
	"github.com/rxtech-lab/argo-forecast/internal/indicator"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/signal"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// Pipeline runs fetch, indicators, forecast, signal, projection and backtest for one request.
// It holds no per-run state and can serve requests for different symbols concurrently.
type Pipeline struct {
	provider   provider.Provider
	registry   indicator.IndicatorRegistry
	forecaster *forecast.Forecaster
	callbacks  engine.LifecycleCallbacks
	log        *logger.Logger
}

// NewPipeline creates a pipeline over the given provider with the default indicators and
// an ARIMA(5,1,0) forecaster.
func NewPipeline(marketProvider provider.Provider, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Pipeline{
		provider:   marketProvider,
		registry:   indicator.NewDefaultRegistry(),
		forecaster: forecast.NewForecaster(log),
		callbacks:  engine.LifecycleCallbacks{},
		log:        log,
	}
}

// SetBacktestCallbacks sets the lifecycle callbacks passed to every backtest run.
func (p *Pipeline) SetBacktestCallbacks(callbacks engine.LifecycleCallbacks) {
	p.callbacks = callbacks
}

// SetForecaster replaces the forecaster used for the forecast and the backtest.
func (p *Pipeline) SetForecaster(forecaster *forecast.Forecaster) {
	p.forecaster = forecaster
}

// Run executes the request. An empty fetch result ends the run with a warning; any other
// failure that prevents a forecast is reported in Report.Error.
func (p *Pipeline) Run(ctx context.Context, req Request) Report {
	report := Report{Request: req, Signal: types.SignalTypeHold}

	if err := req.Validate(); err != nil {
		report.Error = err

		return report
	}

	report.Request = req

	series, err := p.provider.Fetch(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNoDataAvailable) {
			p.log.Warn("No data available", zap.String("symbol", req.Symbol), zap.Error(err))
			report.warn(fmt.Sprintf("no data available for %s", req.Symbol))

			return report
		}

		p.log.Error("Failed to fetch market data", zap.String("symbol", req.Symbol), zap.Error(err))
		report.Error = err

		return report
	}

	report.Series = series

	indicators, err := p.registry.CalculateAll(series, req.Params)
	if len(indicators) > 0 {
		report.Indicators = indicators
	}

	for _, failure := range errors.Split(err) {
		report.warn(fmt.Sprintf("indicators unavailable: %v", failure))
	}

	result, err := p.forecaster.ForecastWithFallback(series, req.Field, req.Horizon, forecast.Options{Backtest: req.Backtest})
	if err != nil {
		report.Error = err

		return report
	}

	report.Forecast = optional.Some(result)

	if result.Degenerate {
		report.warn(fmt.Sprintf("forecast fell back to the last observed value: %v", result.FallbackReason))
	}

	if req.Backtest && result.BacktestError.IsNone() && result.BacktestFailure != nil {
		report.warn(fmt.Sprintf("forecast backtest unavailable: %v", result.BacktestFailure))
	}

	report.CurrentPrice, err = series.Last().Value(req.Field)
	if err != nil {
		report.Error = err

		return report
	}

	report.ForecastPrice = result.PointForecasts[len(result.PointForecasts)-1]

	p.decide(&report, series, req)
	p.project(&report, series, req)

	if req.Backtest {
		p.backtest(ctx, &report, series, req)
	}

	p.log.Info("Pipeline finished",
		zap.String("symbol", req.Symbol),
		zap.String("signal", string(report.Signal)),
		zap.Float64("current", report.CurrentPrice),
		zap.Float64("forecast", report.ForecastPrice),
		zap.Int("warnings", len(report.Warnings)),
	)

	return report
}

func (p *Pipeline) decide(report *Report, series types.PriceSeries, req Request) {
	decision, err := signal.Decide(req.Strategy, report.ForecastPrice, series, req.Params)
	if err != nil {
		report.warn(fmt.Sprintf("no signal: %v", err))

		return
	}

	report.Signal = decision

	if decision != types.SignalTypeBuy {
		return
	}

	estimate, err := signal.ExpectedReturn(req.InvestmentAmount, report.CurrentPrice, report.ForecastPrice)
	if err != nil {
		report.warn(fmt.Sprintf("expected return unavailable: %v", err))

		return
	}

	report.ExpectedReturn = optional.Some(estimate)
}

func (p *Pipeline) project(report *Report, series types.PriceSeries, req Request) {
	stats, err := forecast.ReturnStats(series)
	if err != nil {
		report.warn(fmt.Sprintf("return statistics unavailable: %v", err))
	} else {
		report.ReturnStats = optional.Some(stats)

		horizons, err := forecast.ProjectHorizons(req.InvestmentAmount, stats)
		if err != nil {
			report.warn(fmt.Sprintf("horizon projections unavailable: %v", err))
		} else {
			report.HorizonProjections = horizons
		}
	}

	if req.ProjectionMode == types.ProjectionCompound && report.ReturnStats.IsNone() {
		return
	}

	projection, err := forecast.InvestmentProjection(req.ProjectionMode, forecast.ProjectionInput{
		Investment:      req.InvestmentAmount,
		CurrentPrice:    report.CurrentPrice,
		ForecastPrice:   report.ForecastPrice,
		HorizonDays:     req.Horizon,
		MeanDailyReturn: stats.MeanDailyReturn,
	})
	if err != nil {
		report.warn(fmt.Sprintf("projection unavailable: %v", err))

		return
	}

	report.Projection = optional.Some(projection)
}

func (p *Pipeline) backtest(ctx context.Context, report *Report, series types.PriceSeries, req Request) {
	backtester := v1.NewBacktestEngineV1(p.log)
	backtester.SetForecaster(p.forecaster)

	defer func() {
		if err := backtester.Close(); err != nil {
			p.log.Warn("Failed to close backtest engine", zap.Error(err))
		}
	}()

	err := backtester.InitializeWithConfig(v1.BacktestEngineV1Config{
		Strategy: req.Strategy,
		Params:   req.Params,
		Lookback: req.Lookback,
		Field:    req.Field,
	})
	if err != nil {
		report.warn(fmt.Sprintf("backtest skipped: %v", err))

		return
	}

	metrics, err := backtester.Run(ctx, series, p.callbacks)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeBacktestCancelled) {
			report.Error = err

			return
		}

		report.warn(fmt.Sprintf("backtest skipped: %v", err))

		return
	}

	report.Backtest = optional.Some(metrics)
}
