package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-forecast/internal/backtest/engine"
	"github.com/rxtech-lab/argo-forecast/internal/forecast"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/signal"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config      BacktestEngineV1Config
	forecaster  *forecast.Forecaster
	journal     *DecisionJournal
	log         *logger.Logger
	initialized bool
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

// NewBacktestEngineV1 returns an engine with the default configuration and an ARIMA(5,1,0) forecaster.
// Call Initialize or InitializeWithConfig before Run.
func NewBacktestEngineV1(log *logger.Logger) *BacktestEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:      EmptyConfig(),
		forecaster:  forecast.NewForecaster(log),
		journal:     nil,
		log:         log,
		initialized: false,
	}
}

// SetForecaster replaces the forecaster used for every step.
func (b *BacktestEngineV1) SetForecaster(forecaster *forecast.Forecaster) {
	b.forecaster = forecaster
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	// unset keys keep their defaults
	parsed := EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest configuration", err)
	}

	return b.InitializeWithConfig(parsed)
}

// InitializeWithConfig validates config and prepares the decision journal.
func (b *BacktestEngineV1) InitializeWithConfig(config BacktestEngineV1Config) error {
	strategy, err := types.ParseStrategy(string(config.Strategy))
	if err != nil {
		return err
	}

	config.Strategy = strategy

	if err := config.Validate(); err != nil {
		return err
	}

	if b.journal == nil {
		b.journal, err = NewDecisionJournal(b.log)
		if err != nil {
			return fmt.Errorf("failed to create decision journal: %w", err)
		}
	}

	b.config = config
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("strategy", string(config.Strategy)),
		zap.Int("lookback", config.Lookback),
		zap.String("field", string(config.Field)),
	)

	return nil
}

// Config returns the active configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// Run implements engine.Engine.
// A step whose forecast cannot be fitted, or whose reference level is still undefined, is
// recorded as Hold and counted in TotalTrades plus FitFailures or UndefinedReference.
func (b *BacktestEngineV1) Run(ctx context.Context, series types.PriceSeries, callbacks engine.LifecycleCallbacks) (metrics types.BacktestMetrics, err error) {
	if err := b.preRunCheck(series); err != nil {
		return types.BacktestMetrics{}, err
	}

	runID := uuid.New().String()
	total := series.Len() - b.config.Lookback

	metrics = types.BacktestMetrics{
		ID:       runID,
		Symbol:   series.Symbol,
		Strategy: b.config.Strategy,
	}

	if callbacks.OnRunEnd != nil {
		defer func() {
			(*callbacks.OnRunEnd)(metrics, err)
		}()
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, total); err != nil {
			return metrics, err
		}
	}

	b.log.Info("Running backtest",
		zap.String("run_id", runID),
		zap.String("symbol", series.Symbol),
		zap.String("strategy", string(b.config.Strategy)),
		zap.Int("steps", total),
	)

	for i := b.config.Lookback; i < series.Len(); i++ {
		select {
		case <-ctx.Done():
			b.log.Warn("Backtest cancelled",
				zap.String("run_id", runID),
				zap.Int("completed", metrics.TotalTrades),
			)

			return metrics, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", ctx.Err())
		default:
		}

		step := b.step(series, i)

		metrics.TotalTrades++

		switch step.Signal {
		case types.SignalTypeBuy:
			metrics.BuyCount++
		case types.SignalTypeSell:
			metrics.SellCount++
		default:
			metrics.HoldCount++

			switch step.Cause {
			case types.HoldCauseFitFailure:
				metrics.FitFailures++
			case types.HoldCauseUndefinedReference:
				metrics.UndefinedReference++
			}
		}

		if err := b.journal.Record(runID, series.Symbol, step); err != nil {
			return metrics, err
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(metrics.TotalTrades, total); err != nil {
				return metrics, err
			}
		}
	}

	metrics.Timestamp = time.Now()

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Int("total_trades", metrics.TotalTrades),
		zap.Int("buy_count", metrics.BuyCount),
		zap.Int("sell_count", metrics.SellCount),
		zap.Int("fit_failures", metrics.FitFailures),
		zap.Int("undefined_reference", metrics.UndefinedReference),
	)

	return metrics, nil
}

// step forecasts one step ahead of bars 0..i and decides on that prefix.
func (b *BacktestEngineV1) step(series types.PriceSeries, i int) types.BacktestStep {
	prefix := series.Prefix(i + 1)

	step := types.BacktestStep{
		Index:    i,
		Date:     series.Bars[i].Date,
		Forecast: math.NaN(),
		Signal:   types.SignalTypeHold,
	}

	result, err := b.forecaster.FitForecast(prefix, b.config.Field, 1, forecast.Options{})
	if err != nil {
		b.log.Debug("Forecast failed, holding",
			zap.Int("step", i),
			zap.Error(err),
		)

		step.Cause = types.HoldCauseFitFailure
		step.Reason = err.Error()

		return step
	}

	next, _ := result.Next()

	decision, err := signal.Decide(b.config.Strategy, next, prefix, b.config.Params)
	if err != nil {
		b.log.Debug("Decision failed, holding",
			zap.Int("step", i),
			zap.Error(err),
		)

		// the window or warm-up is longer than the prefix
		step.Cause = types.HoldCauseUndefinedReference
		step.Reason = err.Error()

		return step
	}

	step.Forecast = next
	step.Signal = decision

	return step
}

// Steps implements engine.Engine.
func (b *BacktestEngineV1) Steps(runID string) ([]types.BacktestStep, error) {
	if b.journal == nil {
		return nil, errors.New(errors.ErrCodeBacktestConfigError, "engine is not initialized")
	}

	return b.journal.Steps(runID)
}

// Counts returns the per-signal step counts of a run as recorded in the journal.
func (b *BacktestEngineV1) Counts(runID string) (map[types.SignalType]int, error) {
	if b.journal == nil {
		return nil, errors.New(errors.ErrCodeBacktestConfigError, "engine is not initialized")
	}

	return b.journal.Counts(runID)
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Close implements engine.Engine.
func (b *BacktestEngineV1) Close() error {
	if b.journal == nil {
		return nil
	}

	err := b.journal.Close()
	b.journal = nil
	b.initialized = false

	return err
}

func (b *BacktestEngineV1) preRunCheck(series types.PriceSeries) error {
	if !b.initialized || b.journal == nil {
		b.log.Error("Engine not initialized")

		return errors.New(errors.ErrCodeBacktestConfigError, "engine is not initialized")
	}

	if b.forecaster == nil {
		b.log.Error("No forecaster set")

		return errors.New(errors.ErrCodeBacktestConfigError, "no forecaster set")
	}

	minLookback := b.forecaster.Model().MinObservations()
	if b.config.Lookback < minLookback {
		return errors.Newf(errors.ErrCodeBacktestConfigError,
			"lookback %d is below the model minimum of %d observations", b.config.Lookback, minLookback)
	}

	if b.config.Lookback >= series.Len() {
		return errors.Wrap(errors.ErrCodeBacktestConfigError,
			fmt.Sprintf("lookback %d leaves nothing to replay", b.config.Lookback),
			errors.NewInsufficientDataError(b.config.Lookback+1, series.Len(), series.Symbol, "series is not longer than the lookback"))
	}

	return nil
}
