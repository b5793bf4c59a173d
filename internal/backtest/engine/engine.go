package engine

import (
	"context"

	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// Lifecycle callback types for a backtest run.
// Callbacks with an error return abort the run when they return an error.

// OnRunStartCallback is called once before the first step with the run ID and the number of steps.
type OnRunStartCallback func(runID string, totalSteps int) error

// OnRunEndCallback is called when the run ends, successfully or not (always called via defer).
type OnRunEndCallback func(metrics types.BacktestMetrics, err error)

// OnProcessDataCallback is called after every replayed step.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds the lifecycle callbacks of a run.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

// Engine replays the forecast and signal pipeline over a historical series.
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// Run replays every step from the configured lookback to the end of the series and
	// returns the decision counts. The context can be used to cancel the run between steps.
	Run(ctx context.Context, series types.PriceSeries, callbacks LifecycleCallbacks) (types.BacktestMetrics, error)
	// Steps returns the decision log of a run in step order.
	Steps(runID string) ([]types.BacktestStep, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
	// Close releases the decision log.
	Close() error
}
