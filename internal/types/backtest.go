package types

import "time"

// BacktestMetrics counts how often each decision fired during a replay.
// BuyCount + SellCount <= TotalTrades; the remainder are Hold steps.
type BacktestMetrics struct {
	// ID identifies the backtest run
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the run finished
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol is the replayed symbol
	Symbol string `yaml:"symbol" json:"symbol"`
	// Strategy is the replayed strategy
	Strategy StrategyType `yaml:"strategy" json:"strategy"`
	// TotalTrades is the number of replayed steps
	TotalTrades int `yaml:"total_trades" json:"total_trades"`
	// BuyCount is the number of Buy decisions
	BuyCount int `yaml:"buy_count" json:"buy_count"`
	// SellCount is the number of Sell decisions
	SellCount int `yaml:"sell_count" json:"sell_count"`
	// HoldCount is the number of steps where no decision could be made.
	// HoldCount == FitFailures + UndefinedReference.
	HoldCount int `yaml:"hold_count" json:"hold_count"`
	// FitFailures is the number of steps whose forecast could not be fitted
	FitFailures int `yaml:"fit_failures" json:"fit_failures"`
	// UndefinedReference is the number of steps whose reference indicator had no value yet
	UndefinedReference int `yaml:"undefined_reference" json:"undefined_reference"`
}

// HoldCause says why a replayed step was recorded as Hold.
type HoldCause string

const (
	HoldCauseNone               HoldCause = ""
	HoldCauseFitFailure         HoldCause = "fit_failure"
	HoldCauseUndefinedReference HoldCause = "undefined_reference"
)

// BacktestStep is one entry of the decision log.
// Forecast is NaN, Cause and Reason are set when the step was recorded as Hold.
type BacktestStep struct {
	Index    int
	Date     time.Time
	Forecast float64
	Signal   SignalType
	Cause    HoldCause
	Reason   string
}
