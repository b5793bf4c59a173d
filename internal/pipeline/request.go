package pipeline

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-forecast/internal/config"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// Request carries everything a run needs. It replaces any process-wide state.
type Request struct {
	Symbol           string               `validate:"required"`
	InvestmentAmount float64              `validate:"gt=0"`
	Strategy         types.StrategyType   `validate:"required"`
	Params           types.StrategyParams
	Field            types.PriceField     `validate:"required,oneof=open high low close"`
	Horizon          int                  `validate:"min=1"`
	ProjectionMode   types.ProjectionMode `validate:"omitempty,oneof=ratio compound"`
	// Backtest enables both the forecaster's MAPE backtest and the decision replay
	Backtest bool
	Lookback int       `validate:"min=1"`
	Start    time.Time `validate:"required"`
	End      time.Time `validate:"required,gtefield=Start"`
}

// NewRequest returns a request for symbol with the default settings over the year before now.
func NewRequest(symbol string, investment float64, now time.Time) Request {
	cfg := config.Default()
	cfg.Symbol = symbol
	cfg.Investment = investment

	return RequestFromConfig(cfg, now)
}

// RequestFromConfig builds a request from a file configuration, resolving the date range against now.
func RequestFromConfig(cfg config.Config, now time.Time) Request {
	start, end := cfg.DateRange(now)

	return Request{
		Symbol:           cfg.Symbol,
		InvestmentAmount: cfg.Investment,
		Strategy:         cfg.Strategy,
		Params:           cfg.Params,
		Field:            cfg.Field,
		Horizon:          cfg.Horizon,
		ProjectionMode:   cfg.ProjectionMode,
		Backtest:         cfg.Backtest,
		Lookback:         cfg.Lookback,
		Start:            start,
		End:              end,
	}
}

// Validate checks the field constraints and canonicalizes the strategy name.
func (r *Request) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request", err)
	}

	strategy, err := types.ParseStrategy(string(r.Strategy))
	if err != nil {
		return err
	}

	r.Strategy = strategy

	if r.ProjectionMode == "" {
		r.ProjectionMode = types.ProjectionRatio
	}

	return nil
}
