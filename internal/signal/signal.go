// Package signal turns a forecast and a strategy's reference level into a trading decision.
package signal

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/indicator"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/shopspring/decimal"
)

// ReferenceLevel returns the latest value of the line the strategy compares the forecast with:
// the moving average of params.Window closes, the Ichimoku conversion line, or the SAR.
func ReferenceLevel(strategy types.StrategyType, series types.PriceSeries, params types.StrategyParams) (float64, error) {
	var (
		values []float64
		line   string
		err    error
	)

	switch strategy {
	case types.StrategyMovingAverageCrossover:
		line = types.MovingAverageLine(params.Window)
		values, err = indicator.MovingAverage(series, params.Window)
	case types.StrategyIchimokuCloud:
		line = types.LineConversion
		values = indicator.Ichimoku(series)[line]
	case types.StrategyParabolicSAR:
		line = types.LineSAR
		values, err = indicator.ParabolicSAR(series, params.Acceleration, params.Maximum)
	default:
		return 0, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy %q", strategy)
	}

	if err != nil {
		return 0, err
	}

	latest, ok := types.IndicatorResult{line: values}.Latest(line)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeIndicatorUndefined,
			"%s is undefined at the last of %d bars", line, series.Len())
	}

	return latest, nil
}

// Decide returns Buy when the forecast is strictly above the strategy's reference level and
// Sell otherwise.
func Decide(strategy types.StrategyType, forecastValue float64, series types.PriceSeries, params types.StrategyParams) (types.SignalType, error) {
	if math.IsNaN(forecastValue) || math.IsInf(forecastValue, 0) {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "forecast value %v is not finite", forecastValue)
	}

	reference, err := ReferenceLevel(strategy, series, params)
	if err != nil {
		return "", err
	}

	if forecastValue > reference {
		return types.SignalTypeBuy, nil
	}

	return types.SignalTypeSell, nil
}

var hundred = decimal.NewFromInt(100)

// ExpectedReturn computes the percentage return of moving from current to forecast and the
// resulting gain on investment.
func ExpectedReturn(investment, current, forecast float64) (types.ReturnEstimate, error) {
	if current <= 0 || math.IsNaN(current) || math.IsInf(current, 0) {
		return types.ReturnEstimate{}, errors.Newf(errors.ErrCodeInvalidParameter, "current price must be positive, got %v", current)
	}

	if investment < 0 || math.IsNaN(investment) || math.IsInf(investment, 0) {
		return types.ReturnEstimate{}, errors.Newf(errors.ErrCodeInvalidParameter, "investment must be non-negative, got %v", investment)
	}

	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return types.ReturnEstimate{}, errors.Newf(errors.ErrCodeInvalidParameter, "forecast price %v is not finite", forecast)
	}

	c := decimal.NewFromFloat(current)
	pct := decimal.NewFromFloat(forecast).Sub(c).Div(c).Mul(hundred)

	return types.ReturnEstimate{
		PercentageReturn: pct,
		MonetaryGain:     decimal.NewFromFloat(investment).Mul(pct).Div(hundred),
	}, nil
}
