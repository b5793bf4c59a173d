package forecast

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// DefaultTrainFraction is the chronological share of the series used to fit the backtest model.
const DefaultTrainFraction = 0.8

// Options controls a single forecast call.
type Options struct {
	// Backtest enables the chronological train/test split and the MAPE computation
	Backtest bool
	// TrainFraction overrides DefaultTrainFraction when in (0, 1)
	TrainFraction float64
}

func (o Options) trainFraction() float64 {
	if o.TrainFraction > 0 && o.TrainFraction < 1 {
		return o.TrainFraction
	}

	return DefaultTrainFraction
}

// Forecaster fits an ARIMA model on a price column and produces point forecasts.
// It holds no per-call state and is safe for concurrent use.
type Forecaster struct {
	model ARIMA
	log   *logger.Logger
}

// NewForecaster returns an ARIMA(5,1,0) forecaster.
func NewForecaster(log *logger.Logger) *Forecaster {
	return NewForecasterWithModel(DefaultARIMA(), log)
}

// NewForecasterWithModel returns a forecaster for a custom order.
func NewForecasterWithModel(model ARIMA, log *logger.Logger) *Forecaster {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Forecaster{model: model, log: log}
}

// Model returns the configured model order.
func (f *Forecaster) Model() ARIMA {
	return f.model
}

// FitForecast fits the model on field of series and forecasts horizon steps ahead.
// With opts.Backtest the MAPE of a model fitted on the first 80% and evaluated on the rest
// is reported in BacktestError. A backtest that cannot be computed leaves BacktestError empty
// and records the reason in BacktestFailure; it never fails the call.
func (f *Forecaster) FitForecast(series types.PriceSeries, field types.PriceField, horizon int, opts Options) (types.ForecastResult, error) {
	if horizon < 1 {
		return types.ForecastResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "horizon must be at least 1, got %d", horizon)
	}

	values, err := series.Field(field)
	if err != nil {
		return types.ForecastResult{}, err
	}

	result := types.ForecastResult{
		BacktestError: optional.None[float64](),
		FittedOn:      series,
		Field:         field,
	}

	if opts.Backtest {
		mape, trainSize, err := f.backtest(values, opts.trainFraction())
		result.TrainSize = trainSize

		if err != nil {
			result.BacktestFailure = err
			f.log.Debug("backtest error unavailable",
				zap.String("symbol", series.Symbol),
				zap.Error(err),
			)
		} else {
			result.BacktestError = optional.Some(mape)
		}
	}

	fitted, err := f.model.Fit(values)
	if err != nil {
		return types.ForecastResult{}, err
	}

	result.PointForecasts = fitted.Forecast(horizon)
	result.Coefficients = fitted.Coefficients()

	return result, nil
}

func (f *Forecaster) backtest(values []float64, fraction float64) (float64, int, error) {
	split := int(math.Floor(float64(len(values)) * fraction))
	if split >= len(values) {
		split = len(values) - 1
	}

	if split < f.model.MinObservations() {
		cause := errors.NewInsufficientDataErrorf(f.model.MinObservations(), split, "",
			"training split has %d observations, %s needs %d", split, f.model, f.model.MinObservations())

		return 0, split, errors.Wrap(errors.ErrCodeModelFit, "series too short for a backtest", cause)
	}

	train, test := values[:split], values[split:]

	fitted, err := f.model.Fit(train)
	if err != nil {
		return 0, split, err
	}

	mape, err := MAPE(test, fitted.Forecast(len(test)))
	if err != nil {
		return 0, split, err
	}

	return mape, split, nil
}

// ForecastWithFallback behaves like FitForecast but replaces a model-fit failure with a
// degenerate forecast that repeats the last observed value.
func (f *Forecaster) ForecastWithFallback(series types.PriceSeries, field types.PriceField, horizon int, opts Options) (types.ForecastResult, error) {
	result, err := f.FitForecast(series, field, horizon, opts)
	if err == nil {
		return result, nil
	}

	if !errors.HasCode(err, errors.ErrCodeModelFit) {
		return types.ForecastResult{}, err
	}

	f.log.Warn("model fit failed, repeating last observed value",
		zap.String("symbol", series.Symbol),
		zap.String("model", f.model.String()),
		zap.Int("observations", series.Len()),
		zap.Error(err),
	)

	degenerate, derr := DegenerateForecast(series, field, horizon)
	if derr != nil {
		return types.ForecastResult{}, derr
	}

	degenerate.FallbackReason = err

	return degenerate, nil
}

// DegenerateForecast repeats the last observed value of field horizon times.
func DegenerateForecast(series types.PriceSeries, field types.PriceField, horizon int) (types.ForecastResult, error) {
	if horizon < 1 {
		return types.ForecastResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "horizon must be at least 1, got %d", horizon)
	}

	if series.IsEmpty() {
		return types.ForecastResult{}, errors.New(errors.ErrCodeNoDataAvailable, "cannot forecast an empty series")
	}

	last, err := series.Last().Value(field)
	if err != nil {
		return types.ForecastResult{}, err
	}

	forecasts := make([]float64, horizon)
	for i := range forecasts {
		forecasts[i] = last
	}

	return types.ForecastResult{
		PointForecasts: forecasts,
		BacktestError:  optional.None[float64](),
		FittedOn:       series,
		Field:          field,
		Coefficients:   []float64{},
		Degenerate:     true,
	}, nil
}

// MAPE returns the mean absolute percentage error as a fraction (0.1 is 10%).
// A zero actual value makes the metric undefined and yields NumericInstability.
func MAPE(actual, forecast []float64) (float64, error) {
	if len(actual) == 0 {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "no observations to score")
	}

	if len(actual) != len(forecast) {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"actual and forecast lengths differ: %d vs %d", len(actual), len(forecast))
	}

	sum := 0.0

	for i := range actual {
		if actual[i] == 0 {
			return 0, errors.Newf(errors.ErrCodeNumericInstability, "actual value at index %d is zero", i)
		}

		sum += math.Abs((actual[i] - forecast[i]) / actual[i])
	}

	mape := sum / float64(len(actual))
	if math.IsNaN(mape) || math.IsInf(mape, 0) {
		return 0, errors.New(errors.ErrCodeNumericInstability, "mean absolute percentage error is not finite")
	}

	return mape, nil
}
