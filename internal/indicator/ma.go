package indicator

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// MovingAverage returns the simple moving average of the closes. The first window-1 values
// are NaN; every later value is the mean of the trailing window closes.
func MovingAverage(series types.PriceSeries, window int) ([]float64, error) {
	n := series.Len()
	if window <= 0 || window > n {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "window must be in [1, %d], got %d", n, window)
	}

	sma := trend.NewSmaWithPeriod[float64](window)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(series.Closes())))

	result := types.Undefined(n)
	offset := n - len(smoothed)

	for i, v := range smoothed {
		if offset+i >= window-1 {
			result[offset+i] = v
		}
	}

	return result, nil
}

// MA indicator implements Simple Moving Average calculation.
type MA struct{}

// NewMA creates a new MA indicator.
func NewMA() Indicator {
	return &MA{}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Calculate returns a single line named after the window, e.g. "MA20".
func (m *MA) Calculate(series types.PriceSeries, params types.StrategyParams) (types.IndicatorResult, error) {
	values, err := MovingAverage(series, params.Window)
	if err != nil {
		return nil, err
	}

	return types.IndicatorResult{
		types.MovingAverageLine(params.Window): values,
	}, nil
}
