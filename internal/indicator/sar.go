package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// ParabolicSAR computes Wilder's stop-and-reverse series.
//
// The initial trend is up when the second close is not below the first. The SAR starts at the
// first bar's extreme on the opposite side, moves toward the extreme point by the acceleration
// factor each bar, and never enters the range of the previous two bars. The factor grows by
// acceleration on every new extreme, up to maximum. When price crosses the SAR the trend flips
// and the SAR restarts at the prior extreme point. Index 0 is undefined.
func ParabolicSAR(series types.PriceSeries, acceleration, maximum float64) ([]float64, error) {
	if acceleration <= 0 || maximum < acceleration || maximum > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"require 0 < acceleration <= maximum <= 1, got acceleration=%v maximum=%v", acceleration, maximum)
	}

	n := series.Len()
	if n < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "parabolic SAR needs at least 2 bars, got %d", n)
	}

	highs := series.Highs()
	lows := series.Lows()
	closes := series.Closes()

	out := types.Undefined(n)

	uptrend := closes[1] >= closes[0]
	af := acceleration

	var sar, ep float64
	if uptrend {
		sar, ep = lows[0], highs[0]
	} else {
		sar, ep = highs[0], lows[0]
	}

	for i := 1; i < n; i++ {
		next := sar + af*(ep-sar)

		if uptrend {
			next = math.Min(next, lows[i-1])
			if i >= 2 {
				next = math.Min(next, lows[i-2])
			}

			if lows[i] < next {
				uptrend = false
				next = math.Max(ep, highs[i])
				ep = lows[i]
				af = acceleration
			} else if highs[i] > ep {
				ep = highs[i]
				af = math.Min(af+acceleration, maximum)
			}
		} else {
			next = math.Max(next, highs[i-1])
			if i >= 2 {
				next = math.Max(next, highs[i-2])
			}

			if highs[i] > next {
				uptrend = true
				next = math.Min(ep, lows[i])
				ep = highs[i]
				af = acceleration
			} else if lows[i] < ep {
				ep = lows[i]
				af = math.Min(af+acceleration, maximum)
			}
		}

		out[i] = next
		sar = next
	}

	return out, nil
}

// SAR indicator wraps ParabolicSAR for the registry.
type SAR struct{}

// NewSAR creates a new Parabolic SAR indicator.
func NewSAR() Indicator {
	return &SAR{}
}

// Name returns the name of the indicator.
func (s *SAR) Name() types.IndicatorType {
	return types.IndicatorTypeSAR
}

// Calculate uses params.Acceleration and params.Maximum.
func (s *SAR) Calculate(series types.PriceSeries, params types.StrategyParams) (types.IndicatorResult, error) {
	values, err := ParabolicSAR(series, params.Acceleration, params.Maximum)
	if err != nil {
		return nil, err
	}

	return types.IndicatorResult{types.LineSAR: values}, nil
}
