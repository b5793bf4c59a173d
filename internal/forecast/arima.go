package forecast

import (
	stderrors "errors"
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ARIMA describes an autoregressive-integrated model of order (P, D, Q).
// Only Q = 0 is supported: the model is an AR(P) on the D-times differenced series,
// fitted by conditional least squares with no intercept.
type ARIMA struct {
	P int
	D int
	Q int
	// Ridge scales the diagonal regularisation added to the normal equations
	Ridge float64
}

// DefaultARIMA returns ARIMA(5,1,0).
func DefaultARIMA() ARIMA {
	return ARIMA{P: 5, D: 1, Q: 0, Ridge: 1e-8}
}

// MinObservations is the shortest series the model can be fitted on: P + D + 1.
func (a ARIMA) MinObservations() int {
	return a.P + a.D + 1
}

func (a ARIMA) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", a.P, a.D, a.Q)
}

// FittedARIMA is an ARIMA model fitted on a concrete history.
type FittedARIMA struct {
	order        ARIMA
	coefficients []float64
	// levels[k] is the history differenced k times, k = 0..D
	levels [][]float64
}

// Fit estimates the autoregressive coefficients on values.
func (a ARIMA) Fit(values []float64) (*FittedARIMA, error) {
	if a.P < 0 || a.D < 0 || a.Q != 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order %s", a)
	}

	if len(values) < a.MinObservations() {
		cause := errors.NewInsufficientDataErrorf(a.MinObservations(), len(values), "",
			"%s needs at least %d observations, got %d", a, a.MinObservations(), len(values))

		return nil, errors.Wrap(errors.ErrCodeModelFit, "not enough observations", cause)
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Newf(errors.ErrCodeModelFit, "non-finite value %v at index %d", v, i)
		}
	}

	levels := make([][]float64, a.D+1)
	levels[0] = append([]float64(nil), values...)

	for k := 1; k <= a.D; k++ {
		levels[k] = difference(levels[k-1])
	}

	coefficients, err := a.leastSquares(levels[a.D])
	if err != nil {
		return nil, err
	}

	return &FittedARIMA{
		order:        a,
		coefficients: coefficients,
		levels:       levels,
	}, nil
}

// leastSquares solves (XᵀX + λI)β = Xᵀy where row r of X holds the P lags of w[P+r].
func (a ARIMA) leastSquares(w []float64) ([]float64, error) {
	if a.P == 0 {
		return []float64{}, nil
	}

	rows := len(w) - a.P
	x := mat.NewDense(rows, a.P, nil)
	y := mat.NewVecDense(rows, nil)

	for r := 0; r < rows; r++ {
		for j := 0; j < a.P; j++ {
			x.Set(r, j, w[a.P+r-1-j])
		}

		y.SetVec(r, w[a.P+r])
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	lambda := a.Ridge*mat.Trace(&xtx)/float64(a.P) + 1e-12
	for j := 0; j < a.P; j++ {
		xtx.Set(j, j, xtx.At(j, j)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !stderrors.As(err, &cond) {
			return nil, errors.Wrap(errors.ErrCodeModelFit, "failed to solve normal equations", err)
		}
	}

	coefficients := make([]float64, a.P)
	for j := range coefficients {
		coefficients[j] = beta.AtVec(j)
		if math.IsNaN(coefficients[j]) || math.IsInf(coefficients[j], 0) {
			return nil, errors.New(errors.ErrCodeModelFit, "degenerate coefficients")
		}
	}

	return coefficients, nil
}

// Coefficients returns a copy of the fitted AR coefficients, lag 1 first.
func (m *FittedARIMA) Coefficients() []float64 {
	return append([]float64(nil), m.coefficients...)
}

// Forecast returns the next steps values on the original scale.
func (m *FittedARIMA) Forecast(steps int) []float64 {
	if steps <= 0 {
		return []float64{}
	}

	d := m.order.D
	p := m.order.P

	// Recursive AR forecast on the differenced scale
	history := append([]float64(nil), m.levels[d]...)
	predicted := make([]float64, steps)

	for s := 0; s < steps; s++ {
		next := 0.0
		for j := 0; j < p; j++ {
			next += m.coefficients[j] * history[len(history)-1-j]
		}

		predicted[s] = next
		history = append(history, next)
	}

	// Undo the differencing one level at a time
	for k := d - 1; k >= 0; k-- {
		last := m.levels[k][len(m.levels[k])-1]
		for s := range predicted {
			last += predicted[s]
			predicted[s] = last
		}
	}

	return predicted
}

func difference(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}

	return out
}
