package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rxtech-lab/argo-forecast/mocks"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ARIMATestSuite struct {
	suite.Suite
}

func TestARIMASuite(t *testing.T) {
	suite.Run(t, new(ARIMATestSuite))
}

func (suite *ARIMATestSuite) TestDefaultOrder() {
	model := DefaultARIMA()
	suite.Equal(5, model.P)
	suite.Equal(1, model.D)
	suite.Equal(0, model.Q)
	suite.Equal(7, model.MinObservations())
	suite.Equal("ARIMA(5,1,0)", model.String())
}

func (suite *ARIMATestSuite) TestRecoversAR1DifferenceCoefficient() {
	rng := rand.New(rand.NewSource(7))

	const phi = 0.6

	values := make([]float64, 2000)
	values[0] = 100
	diff := 0.0

	for i := 1; i < len(values); i++ {
		diff = phi*diff + rng.NormFloat64()
		values[i] = values[i-1] + diff
	}

	fitted, err := ARIMA{P: 1, D: 1, Ridge: 1e-8}.Fit(values)
	suite.Require().NoError(err)
	suite.Require().Len(fitted.Coefficients(), 1)
	suite.InDelta(phi, fitted.Coefficients()[0], 0.1)
}

func (suite *ARIMATestSuite) TestLinearSeriesContinuesTrend() {
	values := mocks.LinearCloses(100, 1, 31)

	fitted, err := DefaultARIMA().Fit(values)
	suite.Require().NoError(err)

	forecasts := fitted.Forecast(3)
	suite.Require().Len(forecasts, 3)
	suite.InDelta(131.0, forecasts[0], 1e-4)
	suite.InDelta(132.0, forecasts[1], 1e-4)
	suite.InDelta(133.0, forecasts[2], 1e-4)
}

func (suite *ARIMATestSuite) TestConstantSeriesRepeatsLevel() {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 42
	}

	fitted, err := DefaultARIMA().Fit(values)
	suite.Require().NoError(err)

	for _, v := range fitted.Forecast(5) {
		suite.InDelta(42.0, v, 1e-9)
	}
}

func (suite *ARIMATestSuite) TestTooFewObservations() {
	_, err := DefaultARIMA().Fit(mocks.LinearCloses(100, 1, 6))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeModelFit))
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *ARIMATestSuite) TestMinimumObservationsFit() {
	_, err := DefaultARIMA().Fit(mocks.LinearCloses(100, 1, 7))
	suite.NoError(err)
}

func (suite *ARIMATestSuite) TestNonFiniteValues() {
	values := mocks.LinearCloses(100, 1, 20)
	values[10] = math.NaN()

	_, err := DefaultARIMA().Fit(values)
	suite.True(errors.HasCode(err, errors.ErrCodeModelFit))

	values[10] = math.Inf(1)
	_, err = DefaultARIMA().Fit(values)
	suite.True(errors.HasCode(err, errors.ErrCodeModelFit))
}

func (suite *ARIMATestSuite) TestUnsupportedMovingAverageTerm() {
	_, err := ARIMA{P: 1, D: 1, Q: 1}.Fit(mocks.LinearCloses(100, 1, 20))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ARIMATestSuite) TestForecastZeroSteps() {
	fitted, err := DefaultARIMA().Fit(mocks.LinearCloses(100, 1, 20))
	suite.Require().NoError(err)
	suite.Empty(fitted.Forecast(0))
}

func (suite *ARIMATestSuite) TestFitDoesNotMutateInput() {
	values := mocks.LinearCloses(100, 1, 20)
	original := append([]float64(nil), values...)

	fitted, err := DefaultARIMA().Fit(values)
	suite.Require().NoError(err)
	fitted.Forecast(10)

	suite.Equal(original, values)
}
