package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/mocks"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SARTestSuite struct {
	suite.Suite
}

func TestSARSuite(t *testing.T) {
	suite.Run(t, new(SARTestSuite))
}

func hlcSeries(hlc [][3]float64) types.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.PriceBar, len(hlc))

	for i, v := range hlc {
		bars[i] = types.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   v[2],
			High:   v[0],
			Low:    v[1],
			Close:  v[2],
			Volume: optional.None[int64](),
		}
	}

	return types.PriceSeries{Symbol: "SAR", Bars: bars}
}

func (suite *SARTestSuite) TestName() {
	suite.Equal(types.IndicatorTypeSAR, NewSAR().Name())
}

func (suite *SARTestSuite) TestHandComputedUptrend() {
	series := hlcSeries([][3]float64{
		{10, 9, 9.5},
		{11, 10, 10.5},
		{12, 11, 11.5},
		{13, 12, 12.5},
	})

	values, err := ParabolicSAR(series, 0.02, 0.2)
	suite.NoError(err)
	suite.True(math.IsNaN(values[0]))
	// The first two SARs are pinned to the lowest of the prior two lows
	suite.InDelta(9.0, values[1], 1e-9)
	suite.InDelta(9.0, values[2], 1e-9)
	// 9 + 0.06 * (12 - 9)
	suite.InDelta(9.18, values[3], 1e-9)
}

func (suite *SARTestSuite) TestUptrendStaysBelowLows() {
	series := mocks.SeriesFromCloses("UP", mocks.LinearCloses(100, 2, 40))

	values, err := ParabolicSAR(series, 0.02, 0.2)
	suite.NoError(err)

	for i := 1; i < series.Len(); i++ {
		suite.LessOrEqual(values[i], series.Bars[i].Low, "index %d", i)
		if i > 1 {
			suite.GreaterOrEqual(values[i], values[i-1], "SAR should rise in an uptrend, index %d", i)
		}
	}
}

func (suite *SARTestSuite) TestReversalFlipsAboveHighs() {
	closes := append(mocks.LinearCloses(100, 2, 15), mocks.LinearCloses(124, -6, 10)...)
	series := mocks.SeriesFromCloses("REV", closes)

	values, err := ParabolicSAR(series, 0.02, 0.2)
	suite.NoError(err)

	last := series.Len() - 1
	suite.GreaterOrEqual(values[last], series.Bars[last].High, "SAR should be above price after the drop")
	suite.LessOrEqual(values[10], series.Bars[10].Low, "SAR should be below price during the rally")
}

func (suite *SARTestSuite) TestNeverInsideBar() {
	series := mocks.NewDataGenerator(99).GenerateSeries(mocks.DefaultConfig())

	values, err := ParabolicSAR(series, 0.02, 0.2)
	suite.NoError(err)

	for i := 1; i < series.Len(); i++ {
		bar := series.Bars[i]
		below := values[i] <= bar.Low
		above := values[i] >= bar.High
		suite.True(below || above, "SAR %.4f inside bar [%.4f, %.4f] at index %d", values[i], bar.Low, bar.High, i)
	}
}

func (suite *SARTestSuite) TestAccelerationIsCapped() {
	series := mocks.SeriesFromCloses("UP", mocks.LinearCloses(100, 1, 60))

	// With the cap equal to the step, the SAR closes exactly acceleration of the gap each bar
	values, err := ParabolicSAR(series, 0.1, 0.1)
	suite.NoError(err)

	for i := 3; i < series.Len(); i++ {
		prevEP := series.Bars[i-1].High
		expected := math.Min(values[i-1]+0.1*(prevEP-values[i-1]), math.Min(series.Bars[i-1].Low, series.Bars[i-2].Low))
		suite.InDelta(expected, values[i], 1e-9, "index %d", i)
	}
}

func (suite *SARTestSuite) TestInvalidParameters() {
	series := mocks.SeriesFromCloses("X", mocks.LinearCloses(100, 1, 10))

	tests := []struct {
		acceleration float64
		maximum      float64
	}{
		{0, 0.2},
		{-0.02, 0.2},
		{0.05, 0.02},
		{0.02, 1.5},
	}

	for _, tt := range tests {
		_, err := ParabolicSAR(series, tt.acceleration, tt.maximum)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter), "acc=%v max=%v", tt.acceleration, tt.maximum)
	}

	_, err := ParabolicSAR(mocks.SeriesFromCloses("X", []float64{100}), 0.02, 0.2)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *SARTestSuite) TestCalculate() {
	series := mocks.SeriesFromCloses("UP", mocks.LinearCloses(100, 1, 10))

	result, err := NewSAR().Calculate(series, types.DefaultStrategyParams())
	suite.NoError(err)

	latest, ok := result.Latest(types.LineSAR)
	suite.True(ok)
	suite.Less(latest, 109.0)
}
