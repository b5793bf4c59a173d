package engine

import (
	"context"
	"math"
	"testing"

	"github.com/rxtech-lab/argo-forecast/internal/backtest/engine"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/mocks"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BacktestEngineV1TestSuite struct {
	suite.Suite
	engine *BacktestEngineV1
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.engine = NewBacktestEngineV1(logger.NewNopLogger())
}

func (suite *BacktestEngineV1TestSuite) TearDownTest() {
	suite.NoError(suite.engine.Close())
}

func (suite *BacktestEngineV1TestSuite) TestLinearSeriesAlwaysBuys() {
	config := TestConfig(types.StrategyMovingAverageCrossover, 30)
	config.Params.Window = 5
	suite.Require().NoError(suite.engine.InitializeWithConfig(config))

	series := mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 60))

	metrics, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.NotEmpty(metrics.ID)
	suite.Equal("LIN", metrics.Symbol)
	suite.Equal(types.StrategyMovingAverageCrossover, metrics.Strategy)
	suite.Equal(30, metrics.TotalTrades)
	suite.Equal(30, metrics.BuyCount)
	suite.Equal(0, metrics.SellCount)
	suite.Equal(0, metrics.FitFailures)
	suite.Equal(0, metrics.UndefinedReference)
	suite.False(metrics.Timestamp.IsZero())
}

func (suite *BacktestEngineV1TestSuite) TestCountsForEveryStrategy() {
	series := mocks.NewDataGenerator(17).GenerateSeries(mocks.GeneratorConfig{
		Symbol:       "GBM",
		StartDate:    mocks.DefaultConfig().StartDate,
		Count:        120,
		InitialPrice: 100,
		Volatility:   0.01,
		VolumeBase:   1_000_000,
	})

	for _, strategy := range types.Strategies {
		suite.Run(string(strategy), func() {
			eng := NewBacktestEngineV1(logger.NewNopLogger())
			defer eng.Close()

			suite.Require().NoError(eng.InitializeWithConfig(TestConfig(strategy, 30)))

			metrics, err := eng.Run(context.Background(), series, engine.LifecycleCallbacks{})
			suite.Require().NoError(err)

			suite.Equal(series.Len()-30, metrics.TotalTrades)
			suite.LessOrEqual(metrics.BuyCount+metrics.SellCount, metrics.TotalTrades)
			suite.Equal(metrics.TotalTrades, metrics.BuyCount+metrics.SellCount+metrics.HoldCount)
			suite.Equal(metrics.HoldCount, metrics.FitFailures+metrics.UndefinedReference)
			suite.Zero(metrics.FitFailures)
		})
	}
}

func (suite *BacktestEngineV1TestSuite) TestUndefinedReferenceIsHold() {
	// the first prefix holds 8 bars, one short of the conversion line period
	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyIchimokuCloud, 7)))

	series := mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 20))

	metrics, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(13, metrics.TotalTrades)
	suite.Equal(1, metrics.HoldCount)
	suite.Equal(1, metrics.UndefinedReference)
	suite.Zero(metrics.FitFailures)
	suite.Equal(12, metrics.BuyCount+metrics.SellCount)

	steps, err := suite.engine.Steps(metrics.ID)
	suite.Require().NoError(err)
	suite.Require().Len(steps, 13)
	suite.Equal(7, steps[0].Index)
	suite.Equal(types.SignalTypeHold, steps[0].Signal)
	suite.Equal(types.HoldCauseUndefinedReference, steps[0].Cause)
	suite.NotEmpty(steps[0].Reason)
	suite.Equal(19, steps[12].Index)
}

func (suite *BacktestEngineV1TestSuite) TestFitFailureIsCountedSeparately() {
	config := TestConfig(types.StrategyMovingAverageCrossover, 30)
	config.Params.Window = 5
	suite.Require().NoError(suite.engine.InitializeWithConfig(config))

	// a non-finite close breaks every prefix that includes it
	series := mocks.SeriesFromCloses("NAN", mocks.LinearCloses(100, 1, 40))
	series.Bars[35].Close = math.NaN()

	metrics, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(10, metrics.TotalTrades)
	suite.Equal(5, metrics.BuyCount)
	suite.Equal(5, metrics.HoldCount)
	suite.Equal(5, metrics.FitFailures)
	suite.Zero(metrics.UndefinedReference)

	steps, err := suite.engine.Steps(metrics.ID)
	suite.Require().NoError(err)
	suite.Require().Len(steps, 10)
	suite.Equal(types.HoldCauseNone, steps[4].Cause)
	suite.Equal(types.HoldCauseFitFailure, steps[5].Cause)
	suite.Equal(35, steps[5].Index)
}

func (suite *BacktestEngineV1TestSuite) TestJournalMatchesMetrics() {
	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyParabolicSAR, 30)))

	series := mocks.NewDataGenerator(2).GenerateSeries(mocks.DefaultConfig())

	metrics, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	steps, err := suite.engine.Steps(metrics.ID)
	suite.Require().NoError(err)
	suite.Len(steps, metrics.TotalTrades)

	counts, err := suite.engine.Counts(metrics.ID)
	suite.Require().NoError(err)
	suite.Equal(metrics.BuyCount, counts[types.SignalTypeBuy])
	suite.Equal(metrics.SellCount, counts[types.SignalTypeSell])
	suite.Equal(metrics.HoldCount, counts[types.SignalTypeHold])
}

func (suite *BacktestEngineV1TestSuite) TestDeterministic() {
	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyMovingAverageCrossover, 30)))

	series := mocks.NewDataGenerator(8).GenerateSeries(mocks.DefaultConfig())

	first, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	second, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.NotEqual(first.ID, second.ID)
	suite.Equal(first.BuyCount, second.BuyCount)
	suite.Equal(first.SellCount, second.SellCount)
}

func (suite *BacktestEngineV1TestSuite) TestCallbacks() {
	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyMovingAverageCrossover, 30)))

	series := mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 40))

	var (
		startedID    string
		startedTotal int
		progress     []int
		endCalls     int
		endMetrics   types.BacktestMetrics
	)

	onStart := engine.OnRunStartCallback(func(runID string, totalSteps int) error {
		startedID = runID
		startedTotal = totalSteps

		return nil
	})
	onData := engine.OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)

		return nil
	})
	onEnd := engine.OnRunEndCallback(func(metrics types.BacktestMetrics, err error) {
		endCalls++
		endMetrics = metrics

		suite.NoError(err)
	})

	metrics, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnProcessData: &onData,
		OnRunEnd:      &onEnd,
	})
	suite.Require().NoError(err)

	suite.Equal(metrics.ID, startedID)
	suite.Equal(10, startedTotal)
	suite.Equal([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, progress)
	suite.Equal(1, endCalls)
	suite.Equal(metrics, endMetrics)
}

func (suite *BacktestEngineV1TestSuite) TestCancelledBeforeStart() {
	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyMovingAverageCrossover, 30)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metrics, err := suite.engine.Run(ctx, mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 40)), engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestCancelled))
	suite.ErrorIs(err, context.Canceled)
	suite.Zero(metrics.TotalTrades)
}

func (suite *BacktestEngineV1TestSuite) TestCancelledMidRun() {
	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyMovingAverageCrossover, 30)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onData := engine.OnProcessDataCallback(func(current int, total int) error {
		if current == 3 {
			cancel()
		}

		return nil
	})

	metrics, err := suite.engine.Run(ctx, mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 40)), engine.LifecycleCallbacks{
		OnProcessData: &onData,
	})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestCancelled))
	suite.Equal(3, metrics.TotalTrades)
}

func (suite *BacktestEngineV1TestSuite) TestLookbackValidation() {
	series := mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 40))

	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyMovingAverageCrossover, 40)))

	_, err := suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
	suite.True(errors.IsInsufficientDataError(err))

	suite.Require().NoError(suite.engine.InitializeWithConfig(TestConfig(types.StrategyMovingAverageCrossover, 6)))

	_, err = suite.engine.Run(context.Background(), series, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestRunWithoutInitialize() {
	_, err := suite.engine.Run(context.Background(), mocks.SeriesFromCloses("LIN", mocks.LinearCloses(100, 1, 40)), engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))

	_, err = suite.engine.Steps("any")
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestInitializeFromYAML() {
	err := suite.engine.Initialize(`
strategy: ParabolicSAR
lookback: 10
`)
	suite.Require().NoError(err)

	config := suite.engine.Config()
	suite.Equal(types.StrategyParabolicSAR, config.Strategy)
	suite.Equal(10, config.Lookback)
	suite.Equal(types.DefaultStrategyParams(), config.Params)
}

func (suite *BacktestEngineV1TestSuite) TestInitializeRejectsUnknownStrategy() {
	err := suite.engine.Initialize("strategy: bollinger\n")
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))

	err = suite.engine.Initialize("lookback: [1, 2]\n")
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	schema, err := suite.engine.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "backtest-engine-v1-config")
}
