package engine

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/stretchr/testify/suite"
)

// DecisionJournalTestSuite is a test suite for DecisionJournal
type DecisionJournalTestSuite struct {
	suite.Suite
	journal *DecisionJournal
}

func TestDecisionJournalSuite(t *testing.T) {
	suite.Run(t, new(DecisionJournalTestSuite))
}

// SetupSuite runs once before all tests in the suite
func (suite *DecisionJournalTestSuite) SetupSuite() {
	journal, err := NewDecisionJournal(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.journal = journal
}

// TearDownSuite runs once after all tests in the suite
func (suite *DecisionJournalTestSuite) TearDownSuite() {
	if suite.journal != nil {
		suite.journal.Close()
	}
}

// SetupTest runs before each test
func (suite *DecisionJournalTestSuite) SetupTest() {
	suite.Require().NoError(suite.journal.Cleanup())
}

func (suite *DecisionJournalTestSuite) TestRecordAndSteps() {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	entries := []types.BacktestStep{
		{Index: 31, Date: date.AddDate(0, 0, 1), Forecast: 101.5, Signal: types.SignalTypeSell},
		{Index: 30, Date: date, Forecast: 100.25, Signal: types.SignalTypeBuy},
		{Index: 32, Date: date.AddDate(0, 0, 2), Forecast: math.NaN(), Signal: types.SignalTypeHold, Cause: types.HoldCauseFitFailure, Reason: "model fit failed"},
	}

	for _, entry := range entries {
		suite.Require().NoError(suite.journal.Record("run-1", "AAPL", entry))
	}

	steps, err := suite.journal.Steps("run-1")
	suite.Require().NoError(err)
	suite.Require().Len(steps, 3)

	suite.Equal(30, steps[0].Index)
	suite.True(date.Equal(steps[0].Date))
	suite.InDelta(100.25, steps[0].Forecast, 1e-9)
	suite.Equal(types.SignalTypeBuy, steps[0].Signal)
	suite.Equal(types.HoldCauseNone, steps[0].Cause)

	suite.Equal(31, steps[1].Index)
	suite.Equal(types.SignalTypeSell, steps[1].Signal)

	suite.Equal(32, steps[2].Index)
	suite.True(math.IsNaN(steps[2].Forecast))
	suite.Equal(types.SignalTypeHold, steps[2].Signal)
	suite.Equal(types.HoldCauseFitFailure, steps[2].Cause)
	suite.Equal("model fit failed", steps[2].Reason)
}

func (suite *DecisionJournalTestSuite) TestRunsAreSeparated() {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	suite.Require().NoError(suite.journal.Record("run-a", "AAPL", types.BacktestStep{Index: 1, Date: date, Forecast: 1, Signal: types.SignalTypeBuy}))
	suite.Require().NoError(suite.journal.Record("run-b", "MSFT", types.BacktestStep{Index: 1, Date: date, Forecast: 1, Signal: types.SignalTypeSell}))
	suite.Require().NoError(suite.journal.Record("run-b", "MSFT", types.BacktestStep{Index: 2, Date: date.AddDate(0, 0, 1), Forecast: 1, Signal: types.SignalTypeSell}))

	steps, err := suite.journal.Steps("run-a")
	suite.Require().NoError(err)
	suite.Len(steps, 1)

	counts, err := suite.journal.Counts("run-b")
	suite.Require().NoError(err)
	suite.Equal(map[types.SignalType]int{types.SignalTypeSell: 2}, counts)
}

func (suite *DecisionJournalTestSuite) TestEmptyRun() {
	steps, err := suite.journal.Steps("missing")
	suite.NoError(err)
	suite.Empty(steps)

	counts, err := suite.journal.Counts("missing")
	suite.NoError(err)
	suite.Empty(counts)
}

func (suite *DecisionJournalTestSuite) TestNilJournal() {
	var journal *DecisionJournal

	suite.Error(journal.Record("run", "AAPL", types.BacktestStep{}))

	_, err := journal.Steps("run")
	suite.Error(err)

	suite.NoError(journal.Close())
}
