package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type MockChartServerTestSuite struct {
	suite.Suite
	server *MockChartServer
}

func TestMockChartServerSuite(t *testing.T) {
	suite.Run(t, new(MockChartServerTestSuite))
}

func (suite *MockChartServerTestSuite) SetupTest() {
	suite.server = NewMockChartServer()
}

func (suite *MockChartServerTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *MockChartServerTestSuite) TestServesRequestedRange() {
	config := DefaultConfig()
	config.Count = 30
	suite.server.SetBars("AAPL", NewDataGenerator(1).Generate(config))

	yahoo := provider.NewYahooProvider(suite.server.URL(), nil, nil)
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	series, err := yahoo.Fetch(context.Background(), "AAPL", start, end)
	suite.Require().NoError(err)
	suite.Equal(10, series.Len())
	suite.Equal(start, series.Bars[0].Date)
	suite.Equal(end, series.Last().Date)
	suite.Equal(1, suite.server.Hits("AAPL"))
}

func (suite *MockChartServerTestSuite) TestUnknownSymbol() {
	yahoo := provider.NewYahooProvider(suite.server.URL(), nil, nil)

	_, err := yahoo.Fetch(context.Background(), "MSFT", time.Now().AddDate(0, -1, 0), time.Now())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataAvailable))
}
