package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.T().Setenv(PolygonApiKeyEnv, "")
}

func (suite *ConfigTestSuite) TestParseMinimal() {
	config, err := Parse([]byte("symbol: RELIANCE.NS\n"))
	suite.Require().NoError(err)

	suite.Equal("RELIANCE.NS", config.Symbol)
	suite.Equal(1000.0, config.Investment)
	suite.Equal(types.StrategyMovingAverageCrossover, config.Strategy)
	suite.Equal(types.DefaultStrategyParams(), config.Params)
	suite.Equal(types.PriceFieldClose, config.Field)
	suite.Equal(1, config.Horizon)
	suite.Equal(types.ProjectionRatio, config.ProjectionMode)
	suite.True(config.Backtest)
	suite.Equal(30, config.Lookback)
	suite.Equal(provider.ProviderYahoo, config.Provider.Type)
	suite.Equal(provider.DefaultTimeout, config.Provider.Timeout)
	suite.True(config.StartDate().IsNone())
	suite.True(config.EndDate().IsNone())
}

func (suite *ConfigTestSuite) TestParseComplete() {
	data := []byte(`
symbol: SPY
investment: 2500
strategy: ParabolicSAR
params:
  window: 10
  acceleration: 0.03
  maximum: 0.3
field: high
horizon: 5
projection_mode: compound
start: "2023-01-01"
end: "2023-12-31"
backtest: false
lookback: 40
log_level: debug
provider:
  type: polygon
  timeout: 10s
  polygon_api_key: file-key
`)

	config, err := Parse(data)
	suite.Require().NoError(err)

	suite.Equal("SPY", config.Symbol)
	suite.Equal(2500.0, config.Investment)
	suite.Equal(types.StrategyParabolicSAR, config.Strategy)
	suite.Equal(types.StrategyParams{Window: 10, Acceleration: 0.03, Maximum: 0.3}, config.Params)
	suite.Equal(types.PriceFieldHigh, config.Field)
	suite.Equal(5, config.Horizon)
	suite.Equal(types.ProjectionCompound, config.ProjectionMode)
	suite.False(config.Backtest)
	suite.Equal(40, config.Lookback)
	suite.Equal("debug", config.LogLevel)
	suite.Equal(provider.ProviderPolygon, config.Provider.Type)
	suite.Equal(10*time.Second, config.Provider.Timeout)
	suite.Equal("file-key", config.Provider.PolygonApiKey)

	start, end := config.DateRange(time.Now())
	suite.True(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).Equal(start))
	suite.True(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC).Equal(end))

	backtest := config.BacktestConfig()
	suite.Equal(types.StrategyParabolicSAR, backtest.Strategy)
	suite.Equal(40, backtest.Lookback)
	suite.Equal(types.PriceFieldHigh, backtest.Field)
	suite.NoError(backtest.Validate())
}

func (suite *ConfigTestSuite) TestEnvOverridesPolygonKey() {
	suite.T().Setenv(PolygonApiKeyEnv, "env-key")

	config, err := Parse([]byte("symbol: SPY\nprovider:\n  type: polygon\n"))
	suite.Require().NoError(err)
	suite.Equal("env-key", config.Provider.PolygonApiKey)
}

func (suite *ConfigTestSuite) TestDefaultDateRange() {
	config := Default()
	now := time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

	start, end := config.DateRange(now)
	suite.Equal(now, end)
	suite.Equal(now.AddDate(0, 0, -DefaultHistoryDays), start)

	config.End = "2024-03-01"
	start, end = config.DateRange(now)
	suite.True(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(end))
	suite.True(time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC).Equal(start))
}

func (suite *ConfigTestSuite) TestParseErrors() {
	tests := []struct {
		name string
		data string
		code errors.ErrorCode
	}{
		{name: "invalid yaml", data: "symbol: [", code: errors.ErrCodeInvalidConfiguration},
		{name: "missing symbol", data: "investment: 10", code: errors.ErrCodeInvalidConfiguration},
		{name: "zero investment", data: "symbol: SPY\ninvestment: 0", code: errors.ErrCodeInvalidConfiguration},
		{name: "negative investment", data: "symbol: SPY\ninvestment: -5", code: errors.ErrCodeInvalidConfiguration},
		{name: "unknown strategy", data: "symbol: SPY\nstrategy: rsi", code: errors.ErrCodeUnknownStrategy},
		{name: "zero horizon", data: "symbol: SPY\nhorizon: 0", code: errors.ErrCodeInvalidConfiguration},
		{name: "unknown projection", data: "symbol: SPY\nprojection_mode: linear", code: errors.ErrCodeInvalidConfiguration},
		{name: "bad date", data: "symbol: SPY\nstart: 01/02/2024", code: errors.ErrCodeInvalidConfiguration},
		{name: "start after end", data: "symbol: SPY\nstart: \"2024-02-01\"\nend: \"2024-01-01\"", code: errors.ErrCodeInvalidConfiguration},
		{name: "polygon without key", data: "symbol: SPY\nprovider:\n  type: polygon", code: errors.ErrCodeInvalidConfiguration},
		{name: "bad log level", data: "symbol: SPY\nlog_level: trace", code: errors.ErrCodeInvalidConfiguration},
		{name: "sar maximum below acceleration", data: "symbol: SPY\nparams:\n  acceleration: 0.3\n  maximum: 0.2", code: errors.ErrCodeInvalidConfiguration},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Parse([]byte(tc.data))
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestLoad() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("symbol: AAPL\nstrategy: ichimoku_cloud\n"), 0o600))

	config, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("AAPL", config.Symbol)
	suite.Equal(types.StrategyIchimokuCloud, config.Strategy)

	_, err = Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	schema, err := GenerateSchemaJSON()
	suite.Require().NoError(err)

	var schemaMap map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(schema), &schemaMap))
	suite.Equal("argo-forecast-config", schemaMap["title"])

	properties, ok := schemaMap["properties"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Contains(properties, "symbol")
	suite.Contains(properties, "strategy")
	suite.Contains(properties, "provider")

	strategy, ok := properties["strategy"].(map[string]interface{})
	suite.Require().True(ok)
	suite.ElementsMatch([]interface{}{"moving_average_crossover", "ichimoku_cloud", "parabolic_sar"}, strategy["enum"])
}
