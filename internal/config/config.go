package config

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/argo-forecast/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// PolygonApiKeyEnv overrides provider.polygon_api_key when set.
const PolygonApiKeyEnv = "POLYGON_API_KEY"

// DefaultHistoryDays is the history fetched when no start date is configured.
const DefaultHistoryDays = 365

// Config is the file configuration of a forecast run.
type Config struct {
	// Symbol is the ticker to analyse, e.g. RELIANCE.NS
	Symbol string `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,description=Ticker symbol (e.g. RELIANCE.NS)"`
	// Investment is the amount to invest in the quote currency
	Investment float64 `yaml:"investment" json:"investment" validate:"gt=0" jsonschema:"title=Investment,description=Amount to invest,default=1000"`
	// Strategy selects the reference level the forecast is compared against
	Strategy types.StrategyType `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy"`
	// Params tunes the strategy
	Params types.StrategyParams `yaml:"params" json:"params" jsonschema:"title=Strategy Parameters"`
	// Field is the price column that is forecast
	Field types.PriceField `yaml:"field" json:"field" validate:"required,oneof=open high low close" jsonschema:"title=Price Field"`
	// Horizon is the number of forecast steps
	Horizon int `yaml:"horizon" json:"horizon" validate:"min=1" jsonschema:"title=Horizon,description=Forecast steps beyond the last bar,minimum=1,default=1"`
	// ProjectionMode selects how the investment is projected
	ProjectionMode types.ProjectionMode `yaml:"projection_mode" json:"projection_mode" validate:"oneof=ratio compound" jsonschema:"title=Projection Mode"`
	// Start is the first day of history (YYYY-MM-DD); defaults to one year before End
	Start string `yaml:"start" json:"start,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"title=Start Date,format=date"`
	// End is the last day of history (YYYY-MM-DD); defaults to today
	End string `yaml:"end" json:"end,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"title=End Date,format=date"`
	// Backtest enables the MAPE backtest of the forecaster and the decision replay
	Backtest bool `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest,default=true"`
	// Lookback is the history before the first replayed decision
	Lookback int `yaml:"lookback" json:"lookback" validate:"min=1" jsonschema:"title=Lookback,minimum=1,default=30"`
	// LogLevel is the zap level
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
	// Provider selects the market data source
	Provider provider.Config `yaml:"provider" json:"provider" jsonschema:"title=Provider"`
}

// Default returns a configuration with every optional field set.
// Symbol is left empty and must be provided.
func Default() Config {
	return Config{
		Symbol:         "",
		Investment:     1000,
		Strategy:       types.StrategyMovingAverageCrossover,
		Params:         types.DefaultStrategyParams(),
		Field:          types.PriceFieldClose,
		Horizon:        1,
		ProjectionMode: types.ProjectionRatio,
		Start:          "",
		End:            "",
		Backtest:       true,
		Lookback:       engine.DefaultLookback,
		LogLevel:       "info",
		Provider:       provider.DefaultConfig(),
	}
}

// Load reads, completes and validates the YAML file at path.
func Load(path string) (Config, error) {
	config, err := Read(path)
	if err != nil {
		return Config{}, err
	}

	return config.finalize()
}

// Read decodes the YAML file at path over Default without validating it, so callers can
// apply overrides before calling Normalize and Validate.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Decode(data)
}

// Decode unmarshals YAML over Default. Unset keys keep their defaults.
func Decode(data []byte) (Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	return config, nil
}

// Parse decodes YAML over Default, applies environment overrides, and validates the result.
func Parse(data []byte) (Config, error) {
	config, err := Decode(data)
	if err != nil {
		return Config{}, err
	}

	return config.finalize()
}

func (c Config) finalize() (Config, error) {
	c.ApplyEnv()

	if err := c.Normalize(); err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// ApplyEnv copies API keys from the environment.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(PolygonApiKeyEnv); key != "" {
		c.Provider.PolygonApiKey = key
	}
}

// Normalize canonicalizes the strategy name, e.g. "ParabolicSAR" becomes parabolic_sar.
func (c *Config) Normalize() error {
	strategy, err := types.ParseStrategy(string(c.Strategy))
	if err != nil {
		return err
	}

	c.Strategy = strategy

	if c.ProjectionMode == "" {
		c.ProjectionMode = types.ProjectionRatio
	}

	return nil
}

// Validate checks field constraints, the provider section and the date range.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if _, err := types.ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}

	start, end := c.StartDate(), c.EndDate()
	if start.IsSome() && end.IsSome() && start.Unwrap().After(end.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "start %s is after end %s", c.Start, c.End)
	}

	return nil
}

// StartDate returns the configured start day, if any.
func (c Config) StartDate() optional.Option[time.Time] {
	return parseDate(c.Start)
}

// EndDate returns the configured end day, if any.
func (c Config) EndDate() optional.Option[time.Time] {
	return parseDate(c.End)
}

// DateRange resolves the fetch window: End defaults to now and Start to DefaultHistoryDays before End.
func (c Config) DateRange(now time.Time) (time.Time, time.Time) {
	end := c.EndDate().TakeOr(now.UTC())
	start := c.StartDate().TakeOr(end.AddDate(0, 0, -DefaultHistoryDays))

	return start, end
}

// BacktestConfig returns the engine configuration of the decision replay.
func (c Config) BacktestConfig() engine.BacktestEngineV1Config {
	return engine.BacktestEngineV1Config{
		Strategy: c.Strategy,
		Params:   c.Params,
		Lookback: c.Lookback,
		Field:    c.Field,
	}
}

func parseDate(value string) optional.Option[time.Time] {
	if value == "" {
		return optional.None[time.Time]()
	}

	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}

// GenerateSchemaJSON returns the JSON schema of the configuration file.
func GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		Mapper:                     schemaMapper,
	}

	//nolint:exhaustruct // Empty struct is intentional for schema generation
	schema := reflector.Reflect(&Config{})
	schema.Title = "argo-forecast-config"
	schema.Description = "Configuration schema for a forecast run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func schemaMapper(t reflect.Type) *jsonschema.Schema {
	if t == reflect.TypeOf(types.ProjectionMode("")) {
		return &jsonschema.Schema{
			Type: "string",
			Enum: []any{string(types.ProjectionRatio), string(types.ProjectionCompound)},
		}
	}

	if t == reflect.TypeOf(time.Duration(0)) {
		return &jsonschema.Schema{Type: "string", Description: "Go duration, e.g. 30s"}
	}

	return engine.SchemaMapper(t)
}
