package engine

import (
	"encoding/json"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// DefaultLookback is the number of bars replayed before the first decision.
const DefaultLookback = 30

type BacktestEngineV1Config struct {
	Strategy types.StrategyType   `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=The strategy whose decisions are replayed"`
	Params   types.StrategyParams `yaml:"params" json:"params" jsonschema:"title=Strategy Parameters"`
	Lookback int                  `yaml:"lookback" json:"lookback" validate:"min=1" jsonschema:"title=Lookback,description=Bars of history before the first replayed step,minimum=1,default=30"`
	Field    types.PriceField     `yaml:"field" json:"field" validate:"required,oneof=open high low close" jsonschema:"title=Price Field,description=The price column that is forecast"`
}

// Validate checks the field constraints and that the strategy is supported.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest configuration", err)
	}

	if _, err := types.ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper:                     SchemaMapper,
	}

	// Generate schema from BacktestEngineV1Config struct
	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// SchemaMapper renders the string enums of the configuration as JSON schema enums.
func SchemaMapper(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(types.StrategyType("")):
		enum := make([]any, 0, len(types.Strategies))
		for _, s := range types.Strategies {
			enum = append(enum, string(s))
		}

		return &jsonschema.Schema{Type: "string", Enum: enum}
	case reflect.TypeOf(types.PriceField("")):
		return &jsonschema.Schema{
			Type: "string",
			Enum: []any{
				string(types.PriceFieldOpen),
				string(types.PriceFieldHigh),
				string(types.PriceFieldLow),
				string(types.PriceFieldClose),
			},
		}
	}

	return nil
}

func TestConfig(strategy types.StrategyType, lookback int) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Strategy = strategy
	config.Lookback = lookback

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Strategy: types.StrategyMovingAverageCrossover,
		Params:   types.DefaultStrategyParams(),
		Lookback: DefaultLookback,
		Field:    types.PriceFieldClose,
	}
}
