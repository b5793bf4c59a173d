package types

import (
	"strings"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

type SignalType string

const (
	// SignalTypeBuy means the forecast is above the strategy's reference level
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell means the forecast is at or below the reference level
	SignalTypeSell SignalType = "sell"
	// SignalTypeHold means no decision could be made for the step
	SignalTypeHold SignalType = "hold"
)

type StrategyType string

const (
	StrategyMovingAverageCrossover StrategyType = "moving_average_crossover"
	StrategyIchimokuCloud          StrategyType = "ichimoku_cloud"
	StrategyParabolicSAR           StrategyType = "parabolic_sar"
)

// Strategies lists every supported strategy.
var Strategies = []StrategyType{
	StrategyMovingAverageCrossover,
	StrategyIchimokuCloud,
	StrategyParabolicSAR,
}

// ParseStrategy accepts the canonical snake_case name as well as spellings such as
// "MovingAverageCrossover" or "parabolic-sar".
func ParseStrategy(name string) (StrategyType, error) {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(name))

	for _, strategy := range Strategies {
		if strings.ReplaceAll(string(strategy), "_", "") == normalized {
			return strategy, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy %q", name)
}

// StrategyParams holds the tunables of all strategies. Unused fields are ignored.
type StrategyParams struct {
	// Window is the moving-average window in bars
	Window int `yaml:"window" json:"window" validate:"min=1" jsonschema:"minimum=1,default=20"`
	// Acceleration is the Parabolic SAR acceleration step
	Acceleration float64 `yaml:"acceleration" json:"acceleration" validate:"gt=0,lte=1" jsonschema:"default=0.02"`
	// Maximum is the Parabolic SAR acceleration cap
	Maximum float64 `yaml:"maximum" json:"maximum" validate:"gt=0,lte=1,gtefield=Acceleration" jsonschema:"default=0.2"`
}

// DefaultStrategyParams returns the conventional settings: MA20 and SAR(0.02, 0.2).
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		Window:       20,
		Acceleration: 0.02,
		Maximum:      0.2,
	}
}
