package types

import (
	"testing"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) TestSignalTypeConstants() {
	suite.Equal(SignalType("buy"), SignalTypeBuy)
	suite.Equal(SignalType("sell"), SignalTypeSell)
	suite.Equal(SignalType("hold"), SignalTypeHold)
}

func (suite *SignalTestSuite) TestParseStrategy() {
	tests := []struct {
		input    string
		expected StrategyType
	}{
		{"moving_average_crossover", StrategyMovingAverageCrossover},
		{"MovingAverageCrossover", StrategyMovingAverageCrossover},
		{"ichimoku-cloud", StrategyIchimokuCloud},
		{"IchimokuCloud", StrategyIchimokuCloud},
		{"Parabolic SAR", StrategyParabolicSAR},
		{"parabolic_sar", StrategyParabolicSAR},
	}

	for _, tt := range tests {
		strategy, err := ParseStrategy(tt.input)
		suite.NoError(err, tt.input)
		suite.Equal(tt.expected, strategy, tt.input)
	}
}

func (suite *SignalTestSuite) TestParseStrategyUnknown() {
	_, err := ParseStrategy("bollinger")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))

	_, err = ParseStrategy("")
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *SignalTestSuite) TestDefaultStrategyParams() {
	params := DefaultStrategyParams()
	suite.Equal(20, params.Window)
	suite.Equal(0.02, params.Acceleration)
	suite.Equal(0.2, params.Maximum)
}
