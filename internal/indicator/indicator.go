package indicator

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// Indicator interface defines methods that any technical indicator must implement.
// Implementations hold no state, so one instance can serve concurrent calls for different symbols.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Calculate derives the indicator lines for the whole series
	Calculate(series types.PriceSeries, params types.StrategyParams) (types.IndicatorResult, error)
}
