package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
	// CalculateAll runs every registered indicator and merges the lines of those that succeed
	CalculateAll(series types.PriceSeries, params types.StrategyParams) (types.IndicatorResult, error)
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Indicator),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding the moving average, Ichimoku and SAR indicators.
func NewDefaultRegistry() IndicatorRegistry {
	r := NewIndicatorRegistry()
	// Fresh registry, names are distinct
	_ = r.RegisterIndicator(NewMA())
	_ = r.RegisterIndicator(NewIchimoku())
	_ = r.RegisterIndicator(NewSAR())

	return r
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the registered indicator names in sorted order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}

// CalculateAll implements IndicatorRegistry. Lines of indicators that succeed are always
// returned; each failing indicator contributes one IndicatorCalculation error to a joined error.
func (r *IndicatorRegistryV1) CalculateAll(series types.PriceSeries, params types.StrategyParams) (types.IndicatorResult, error) {
	result := types.IndicatorResult{}

	var failures []error

	for _, name := range r.ListIndicators() {
		ind, err := r.GetIndicator(name)
		if err != nil {
			// removed concurrently
			continue
		}

		lines, err := ind.Calculate(series, params)
		if err != nil {
			failures = append(failures, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to calculate %s", name))

			continue
		}

		result.Merge(lines)
	}

	return result, errors.Join(failures...)
}
