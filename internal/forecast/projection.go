package forecast

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Horizons are the projection horizons, in trading days, shown in the report.
var Horizons = []int{1, 30, 365}

// ProjectionInput carries everything either projection mode may need.
type ProjectionInput struct {
	Investment      float64
	CurrentPrice    float64
	ForecastPrice   float64
	HorizonDays     int
	MeanDailyReturn float64
}

// InvestmentProjection projects the value of an investment.
// In ratio mode the investment is scaled by forecast/current price.
// In compound mode the mean daily return is compounded over HorizonDays.
func InvestmentProjection(mode types.ProjectionMode, in ProjectionInput) (types.Projection, error) {
	if in.Investment < 0 || math.IsNaN(in.Investment) || math.IsInf(in.Investment, 0) {
		return types.Projection{}, errors.Newf(errors.ErrCodeInvalidParameter, "investment must be a non-negative amount, got %v", in.Investment)
	}

	investment := decimal.NewFromFloat(in.Investment)

	switch mode {
	case types.ProjectionRatio, "":
		if in.CurrentPrice <= 0 {
			return types.Projection{}, errors.Newf(errors.ErrCodeInvalidParameter, "current price must be positive, got %v", in.CurrentPrice)
		}

		ratio := decimal.NewFromFloat(in.ForecastPrice).Div(decimal.NewFromFloat(in.CurrentPrice))

		return types.Projection{
			Mode:        types.ProjectionRatio,
			HorizonDays: in.HorizonDays,
			Value:       investment.Mul(ratio),
		}, nil
	case types.ProjectionCompound:
		if in.HorizonDays < 0 {
			return types.Projection{}, errors.Newf(errors.ErrCodeInvalidParameter, "horizon must be non-negative, got %d", in.HorizonDays)
		}

		growth := math.Pow(1+in.MeanDailyReturn, float64(in.HorizonDays))
		if math.IsNaN(growth) || math.IsInf(growth, 0) {
			return types.Projection{}, errors.Newf(errors.ErrCodeNumericInstability,
				"compounding %v over %d days is not finite", in.MeanDailyReturn, in.HorizonDays)
		}

		return types.Projection{
			Mode:        types.ProjectionCompound,
			HorizonDays: in.HorizonDays,
			Value:       investment.Mul(decimal.NewFromFloat(growth)),
		}, nil
	default:
		return types.Projection{}, errors.Newf(errors.ErrCodeInvalidParameter, "unknown projection mode %q", mode)
	}
}

// ProjectHorizons compounds the mean daily return at every entry of Horizons.
func ProjectHorizons(investment float64, stats types.ReturnStats) ([]types.Projection, error) {
	projections := make([]types.Projection, 0, len(Horizons))

	for _, days := range Horizons {
		p, err := InvestmentProjection(types.ProjectionCompound, ProjectionInput{
			Investment:      investment,
			HorizonDays:     days,
			MeanDailyReturn: stats.MeanDailyReturn,
		})
		if err != nil {
			return nil, err
		}

		projections = append(projections, p)
	}

	return projections, nil
}

// ReturnStats computes the mean and sample standard deviation of the daily
// percentage-change returns of the closes.
func ReturnStats(series types.PriceSeries) (types.ReturnStats, error) {
	closes := series.Closes()
	if len(closes) < 2 {
		return types.ReturnStats{}, errors.Wrap(errors.ErrCodeInvalidParameter, "daily returns need two closes",
			errors.NewInsufficientDataError(2, len(closes), series.Symbol, "not enough closes for a daily return"))
	}

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return types.ReturnStats{}, errors.Newf(errors.ErrCodeNumericInstability,
				"close at index %d is zero, daily return undefined", i-1)
		}

		returns[i-1] = closes[i]/closes[i-1] - 1
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if len(returns) == 1 {
		std = 0
	}

	return types.ReturnStats{
		MeanDailyReturn: mean,
		StdDev:          std,
		Observations:    len(returns),
	}, nil
}
