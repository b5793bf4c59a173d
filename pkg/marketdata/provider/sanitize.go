package provider

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// buildSeries turns raw provider bars into a PriceSeries: bars outside [start, end] or failing
// validation are dropped, the rest are sorted by date and a repeated date keeps its last bar.
func buildSeries(log *logger.Logger, provider ProviderType, symbol string, start, end time.Time, raw []types.PriceBar) (types.PriceSeries, error) {
	from := truncateDay(start)
	to := truncateDay(end)

	bars := make([]types.PriceBar, 0, len(raw))
	dropped := 0

	for _, bar := range raw {
		bar.Date = truncateDay(bar.Date)

		if bar.Date.Before(from) || bar.Date.After(to) {
			continue
		}

		if err := bar.Validate(); err != nil {
			dropped++

			log.Debug("Dropping malformed bar",
				zap.String("provider", string(provider)),
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	deduped := bars[:0]
	for _, bar := range bars {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(bar.Date) {
			deduped[n-1] = bar

			continue
		}

		deduped = append(deduped, bar)
	}

	if dropped > 0 {
		log.Warn("Dropped malformed bars",
			zap.String("provider", string(provider)),
			zap.String("symbol", symbol),
			zap.Int("dropped", dropped),
		)
	}

	if len(deduped) == 0 {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataAvailable,
			"no data available for %s between %s and %s", symbol, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	return types.NewPriceSeries(symbol, deduped)
}

// truncateDay maps t to midnight UTC of its UTC calendar date.
func truncateDay(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
