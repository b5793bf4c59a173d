package provider

import (
	"context"
	"math"
	"time"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator the client uses.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregates. It is satisfied by an adapter around the polygon REST client.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

// PolygonClient implements Provider with Polygon daily aggregates.
type PolygonClient struct {
	apiClient PolygonAPIClient
	log       *logger.Logger
}

func NewPolygonClient(apiKey string, log *logger.Logger) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIAdapter{client: polygon.New(apiKey)}, log), nil
}

// NewPolygonClientWithAPI creates a client on top of an existing API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient, log *logger.Logger) *PolygonClient {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PolygonClient{
		apiClient: apiClient,
		log:       log,
	}
}

func (c *PolygonClient) Name() ProviderType { return ProviderPolygon }

// Fetch implements Provider.
func (c *PolygonClient) Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(truncateDay(start)),
		To:         models.Millis(truncateDay(end)),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	var raw []types.PriceBar

	for iter.Next() {
		raw = append(raw, aggToBar(iter.Item()))
	}

	if err := iter.Err(); err != nil {
		return types.PriceSeries{}, fetchError(ctx, ProviderPolygon, err)
	}

	c.log.Debug("Fetched polygon aggregates",
		zap.String("symbol", symbol),
		zap.Int("count", len(raw)),
	)

	return buildSeries(c.log, ProviderPolygon, symbol, start, end, raw)
}

func aggToBar(agg models.Agg) types.PriceBar {
	return types.PriceBar{
		Date:   time.Time(agg.Timestamp),
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: optional.Some(int64(math.Round(agg.Volume))),
	}
}
