package provider

import (
	"context"
	"math"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// binancePageSize is the number of klines Binance returns per request by default.
const binancePageSize = 500

// BinanceKlinesService is the kline query builder used by the client.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates kline queries.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesAdapter{service: a.client.NewKlinesService()}
}

type binanceKlinesAdapter struct {
	service *binance.KlinesService
}

func (k *binanceKlinesAdapter) Symbol(symbol string) BinanceKlinesService {
	k.service.Symbol(symbol)

	return k
}

func (k *binanceKlinesAdapter) Interval(interval string) BinanceKlinesService {
	k.service.Interval(interval)

	return k
}

func (k *binanceKlinesAdapter) StartTime(startTime int64) BinanceKlinesService {
	k.service.StartTime(startTime)

	return k
}

func (k *binanceKlinesAdapter) EndTime(endTime int64) BinanceKlinesService {
	k.service.EndTime(endTime)

	return k
}

func (k *binanceKlinesAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.service.Do(ctx)
}

// BinanceClient implements Provider with Binance daily klines.
type BinanceClient struct {
	apiClient BinanceAPIClient
	log       *logger.Logger
}

func NewBinanceClient(log *logger.Logger) (Provider, error) {
	return NewBinanceClientWithAPI(&binanceAPIAdapter{client: binance.NewClient("", "")}, log), nil
}

// NewBinanceClientWithAPI creates a client on top of an existing API client.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient, log *logger.Logger) *BinanceClient {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BinanceClient{
		apiClient: apiClient,
		log:       log,
	}
}

func (c *BinanceClient) Name() ProviderType { return ProviderBinance }

// Fetch implements Provider. Klines are paged until the end date is reached.
func (c *BinanceClient) Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	// Binance API uses milliseconds for timestamps
	currentStartTime := truncateDay(start).UnixMilli()
	endTimeMillis := truncateDay(end).AddDate(0, 0, 1).UnixMilli() - 1

	var raw []types.PriceBar

	for {
		klines, err := c.apiClient.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Do(ctx)
		if err != nil {
			return types.PriceSeries{}, fetchError(ctx, ProviderBinance, err)
		}

		bars, err := klinesToBars(klines)
		if err != nil {
			return types.PriceSeries{}, err
		}

		raw = append(raw, bars...)

		// Break conditions: no data or less than a full page (last page)
		if len(klines) < binancePageSize {
			break
		}

		// Use the close time of the last kline + 1ms to avoid duplicates
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	c.log.Debug("Fetched binance klines",
		zap.String("symbol", symbol),
		zap.Int("count", len(raw)),
	)

	return buildSeries(c.log, ProviderBinance, symbol, start, end, raw)
}

// klinesToBars converts Binance klines, whose prices are decimal strings, to bars.
func klinesToBars(klines []*binance.Kline) ([]types.PriceBar, error) {
	bars := make([]types.PriceBar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", s)
			}

			values[i] = v
		}

		bars = append(bars, types.PriceBar{
			Date:   time.UnixMilli(k.OpenTime),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: optional.Some(int64(math.Round(values[4]))),
		})
	}

	return bars, nil
}
