package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Provider using the Yahoo Finance chart API.
type YahooProvider struct {
	client    *http.Client
	baseURL   string
	symbolMap map[string]string
	log       *logger.Logger
}

// NewYahooProvider creates a Yahoo provider. An empty baseURL selects DefaultYahooBaseURL.
func NewYahooProvider(baseURL string, client *http.Client, log *logger.Logger) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}

	if client == nil {
		//nolint:exhaustruct // default transport
		client = &http.Client{Timeout: DefaultTimeout}
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &YahooProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NIFTY":  "^NSEI",
		},
		log: log,
	}
}

func (y *YahooProvider) Name() ProviderType { return ProviderYahoo }

func (y *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := y.symbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}

	return symbol
}

// yahooChart is the response structure of the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GmtOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch implements Provider.
func (y *YahooProvider) Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	// period2 is exclusive
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&events=history",
		y.baseURL, url.PathEscape(y.yahooSymbol(symbol)), truncateDay(start).Unix(), truncateDay(end).AddDate(0, 0, 1).Unix())

	y.log.Debug("Fetching Yahoo chart", zap.String("symbol", symbol), zap.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to build yahoo request", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return types.PriceSeries{}, fetchError(ctx, ProviderYahoo, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PriceSeries{}, fetchError(ctx, ProviderYahoo, err)
	}

	var chart yahooChart

	decodeErr := json.Unmarshal(body, &chart)

	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataAvailable,
				"no data available for %s: %s", symbol, chart.Chart.Error.Description)
		}

		return types.PriceSeries{}, errors.Newf(errors.ErrCodeMarketDataFetchFailed,
			"yahoo api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}

	if resp.StatusCode != http.StatusOK {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeMarketDataFetchFailed,
			"yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if decodeErr != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to decode yahoo chart", decodeErr)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataAvailable, "no data available for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	raw := make([]types.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // skip null bars (holidays etc.)
		}

		volume := optional.None[int64]()
		if v := at(quote.Volume, i); v != nil {
			volume = optional.Some(int64(math.Round(*v)))
		}

		// shift to the exchange's local calendar date
		raw = append(raw, types.PriceBar{
			Date:   time.Unix(ts+result.Meta.GmtOffset, 0),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *c,
			Volume: volume,
		})
	}

	return buildSeries(y.log, ProviderYahoo, symbol, start, end, raw)
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}

	return values[i]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
