package marketdata

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// FetchParams holds the parameters for a market data fetch request.
type FetchParams struct {
	Symbol    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtefield=StartDate"`
}

// Client is the market data client responsible for fetching series from a provider
// with validated parameters and a bounded request time.
type Client struct {
	provider provider.Provider
	timeout  time.Duration
	validate *validator.Validate
	log      *logger.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient creates a new market data client with the given provider configuration.
func NewClient(config provider.Config, log *logger.Logger) (*Client, error) {
	marketProvider, err := provider.NewMarketDataProvider(config, log)
	if err != nil {
		return nil, err
	}

	return NewClientWithProvider(marketProvider, config.EffectiveTimeout(), log), nil
}

// NewClientWithProvider wraps an existing provider. A non-positive timeout falls back to
// provider.DefaultTimeout.
func NewClientWithProvider(marketProvider provider.Provider, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}

	return &Client{
		provider: marketProvider,
		timeout:  timeout,
		validate: validator.New(),
		log:      log,
	}
}

// Name returns the wrapped provider's type.
func (c *Client) Name() provider.ProviderType {
	return c.provider.Name()
}

// Fetch implements provider.Provider.
func (c *Client) Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	return c.FetchWithParams(ctx, FetchParams{Symbol: symbol, StartDate: start, EndDate: end})
}

// FetchWithParams validates params and fetches the series within the client timeout.
func (c *Client) FetchWithParams(ctx context.Context, params FetchParams) (types.PriceSeries, error) {
	if err := c.validate.Struct(params); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid fetch parameters", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.Info("Fetching market data",
		zap.String("provider", string(c.provider.Name())),
		zap.String("symbol", params.Symbol),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	series, err := c.provider.Fetch(ctx, params.Symbol, params.StartDate, params.EndDate)
	if err != nil {
		return types.PriceSeries{}, err
	}

	c.log.Debug("Fetched market data",
		zap.String("symbol", params.Symbol),
		zap.Int("bars", series.Len()),
	)

	return series, nil
}

// Close releases the provider's resources when it holds any.
func (c *Client) Close() error {
	if closer, ok := c.provider.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
