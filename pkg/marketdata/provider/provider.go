package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderParquet ProviderType = "parquet"
)

// DefaultTimeout bounds every provider call when the configuration does not set one.
const DefaultTimeout = 30 * time.Second

// Provider fetches historical daily bars.
type Provider interface {
	// Fetch returns the daily bars of symbol dated between start and end, both inclusive.
	// The series is ordered by date with duplicates and malformed bars removed.
	// An empty result is reported as ErrCodeNoDataAvailable.
	// example:
	// Fetch(ctx, "RELIANCE.NS", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error)
	// Name returns the provider type.
	Name() ProviderType
}

// Config selects and configures a provider.
type Config struct {
	Type          ProviderType  `yaml:"type" json:"type" validate:"required,oneof=yahoo polygon binance parquet" jsonschema:"title=Provider,description=Market data source,enum=yahoo,enum=polygon,enum=binance,enum=parquet,default=yahoo"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" validate:"min=0" jsonschema:"title=Timeout,description=Upper bound of a single fetch (e.g. 30s)"`
	PolygonApiKey string        `yaml:"polygon_api_key" json:"polygon_api_key" validate:"required_if=Type polygon" jsonschema:"title=Polygon API Key,description=Overridden by the POLYGON_API_KEY environment variable"`
	ParquetPath   string        `yaml:"parquet_path" json:"parquet_path" validate:"required_if=Type parquet" jsonschema:"title=Parquet Path,description=File with time/symbol/open/high/low/close/volume columns"`
	YahooBaseURL  string        `yaml:"yahoo_base_url" json:"yahoo_base_url" validate:"omitempty,url" jsonschema:"title=Yahoo Base URL"`
}

// DefaultConfig returns the Yahoo provider with the default timeout.
func DefaultConfig() Config {
	return Config{
		Type:    ProviderYahoo,
		Timeout: DefaultTimeout,
	}
}

// Validate checks the field constraints of the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid provider configuration", err)
	}

	return nil
}

// EffectiveTimeout returns Timeout, or DefaultTimeout when unset.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}

	return c.Timeout
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(config Config, log *logger.Logger) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	switch config.Type {
	case ProviderYahoo:
		//nolint:exhaustruct // default transport
		client := &http.Client{Timeout: config.EffectiveTimeout()}

		return NewYahooProvider(config.YahooBaseURL, client, log), nil
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey, log)
	case ProviderBinance:
		return NewBinanceClient(log)
	case ProviderParquet:
		parquet, err := NewParquetProvider(config.ParquetPath, log)
		if err != nil {
			return nil, err
		}

		return parquet, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", config.Type)
	}
}

// fetchError classifies a transport failure as a timeout or a generic fetch failure.
func fetchError(ctx context.Context, provider ProviderType, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrCodeMarketDataTimeout, err, "%s request timed out", provider)
	}

	return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "%s request failed", provider)
}
