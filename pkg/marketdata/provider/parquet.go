package provider

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// ParquetProvider reads daily bars from a local Parquet file through DuckDB.
// The file needs time, symbol, open, high, low, close and volume columns.
type ParquetProvider struct {
	path string
	db   *sql.DB
	log  *logger.Logger
	sq   squirrel.StatementBuilderType
}

// NewParquetProvider opens an in-memory DuckDB database to query path.
func NewParquetProvider(path string, log *logger.Logger) (*ParquetProvider, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "parquet path is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &ParquetProvider{
		path: path,
		db:   db,
		log:  log,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (p *ParquetProvider) Name() ProviderType { return ProviderParquet }

// Fetch implements Provider.
func (p *ParquetProvider) Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	if p.db == nil {
		return types.PriceSeries{}, errors.New(errors.ErrCodeDataSourceUnavailable, "parquet provider is closed")
	}

	// read_parquet takes a literal path, squirrel cannot bind it
	source := fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(p.path, "'", "''"))

	query, args, err := p.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From(source).
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"time": truncateDay(start)}).
		Where(squirrel.Lt{"time": truncateDay(end).AddDate(0, 0, 1)}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	p.log.Debug("Querying parquet file", zap.String("path", p.path), zap.String("query", query))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() != nil {
			return types.PriceSeries{}, fetchError(ctx, ProviderParquet, err)
		}

		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query %s", p.path)
	}
	defer rows.Close()

	var raw []types.PriceBar

	for rows.Next() {
		var (
			bar    types.PriceBar
			volume sql.NullFloat64
		)

		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &volume); err != nil {
			return types.PriceSeries{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan row", err)
		}

		bar.Volume = optional.None[int64]()
		if volume.Valid {
			bar.Volume = optional.Some(int64(math.Round(volume.Float64)))
		}

		raw = append(raw, bar)
	}

	if err := rows.Err(); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return buildSeries(p.log, ProviderParquet, symbol, start, end, raw)
}

// Close closes the database connection.
func (p *ParquetProvider) Close() error {
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil

	return err
}
