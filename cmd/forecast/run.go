package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/backtest/engine"
	"github.com/rxtech-lab/argo-forecast/internal/config"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/pipeline"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch history, forecast, decide and replay the decisions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Ticker symbol (e.g. RELIANCE.NS)",
			},
			&cli.FloatFlag{
				Name:    "investment",
				Aliases: []string{"i"},
				Usage:   "Amount to invest",
				Value:   1000,
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: fmt.Sprintf("Signal strategy (%s, %s, %s)", types.StrategyMovingAverageCrossover, types.StrategyIchimokuCloud, types.StrategyParabolicSAR),
				Value: string(types.StrategyMovingAverageCrossover),
			},
			&cli.IntFlag{
				Name:  "window",
				Usage: "Moving-average window",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "horizon",
				Usage: "Forecast steps beyond the last bar",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "projection",
				Usage: fmt.Sprintf("Investment projection mode (%s, %s)", types.ProjectionRatio, types.ProjectionCompound),
				Value: string(types.ProjectionRatio),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s, %s, %s, %s)", provider.ProviderYahoo, provider.ProviderPolygon, provider.ProviderBinance, provider.ProviderParquet),
				Value:   string(provider.ProviderYahoo),
			},
			&cli.StringFlag{
				Name:  "parquet",
				Usage: "Parquet file for the parquet provider",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start date in `YYYY-MM-DD` format. Defaults to one year before the end date.",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format. Defaults to today.",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.BoolFlag{
				Name:  "no-backtest",
				Usage: "Skip the forecast backtest and the decision replay",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: runAction,
	}
}

// loadConfig reads the optional config file and applies every flag the user set on top of it.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Read(path)
		if err != nil {
			return config.Config{}, err
		}

		cfg = loaded
	}

	if cmd.IsSet("symbol") {
		cfg.Symbol = cmd.String("symbol")
	}

	if cmd.IsSet("investment") {
		cfg.Investment = cmd.Float("investment")
	}

	if cmd.IsSet("strategy") {
		cfg.Strategy = types.StrategyType(cmd.String("strategy"))
	}

	if cmd.IsSet("window") {
		cfg.Params.Window = int(cmd.Int("window"))
	}

	if cmd.IsSet("horizon") {
		cfg.Horizon = int(cmd.Int("horizon"))
	}

	if cmd.IsSet("projection") {
		cfg.ProjectionMode = types.ProjectionMode(cmd.String("projection"))
	}

	if cmd.IsSet("provider") {
		cfg.Provider.Type = provider.ProviderType(cmd.String("provider"))
	}

	if cmd.IsSet("parquet") {
		cfg.Provider.ParquetPath = cmd.String("parquet")
	}

	if cmd.IsSet("start") {
		cfg.Start = cmd.Timestamp("start").Format(time.DateOnly)
	}

	if cmd.IsSet("end") {
		cfg.End = cmd.Timestamp("end").Format(time.DateOnly)
	}

	if cmd.Bool("no-backtest") {
		cfg.Backtest = false
	}

	if cmd.IsSet("log-level") || cmd.String("config") == "" {
		cfg.LogLevel = cmd.String("log-level")
	}

	cfg.ApplyEnv()

	if err := cfg.Normalize(); err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	//nolint:errcheck // stderr sync fails on some terminals
	defer log.Sync()

	client, err := marketdata.NewClient(cfg.Provider, log)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close market data client", zap.Error(err))
		}
	}()

	p := pipeline.NewPipeline(client, log)
	p.SetBacktestCallbacks(progressCallbacks())

	report := p.Run(ctx, pipeline.RequestFromConfig(cfg, time.Now()))

	fmt.Fprintln(cmd.Root().Writer, RenderReport(report))

	return report.Error
}

// progressCallbacks draws a progress bar on stderr while the decisions are replayed.
func progressCallbacks() engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onStart := engine.OnRunStartCallback(func(_ string, totalSteps int) error {
		bar = progressbar.NewOptions(totalSteps,
			progressbar.OptionSetDescription("Replaying decisions"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		return nil
	})

	onProcess := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})

	onEnd := engine.OnRunEndCallback(func(_ types.BacktestMetrics, _ error) {
		if bar != nil {
			//nolint:errcheck // progress output only
			bar.Finish()
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnRunEnd:      &onEnd,
		OnProcessData: &onProcess,
	}
}
