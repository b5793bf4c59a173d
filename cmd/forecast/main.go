package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-forecast/internal/version"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "forecast",
		Usage:   "Forecast equity prices and derive trading signals",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			runCommand(),
			schemaCommand(),
			providersCommand(),
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
