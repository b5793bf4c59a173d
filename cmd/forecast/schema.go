package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-forecast/internal/config"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaFileName       = "forecast-config.json"
	sampleConfigFileName = "forecast-config.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the configuration file, or write it with a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Directory to write the schema and a sample config to",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dir := cmd.String("out")
			if dir == "" {
				schemaJSON, err := config.GenerateSchemaJSON()
				if err != nil {
					return fmt.Errorf("failed to generate schema: %w", err)
				}

				fmt.Fprintln(cmd.Root().Writer, schemaJSON)

				return nil
			}

			schemaPath, samplePath, err := writeSchema(dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Schema written to %s\nSample config at %s\n", schemaPath, samplePath)

			return nil
		},
	}
}

// writeSchema writes the schema to dir and a sample config next to it. An existing sample
// config is left untouched.
func writeSchema(dir string) (string, string, error) {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate schema: %w", err)
	}

	schemaPath := filepath.Join(dir, schemaFileName)
	samplePath := filepath.Join(dir, sampleConfigFileName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write schema to file: %w", err)
	}

	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample := config.Default()
		sample.Symbol = "RELIANCE.NS"

		yamlBytes, err := yaml.Marshal(sample)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal sample config to yaml: %w", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), yamlBytes...)

		if err := os.WriteFile(samplePath, yamlBytes, 0o644); err != nil {
			return "", "", fmt.Errorf("failed to write sample config to file: %w", err)
		}
	}

	return schemaPath, samplePath, nil
}

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List the supported market data providers",
		Action: func(_ context.Context, cmd *cli.Command) error {
			infos := make([]marketdata.ProviderInfo, 0)

			for _, name := range marketdata.GetSupportedProviders() {
				info, err := marketdata.GetProviderInfo(name)
				if err != nil {
					return err
				}

				infos = append(infos, info)
			}

			fmt.Fprintln(cmd.Root().Writer, RenderProviders(infos))

			return nil
		},
	}
}
