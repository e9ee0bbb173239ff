package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/internal/config"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var application *app

	cmd := &cobra.Command{
		Use:           "agentgraph",
		Short:         "Validate, test and run agent graphs",
		Long:          `agentgraph checks user-authored agent graphs, derives a test plan, simulates or executes them against multiple AI providers with automatic fallback, and serves the same operations over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			logger, err := loggerFor(cfg, flags.logLevel, flags.logFormat)
			if err != nil {
				return err
			}
			application = newApp(cfg, logger)
			logger.Debug("configuration loaded", slog.String("config", cfg.String()))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if application != nil {
				application.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file (default $AGENTGRAPH_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "text or json")

	get := func() *app { return application }
	cmd.AddCommand(
		newValidateCmd(get),
		newStrategyCmd(get),
		newSimulateCmd(get),
		newTestCmd(get),
		newRunCmd(get),
		newCompleteCmd(get),
		newProvidersCmd(get),
		newHistoryCmd(get),
		newServeCmd(get),
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readData loads a JSON or YAML object from path. An empty path yields nil.
func readData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", path, err)
	}
	return data, nil
}

func loadAgent(path string) (*agent.Agent, error) {
	a, err := agent.Load(path)
	if err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = path
	}
	return a, nil
}
