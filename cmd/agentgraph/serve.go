package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/agentgraph/server"
	"github.com/leofalp/agentgraph/testengine"
)

func newServeCmd(get func() *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			orch, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := a.engine()
			if err != nil {
				return err
			}
			executor, err := a.executor(cmd.Context())
			if err != nil {
				return err
			}

			opts := []server.Option{server.WithMetrics(a.metrics), server.WithLogger(a.logger)}
			if a.cache != nil {
				opts = append(opts, server.WithCache(a.cache))
			}

			go sweepTests(cmd.Context(), engine, a)

			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			return server.New(engine, orch, executor, opts...).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

const (
	sweepInterval = 10 * time.Minute
	testRetention = time.Hour
)

// sweepTests drops finished test executions from memory; they remain in the
// store.
func sweepTests(ctx context.Context, engine *testengine.Engine, a *app) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := engine.Cleanup(testRetention); n > 0 {
				a.logger.Debug("test executions swept", slog.Int("count", n))
			}
		}
	}
}
