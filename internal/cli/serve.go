// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/runner"
	"github.com/jeranaias/opbench/internal/server"
)

type serveFlags struct {
	addr     string
	token    string
	noSweeps bool
}

func newServeCmd(app *App) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sweep history over HTTP",
		Long: `Starts the results API: run groups, saved sweeps in every export format,
sweeps triggered by POST /v1/sweeps, and runner metrics on /metrics.

Set server.token (or OPBENCH_SERVER_TOKEN) to require a bearer token.`,
		Example: `  opbench serve
  opbench serve --addr :8787 --no-sweeps
  curl localhost:8787/v1/sweeps/3f2a?format=csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app, f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().StringVar(&f.token, "token", "", "bearer token (default: server.token)")
	cmd.Flags().BoolVar(&f.noSweeps, "no-sweeps", false, "serve history only, reject POST /v1/sweeps")
	return cmd
}

func runServe(ctx context.Context, app *App, f serveFlags) error {
	cfg := app.Config.Server
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.token != "" {
		cfg.Token = f.token
	}

	groups := app.NewGroups(app.Config)
	if err := benchmark.ValidateGroups(groups); err != nil {
		app.Logger.Warn("run group definitions have problems", "error", err)
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	srv := server.NewServer(server.Config{
		Addr:              cfg.Addr,
		Token:             cfg.Token,
		AllowedIPs:        server.ParseAllowedIPs(cfg.AllowedIPs),
		RequestsPerMinute: cfg.RequestsPerMinute,
		Version:           Version,
	}, groups).
		WithHistory(store).
		WithGatherer(reg).
		WithLogger(app.Logger)
	if !f.noSweeps {
		srv.WithRunner(runner.New(app.Config.RunnerOptions(),
			runner.WithLogger(app.Logger),
			runner.WithRegisterer(reg),
		))
	}

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
	}
	fmt.Fprintf(app.Err, "serving on http://%s\n", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errCh
}
