// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/export"
	"github.com/jeranaias/opbench/internal/logging"
	"github.com/jeranaias/opbench/internal/runner"
	"github.com/jeranaias/opbench/internal/storage"
)

// formatText selects the terminal rendering of "run".
const formatText = "text"

type runFlags struct {
	option           string
	format           string
	save             bool
	compare          bool
	threshold        float64
	failOnRegression bool
	metricsAddr      string
	quiet            bool
}

func newRunCmd(app *App) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <group>",
		Short: "Sweep one run group",
		Long: `Sweeps every run of a group across its input sizes and prints the result.

The group is a 1-based index, a slug or a name prefix as shown by "list".
Progress goes to stderr; the result goes to stdout in the selected format.`,
		Example: `  opbench run matmul
  opbench run pool-ops --option avg --save
  opbench run 3 --format csv > unary.csv
  opbench run conv --compare --fail-on-regression --threshold 15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), app, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.option, "option", "o", "", "option variant (default: the group's selected option)")
	fl.StringVarP(&f.format, "format", "f", formatText, "output format: text, "+strings.Join(export.Formats(), ", "))
	fl.BoolVar(&f.save, "save", false, "save the sweep to the history")
	fl.BoolVar(&f.compare, "compare", false, "compare with the latest saved sweep of the same group and option")
	fl.Float64Var(&f.threshold, "threshold", 10, "regression threshold in percent")
	fl.BoolVar(&f.failOnRegression, "fail-on-regression", false, "exit non-zero when --compare finds a regression")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while sweeping")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func runSweep(ctx context.Context, app *App, key string, f runFlags) error {
	group, err := app.group(key)
	if err != nil {
		return err
	}

	var exporter export.Exporter
	if f.format != formatText {
		exporter, err = export.ForFormat(f.format, export.DefaultOptions())
		if err != nil {
			return ErrUnsupportedFormat(f.format, append([]string{formatText}, export.Formats()...))
		}
	}

	reg := prometheus.NewRegistry()
	r := runner.New(app.Config.RunnerOptions(),
		runner.WithLogger(app.Logger),
		runner.WithRegisterer(reg),
	)

	addr := f.metricsAddr
	if addr == "" {
		addr = app.Config.Metrics.Addr
	}
	if addr != "" {
		stop, err := serveMetrics(app, addr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	var progress runner.ProgressFunc
	if !f.quiet {
		progress = func(p runner.Progress) {
			value := benchmark.FormatDuration(p.Point.Elapsed)
			if p.Point.Failed() {
				value = "error: " + p.Point.Error
			}
			fmt.Fprintf(app.Err, "[%d/%d] %s size %s: %s\n",
				p.Done, p.Total, p.Run, benchmark.FormatSize(p.Point.Size), value)
		}
	}

	ctx = logging.WithLogger(ctx, app.Logger)
	result, sweepErr := r.Sweep(ctx, group, f.option, progress)
	if result == nil {
		return fmt.Errorf("failed to sweep %q: %w", group.Name, sweepErr)
	}

	prev, saved, err := app.persist(ctx, result, f)
	if err != nil {
		return err
	}

	if exporter != nil {
		data, err := exporter.Export(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if _, err := app.Out.Write(data); err != nil {
			return err
		}
	} else {
		app.renderResult(result)
	}

	if saved {
		fmt.Fprintf(app.Err, "saved sweep %s\n", result.ID)
	}

	if prev != nil {
		if exporter != nil {
			// Keep stdout machine-readable; the comparison still decides the exit code.
			cmps := benchmark.Compare(prev, result)
			if n := len(benchmark.Regressions(cmps, f.threshold)); f.failOnRegression && n > 0 {
				return fmt.Errorf("%w: %d point(s) above %s", ErrRegression, n, benchmark.FormatPercent(f.threshold))
			}
		} else if err := app.renderComparison(prev, result, f.threshold, f.failOnRegression); err != nil {
			return err
		}
	} else if f.compare && !result.Canceled {
		fmt.Fprintln(app.Err, "no earlier sweep to compare with")
	}

	return sweepErr
}

// persist loads the comparison baseline and saves result as requested.
// The baseline is read before saving so a sweep never compares to itself.
func (a *App) persist(ctx context.Context, result *benchmark.SweepResult, f runFlags) (prev *benchmark.SweepResult, saved bool, err error) {
	if result.Canceled && f.save {
		fmt.Fprintln(a.Err, "sweep canceled, not saved")
	}
	save := (f.save || a.Config.Storage.AutoSave) && !result.Canceled
	if !save && !f.compare {
		return nil, false, nil
	}

	// The sweep context may already be canceled; history I/O still runs.
	ioCtx := context.WithoutCancel(ctx)
	store, err := a.openStore(ioCtx)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	if f.compare {
		prev, err = store.Latest(ioCtx, result.Group, result.Option)
		if errors.Is(err, storage.ErrNotFound) {
			prev, err = nil, nil
		}
		if err != nil {
			return nil, false, err
		}
	}

	if save {
		if err := store.Save(ioCtx, result); err != nil {
			return nil, false, fmt.Errorf("failed to save sweep: %w", err)
		}
	}
	return prev, save, nil
}

// serveMetrics exposes reg on addr under /metrics until the returned stop
// function is called.
func serveMetrics(app *App, addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", runner.Handler(reg))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	app.Logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}
