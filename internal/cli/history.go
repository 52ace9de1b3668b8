// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/storage"
	"github.com/jeranaias/opbench/internal/util"
)

func newHistoryCmd(app *App) *cobra.Command {
	var lf historyListFlags
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Inspect saved sweeps",
		Long: `Lists, shows, compares and deletes sweeps saved with "run --save" or the
dashboard. Sweep IDs may be abbreviated to any unique prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context(), app, lf)
		},
	}
	lf.register(cmd)

	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
		newHistoryCompareCmd(app),
		newHistoryDeleteCmd(app),
	)
	return cmd
}

// =============================================================================
// LIST
// =============================================================================

type historyListFlags struct {
	group    string
	limit    int
	jsonMode bool
}

func (f *historyListFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.group, "group", "g", "", "only sweeps of this group (index, slug or name prefix)")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "maximum sweeps to list (default: storage.history_limit)")
	cmd.Flags().BoolVar(&f.jsonMode, "json", false, "output JSON")
}

func newHistoryListCmd(app *App) *cobra.Command {
	var f historyListFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sweeps, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context(), app, f)
		},
	}
	f.register(cmd)
	return cmd
}

func runHistoryList(ctx context.Context, app *App, f historyListFlags) error {
	filter := storage.ListFilter{Limit: f.limit}
	if filter.Limit <= 0 {
		filter.Limit = app.Config.Storage.HistoryLimit
	}
	if f.group != "" {
		g, err := app.group(f.group)
		if err != nil {
			return err
		}
		filter.Group = g.Name
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.List(ctx, filter)
	if err != nil {
		return err
	}

	if f.jsonMode {
		return NewJSONResponse("history list", metas).Print(app.Out)
	}
	if len(metas) == 0 {
		app.printf("No saved sweeps.\n")
		return nil
	}

	header := fmt.Sprintf("%s  %s  %s  %s  %s",
		util.PadRight("ID", 8), util.PadRight("STARTED", 19), util.PadRight("GROUP", 28),
		util.PadRight("OPTION", 12), "POINTS")
	app.printf("%s\n", app.Theme.Muted.Render(header))
	for _, m := range metas {
		points := fmt.Sprintf("%d", m.Points)
		if m.Canceled {
			points += " (canceled)"
		}
		app.printf("%s  %s  %s  %s  %s\n",
			util.PadRight(shortID(m.ID), 8),
			m.StartedAt.Local().Format("2006-01-02 15:04:05"),
			util.PadRight(util.TruncateWidth(m.Group, 28), 28),
			util.PadRight(util.TruncateWidth(m.Option, 12), 12),
			points)
	}
	return nil
}

// =============================================================================
// SHOW
// =============================================================================

func newHistoryShowCmd(app *App) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "show <sweep-id>",
		Short: "Show a saved sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := resolveSweep(ctx, store, args[0])
			if err != nil {
				return err
			}
			if jsonMode {
				return NewJSONResponse("history show", result).Print(app.Out)
			}
			app.renderResult(result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	return cmd
}

// =============================================================================
// COMPARE
// =============================================================================

func newHistoryCompareCmd(app *App) *cobra.Command {
	var (
		threshold        float64
		failOnRegression bool
		jsonMode         bool
	)
	cmd := &cobra.Command{
		Use:   "compare <sweep-id> [<baseline-id>]",
		Short: "Compare a sweep with a baseline",
		Long: `Compares the per-size timings of a sweep with a baseline. Without a
baseline ID the previous completed sweep of the same group and option is used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			curr, err := resolveSweep(ctx, store, args[0])
			if err != nil {
				return err
			}
			var prev *benchmark.SweepResult
			if len(args) == 2 {
				prev, err = resolveSweep(ctx, store, args[1])
			} else {
				prev, err = previousSweep(ctx, store, curr)
				if err == nil && prev == nil {
					err = fmt.Errorf("%w: no earlier sweep of %q option %q", storage.ErrNotFound, curr.Group, curr.Option)
				}
			}
			if err != nil {
				return err
			}

			if jsonMode {
				cmps := benchmark.Compare(prev, curr)
				regs := benchmark.Regressions(cmps, threshold)
				data := CompareData{
					Previous:    prev.ID,
					Current:     curr.ID,
					Threshold:   threshold,
					Comparisons: cmps,
					Regressions: regs,
				}
				if err := NewJSONResponse("history compare", data).Print(app.Out); err != nil {
					return err
				}
				if failOnRegression && len(regs) > 0 {
					return fmt.Errorf("%w: %d point(s) above %s", ErrRegression, len(regs), benchmark.FormatPercent(threshold))
				}
				return nil
			}

			app.printf("%s", app.Theme.Title.Render(fmt.Sprintf("%s  %s", curr.Group, shortID(curr.ID))))
			return app.renderComparison(prev, curr, threshold, failOnRegression)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 10, "regression threshold in percent")
	cmd.Flags().BoolVar(&failOnRegression, "fail-on-regression", false, "exit non-zero on regressions")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	return cmd
}

// =============================================================================
// DELETE
// =============================================================================

func newHistoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <sweep-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete saved sweeps",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var errs []error
			for _, id := range args {
				result, err := resolveSweep(ctx, store, id)
				if err == nil {
					err = store.Delete(ctx, result.ID)
				}
				if err != nil {
					errs = append(errs, err)
					continue
				}
				app.printf("deleted sweep %s\n", result.ID)
			}
			return errors.Join(errs...)
		},
	}
}
