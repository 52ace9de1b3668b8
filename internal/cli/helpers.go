// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/storage"
	"github.com/jeranaias/opbench/internal/ui/components"
)

// storePath returns the configured history database path.
func (a *App) storePath() string {
	if a.Config.Storage.Path != "" {
		return a.Config.Storage.Path
	}
	return storage.DefaultPath()
}

// openStore opens the sweep history.
func (a *App) openStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.Open(ctx, a.storePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// resolveSweep loads the sweep whose ID is id or starts with id.
func resolveSweep(ctx context.Context, store *storage.Store, id string) (*benchmark.SweepResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "sweep id", Reason: "must not be empty"}
	}

	result, err := store.Get(ctx, id)
	if err == nil || !errors.Is(err, storage.ErrNotFound) {
		return result, err
	}

	metas, err := store.List(ctx, storage.ListFilter{})
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, id) {
			matches = append(matches, m.ID)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", storage.ErrNotFound, id)
	case 1:
		return store.Get(ctx, matches[0])
	default:
		return nil, &ValidationError{
			Field:  "sweep id",
			Value:  id,
			Reason: fmt.Sprintf("prefix matches %d sweeps", len(matches)),
		}
	}
}

// previousSweep returns the completed sweep of the same group and option
// that started before result, or nil.
func previousSweep(ctx context.Context, store *storage.Store, result *benchmark.SweepResult) (*benchmark.SweepResult, error) {
	metas, err := store.List(ctx, storage.ListFilter{Group: result.Group})
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		if m.ID == result.ID || m.Canceled || m.Option != result.Option {
			continue
		}
		if m.StartedAt.Before(result.StartedAt) {
			return store.Get(ctx, m.ID)
		}
	}
	return nil, nil
}

// renderResult prints a sweep header, chart and summary.
func (a *App) renderResult(result *benchmark.SweepResult) {
	width := GetTerminalWidth(a.Out)

	view := components.NewSweepView(width, a.Theme)
	a.printf("%s\n", view.RenderHeader(result))

	chart := components.NewChart(width, a.Config.UI.ChartHeight, a.Theme)
	chart.SetResult(result)
	a.printf("%s\n\n", chart.View())

	a.printf("%s", view.RenderSummary(result))
}

// renderComparison prints the deltas between prev and curr and returns
// ErrRegression when failOnRegression is set and any run slowed down by
// more than threshold percent.
func (a *App) renderComparison(prev, curr *benchmark.SweepResult, threshold float64, failOnRegression bool) error {
	cmps := benchmark.Compare(prev, curr)
	view := components.NewSweepView(GetTerminalWidth(a.Out), a.Theme)

	a.printf("\n%s\n", a.Theme.Title.Render(fmt.Sprintf("Compared with %s", shortID(prev.ID))))
	a.printf("%s", view.RenderComparison(cmps, threshold))

	if n := len(benchmark.Regressions(cmps, threshold)); failOnRegression && n > 0 {
		return fmt.Errorf("%w: %d point(s) above %s", ErrRegression, n, benchmark.FormatPercent(threshold))
	}
	return nil
}

// shortID returns the first eight characters of a sweep ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
