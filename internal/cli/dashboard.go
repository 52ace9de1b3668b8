// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/config"
	"github.com/jeranaias/opbench/internal/logging"
	"github.com/jeranaias/opbench/internal/runner"
	"github.com/jeranaias/opbench/internal/ui/dashboard"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Start the interactive dashboard",
		Long: `Starts the interactive dashboard: pick a group, cycle its options, run a
sweep and watch every run's curve grow. The config file is watched and
runner settings apply to the next sweep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), app)
		},
	}
}

func runDashboard(ctx context.Context, app *App) error {
	cfg := app.Config
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The dashboard owns the terminal; logs go to logging.file or nowhere.
	logger := app.Logger
	if cfg.Logging.File == "" {
		logger = logging.Discard()
	}
	ctx = logging.WithLogger(ctx, logger)

	groups := app.NewGroups(cfg)
	problems := benchmark.ValidateGroups(groups)
	if problems != nil {
		logger.Warn("run group definitions have problems", "error", problems)
	}

	var store dashboard.Saver
	st, err := app.openStore(ctx)
	if err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		defer st.Close()
		store = st
	}

	model := dashboard.New(ctx, dashboard.Config{
		Groups:      groups,
		Runner:      newRunner(cfg, logger),
		Store:       store,
		AutoSave:    cfg.Storage.AutoSave,
		Theme:       app.Theme,
		ChartHeight: cfg.UI.ChartHeight,
		Logger:      logger,
		Problems:    problems,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(app.Out),
	)

	if _, err := os.Stat(app.ConfigPath); err == nil {
		go watchConfig(ctx, app.ConfigPath, logger, p)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// watchConfig forwards config file changes to the dashboard.
func watchConfig(ctx context.Context, path string, logger *slog.Logger, p *tea.Program) {
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		config.SetGlobal(cfg)
		logger.Info("config reloaded", "path", path)
		p.Send(dashboard.ReloadMsg{
			Runner:   newRunner(cfg, logger),
			AutoSave: cfg.Storage.AutoSave,
		})
	})
	if err != nil {
		logger.Warn("config watch stopped", "error", err)
	}
}

func newRunner(cfg *config.Config, logger *slog.Logger) *runner.Runner {
	return runner.New(cfg.RunnerOptions(), runner.WithLogger(logger))
}
