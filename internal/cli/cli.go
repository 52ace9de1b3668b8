// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/config"
	"github.com/jeranaias/opbench/internal/logging"
	"github.com/jeranaias/opbench/internal/opbench"
	"github.com/jeranaias/opbench/internal/tensor"
	"github.com/jeranaias/opbench/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP
// =============================================================================

// App holds the state shared by the commands of one invocation.
type App struct {
	Out io.Writer
	Err io.Writer

	// NewGroups builds the run group catalogue for cfg.
	NewGroups func(cfg *config.Config) []benchmark.RunGroup
	// IsTerminal reports whether the root command may start the dashboard.
	IsTerminal func() bool

	// Populated before any command runs.
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Theme      *styles.Theme

	flags     globalFlags
	logCloser io.Closer
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

// NewApp creates an App with the default catalogue and TTY detection.
func NewApp(out, errOut io.Writer) *App {
	return &App{
		Out:        out,
		Err:        errOut,
		NewGroups:  DefaultGroups,
		IsTerminal: IsStdoutTTY,
	}
}

// DefaultGroups builds the benchmark catalogue with the configured GPU
// parallelism.
func DefaultGroups(cfg *config.Config) []benchmark.RunGroup {
	return opbench.BuildRunGroups(opbench.Backends{
		CPU: tensor.CPU(),
		GPU: tensor.GPU(cfg.Runner.Workers),
	})
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return NewApp(stdout, stderr).Execute(ctx, args)
}

// Execute runs args against a fresh command tree.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := NewRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.Close()

	if err != nil {
		DisplayError(a.Err, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// Close releases the log file, if one was opened.
func (a *App) Close() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the opbench command tree bound to app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "opbench",
		Short: "Sweep tensor operation benchmarks across input sizes",
		Long: `opbench measures tensor operations (matrix multiply, convolutions,
pooling, unary ops, reductions, batch normalization) over a range of input
sizes on a sequential CPU backend and a data-parallel GPU-style backend.

Without a subcommand it starts the dashboard when stdout is a terminal and
lists the run groups otherwise.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsTerminal() {
				return runDashboard(cmd.Context(), app)
			}
			return runList(app, false)
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default ~/.opbench/config.toml)")
	pf.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&app.flags.logFormat, "log-format", "", "log format: text, json")
	pf.BoolVar(&app.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newListCmd(app),
		newRunCmd(app),
		newValidateCmd(app),
		newHistoryCmd(app),
		newExportCmd(app),
		newReportCmd(app),
		newConfigCmd(app),
		newDashboardCmd(app),
		newServeCmd(app),
		newInfoCmd(app),
		newVersionCmd(app),
	)
	return root
}

// setup loads the config and builds the logger and theme.
func (a *App) setup() error {
	path, err := a.resolveConfigPath()
	if err != nil {
		return err
	}
	a.ConfigPath = path

	var cfg *config.Config
	if a.flags.configPath != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &ConfigError{Err: err}
	}

	if a.flags.logLevel != "" {
		cfg.Logging.Level = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		cfg.Logging.Format = a.flags.logFormat
	}
	if a.flags.noColor {
		cfg.UI.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: fmt.Errorf("invalid flags: %w", err)}
	}

	a.Config = cfg
	config.SetGlobal(cfg)

	a.Theme = styles.NewTheme(cfg.UI.Theme, cfg.UI.NoColor || !SupportsColor(a.Out))
	a.Theme.Apply()

	if cfg.Logging.File != "" {
		logger, closer, err := logging.OpenFile(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return &ConfigError{Err: err}
		}
		a.Logger = logger
		a.logCloser = closer
	} else {
		a.Logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, a.Err)
	}
	return nil
}

// resolveConfigPath returns the file the config was or would be loaded from.
func (a *App) resolveConfigPath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := config.ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return jsonPath, nil
		}
	}
	return tomlPath, nil
}

// group builds the catalogue and resolves key against it.
func (a *App) group(key string) (*benchmark.RunGroup, error) {
	return benchmark.FindGroup(a.NewGroups(a.Config), key)
}

// printf writes to the command output.
func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}
