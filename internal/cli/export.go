// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/export"
	"github.com/jeranaias/opbench/internal/storage"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		format string
		outDir string
		theme  string
		open   bool
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export <sweep-id>",
		Short: "Export a saved sweep to a file",
		Long: `Writes a saved sweep as JSON, YAML, CSV, Markdown or HTML. Use "latest"
to export the newest saved sweep.`,
		Example: `  opbench export 3f2a --format md
  opbench export latest --format html --out reports --open
  opbench export 3f2a --format csv --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			opts.OpenAfterExport = open
			opts.Theme = theme

			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return ErrUnsupportedFormat(format, export.Formats())
			}

			result, err := app.loadSweep(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if stdout {
				data, err := exporter.Export(result)
				if err != nil {
					return err
				}
				_, err = app.Out.Write(data)
				return err
			}

			path, err := export.ExportToFile(result, exporter, opts)
			if err != nil {
				return err
			}
			app.printf("exported %s to %s\n", shortID(result.ID), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "export format: "+strings.Join(export.Formats(), ", "))
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringVar(&theme, "theme", "dark", "HTML theme: dark, light")
	cmd.Flags().BoolVar(&open, "open", false, "open the file after exporting")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to stdout instead of a file")
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	var (
		style string
		width int
	)
	cmd := &cobra.Command{
		Use:   "report <sweep-id>",
		Short: "Render a saved sweep as a terminal report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.loadSweep(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			md, err := export.NewMarkdownExporter(export.DefaultOptions()).Export(result)
			if err != nil {
				return err
			}

			if style == "" {
				style = app.reportStyle()
			}
			if width <= 0 {
				width = GetTerminalWidth(app.Out)
			}
			out, err := export.RenderTerminal(md, width, style)
			if err != nil {
				return err
			}
			app.printf("%s", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style: dark, light, notty (default: from theme)")
	cmd.Flags().IntVar(&width, "width", 0, "wrap width (default: terminal width)")
	return cmd
}

// reportStyle picks the glamour style matching the active theme.
func (a *App) reportStyle() string {
	switch {
	case a.Config.UI.NoColor || !SupportsColor(a.Out):
		return "notty"
	case a.Theme.IsDark:
		return "dark"
	default:
		return "light"
	}
}

// loadSweep resolves id, or "latest", from the history.
func (a *App) loadSweep(ctx context.Context, id string) (*benchmark.SweepResult, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if id == "latest" {
		metas, err := store.List(ctx, storage.ListFilter{Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(metas) == 0 {
			return nil, fmt.Errorf("%w: history is empty", storage.ErrNotFound)
		}
		id = metas[0].ID
	}
	return resolveSweep(ctx, store, id)
}
