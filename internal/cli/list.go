// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
)

func newListCmd(app *App) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the run groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(app, jsonMode)
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	return cmd
}

func runList(app *App, jsonMode bool) error {
	groups := app.NewGroups(app.Config)

	if jsonMode {
		return OutputJSON(app.Out, "list", func() (interface{}, error) {
			infos := make([]GroupInfo, len(groups))
			for i := range groups {
				infos[i] = groupInfo(i+1, &groups[i])
			}
			return infos, nil
		})
	}

	if len(groups) == 0 {
		app.printf("No run groups defined.\n")
		return nil
	}
	for i := range groups {
		g := &groups[i]
		info := groupInfo(i+1, g)
		app.printf("%s %s\n", app.Theme.Muted.Render(fmt.Sprintf("%2d.", info.Index)), app.Theme.Title.Render(g.Name))
		app.printf("    %s\n", app.Theme.Subtitle.Render(fmt.Sprintf("slug %s  steps %d  sizes %s..%s",
			info.Slug, info.Steps, benchmark.FormatSize(info.MinSize), benchmark.FormatSize(info.MaxSize))))
		if g.HasOptions() {
			app.printf("    %s\n", app.Theme.Muted.Render(fmt.Sprintf("options %s (selected %s)",
				strings.Join(g.Options, ", "), g.SelectedOption)))
		}
		app.printf("    %s\n", app.Theme.Muted.Render("runs "+strings.Join(info.Runs, ", ")))
	}
	return nil
}

func groupInfo(index int, g *benchmark.RunGroup) GroupInfo {
	return GroupInfo{
		Index:          index,
		Slug:           g.Slug(),
		Name:           g.Name,
		Min:            g.Min,
		Max:            g.Max,
		StepSize:       g.StepSize,
		Steps:          len(g.Steps()),
		MinSize:        g.Size(g.Min),
		MaxSize:        g.Size(g.Max),
		Options:        g.Options,
		SelectedOption: g.SelectedOption,
		Params:         g.SelectedParams(),
		Runs:           g.RunNames(),
	}
}
