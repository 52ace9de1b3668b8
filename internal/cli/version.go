// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(app *App) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			if jsonMode {
				return NewJSONResponse("version", data).Print(app.Out)
			}
			app.printf("opbench %s\n", data.Version)
			app.printf("  commit: %s\n", data.GitCommit)
			app.printf("  built:  %s\n", data.BuildDate)
			app.printf("  go:     %s\n", data.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	return cmd
}
