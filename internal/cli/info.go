// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/detect"
)

// detectHost is replaced in tests.
var detectHost = detect.DetectHostCached

func newInfoCmd(app *App) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the CPU, memory and GPU of this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := detectHost(cmd.Context())
			if jsonMode {
				return NewJSONResponse("info", host).Print(app.Out)
			}
			cpu := host.CPUModel
			if cpu == "" {
				cpu = "unknown"
			}
			app.printf("%s\n", app.Theme.Title.Render("Host"))
			app.printf("  os:     %s/%s\n", host.OS, host.Arch)
			app.printf("  cpu:    %s (%d threads)\n", cpu, host.CPUs)
			if host.MemoryGB > 0 {
				app.printf("  memory: %dGB\n", host.MemoryGB)
			}
			app.printf("  gpu:    %s\n", host.GPU.String())
			app.printf("  go:     %s\n", host.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	return cmd
}
