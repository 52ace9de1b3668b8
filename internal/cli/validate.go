// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/ui/styles"
)

func newValidateCmd(app *App) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the run group definitions",
		Long: `Checks every run group for sweep bounds, runs, and alignment of options,
selected option and parameter records, and rejects duplicate names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := app.NewGroups(app.Config)
			err := benchmark.ValidateGroups(groups)

			if jsonMode {
				data := ValidateData{Groups: len(groups), Valid: err == nil}
				var verrs benchmark.ValidateErrors
				if errors.As(err, &verrs) {
					for _, ve := range verrs {
						data.Errors = append(data.Errors, ve.Error())
					}
				}
				if perr := NewJSONResponse("validate", data).Print(app.Out); perr != nil {
					return perr
				}
				return invalidGroups(err)
			}

			if err == nil {
				app.printf("%s %d run groups valid\n", app.Theme.StatusOK.Render(styles.StatusIndicators.Success), len(groups))
				return nil
			}
			var verrs benchmark.ValidateErrors
			if errors.As(err, &verrs) {
				for _, ve := range verrs {
					app.printf("%s %s\n", app.Theme.StatusError.Render(styles.StatusIndicators.Error), ve.Error())
				}
			}
			return invalidGroups(err)
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	return cmd
}

// invalidGroups condenses a ValidateErrors list that was already printed.
func invalidGroups(err error) error {
	var verrs benchmark.ValidateErrors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%w: %d problem(s)", ErrInvalidGroups, len(verrs))
	}
	return err
}
