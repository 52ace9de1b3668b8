// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/opbench/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	var jsonMode bool
	show := func(cmd *cobra.Command, args []string) error {
		if jsonMode {
			return NewJSONResponse("config show", app.Config).Print(app.Out)
		}
		if err := toml.NewEncoder(app.Out).Encode(app.Config); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the configuration",
		Long: `Shows the effective configuration (file, environment and flags combined)
and edits the config file. Keys use dot notation, for example runner.trials.`,
		Args: cobra.NoArgs,
		RunE: show,
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	showCmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.printf("%s\n", app.ConfigPath)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(app.ConfigPath); err == nil && !force {
				return &ValidationError{
					Field:   "config file",
					Value:   app.ConfigPath,
					Reason:  "already exists",
					Example: "opbench config init --force",
				}
			}
			if err := saveConfigFile(config.Default(), app.ConfigPath); err != nil {
				return err
			}
			app.printf("wrote %s\n", app.ConfigPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := app.Config.Get(args[0])
			if err != nil {
				return &ValidationError{Field: "key", Value: args[0], Reason: err.Error()}
			}
			app.printf("%v\n", value)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigFile(app.ConfigPath)
			if err != nil {
				return &ConfigError{Err: err}
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return &ValidationError{Field: "key", Value: args[0], Reason: err.Error()}
			}
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return &ValidationError{Field: args[0], Value: args[1], Reason: err.Error()}
			}
			if err := saveConfigFile(cfg, app.ConfigPath); err != nil {
				return err
			}
			app.printf("%s = %s\n", args[0], args[1])
			return nil
		},
	}

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List the setting keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.printf("%s\n", strings.Join(config.GetAllKeys(), "\n"))
			return nil
		},
	}

	cmd.AddCommand(showCmd, pathCmd, initCmd, getCmd, setCmd, keysCmd)
	return cmd
}

// loadConfigFile reads path without environment overrides so that editing
// a setting never persists them. A missing file yields the defaults.
func loadConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		return cfg, config.LoadJSON(cfg, path)
	}
	return cfg, config.LoadTOML(cfg, path)
}

func saveConfigFile(cfg *config.Config, path string) error {
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
