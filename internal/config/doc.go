// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for opbench.
//
// Configuration file locations (in order of precedence):
//   - ~/.opbench/config.toml
//   - ~/.opbench/config.json
//   - Built-in defaults
//
// OPBENCH_* environment variables override file values.
//
// # Key Types
//
//   - Config: runner, storage, ui, logging and metrics sections
//   - ValidateErrors: every validation failure of a config
//
// # Usage
//
//	cfg, err := config.LoadFromPath(path)
//	r := runner.New(cfg.RunnerOptions())
//
// Reload on edit:
//
//	config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
