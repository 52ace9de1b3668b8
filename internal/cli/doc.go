// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the opbench command line.
//
// Without a subcommand opbench starts the dashboard when stdout is a
// terminal and lists the run groups otherwise. Every other command works on
// the same run group catalogue, runner configuration and sweep history.
//
// # Key Types
//
//   - App: output writers, loaded config, logger and theme of one invocation
//   - JSONResponse: envelope printed by commands run with --json
//   - ValidationError: bad user input, mapped to ExitUsageError
//
// # Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	os.Exit(cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr))
//
// # Commands Overview
//
//   - list: show the run groups
//   - run: sweep one group and print, export or save the result
//   - validate: check the run group definitions
//   - history: list, show, compare and delete saved sweeps
//   - export, report: write or render a saved sweep
//   - config: show, locate, initialize and edit the config file
//   - dashboard: interactive sweep dashboard
//   - serve: HTTP results API with Prometheus metrics
//   - info: CPU, memory and GPU of the benchmark machine
//   - version: build information
package cli
