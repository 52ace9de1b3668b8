// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the opbench results API.
//
// Endpoints:
//   - GET  /health              - Health check
//   - GET  /v1/groups           - List run groups
//   - GET  /v1/sweeps           - List saved sweeps (?group=, ?limit=)
//   - GET  /v1/sweeps/{id}      - Get a saved sweep (?format=csv|md|html|yaml|json)
//   - POST /v1/sweeps           - Run a sweep and optionally save it
//   - GET  /metrics             - Prometheus metrics of the runner
//
// Requests pass through recovery, security headers, logging, per-client
// rate limiting and optional bearer authentication.
//
// # Usage
//
//	srv := server.NewServer(server.Config{Addr: "127.0.0.1:8787"}, groups).
//	    WithHistory(store).
//	    WithRunner(r).
//	    WithGatherer(reg)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
