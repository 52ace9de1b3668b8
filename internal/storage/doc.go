// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists sweep results in a local SQLite database so runs
// can be listed, compared and exported later.
//
// The database uses the pure-Go modernc.org/sqlite driver in WAL mode with a
// single connection. A sweep is stored as one row in sweeps, one row per run
// in series, and one row per chart point in points.
//
// # Key Types
//
//   - Store: the open history database
//   - SweepMeta: summary row returned by List
//   - ListFilter: group filter and row limit for List
//
// # Usage
//
//	store, err := storage.Open(ctx, storage.DefaultPath())
//	defer store.Close()
//	if err := store.Save(ctx, result); err != nil { ... }
//	prev, err := store.Latest(ctx, result.Group, result.Option)
package storage
