// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the opbench packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: truncation to a terminal column width
//   - PadRight, StringWidth: column-aware layout for terminal tables
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	cell := util.PadRight(util.TruncateWidth(runName, 16), 16)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
