// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders sweep results to files and terminal reports.
//
// Every format shares the same table layout: one row per input size and one
// column per run, with elapsed times in milliseconds.
//
// # Key Types
//
//   - Exporter: converts a SweepResult into bytes of one format
//   - Options: output directory, metadata and theme settings
//
// # Supported Formats
//
//   - JSON: the full SweepResult
//   - CSV: size column plus one column per run
//   - Markdown: metadata, result table and per-run summary
//   - YAML: the full SweepResult
//   - HTML: styled standalone page for browsers
//
// # Usage
//
//	exporter, err := export.ForFormat("md", export.DefaultOptions())
//	path, err := export.ExportToFile(result, exporter, opts)
//
// Render a report in the terminal:
//
//	md, _ := export.NewMarkdownExporter(nil).Export(result)
//	out, err := export.RenderTerminal(md, 100, "dark")
package export
