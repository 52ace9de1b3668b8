// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/opbench/internal/benchmark"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the complete SweepResult as indented JSON. Options do
// not filter JSON output.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a sweep to JSON.
func (e *JSONExporter) Export(result *benchmark.SweepResult) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}
	return json.MarshalIndent(result, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
