// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jeranaias/opbench/internal/benchmark"
)

// CSVExporter writes one row per size with one millisecond column per run.
// Failed points are written as "error", missing points as empty cells.
type CSVExporter struct {
	options *Options
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(opts *Options) *CSVExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &CSVExporter{options: opts}
}

// Export converts a sweep to CSV.
func (e *CSVExporter) Export(result *benchmark.SweepResult) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}
	t := buildTable(result)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"size"}, t.runs...)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, size := range t.sizes {
		record := make([]string, 0, len(t.runs)+1)
		record = append(record, strconv.Itoa(size))
		for _, c := range t.cells[i] {
			switch {
			case !c.ok:
				record = append(record, "")
			case c.point.Failed():
				record = append(record, "error")
			default:
				record = append(record, benchmark.FormatMillis(c.point.Elapsed))
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for CSV.
func (e *CSVExporter) FileExtension() string {
	return ".csv"
}

// MimeType returns the MIME type for CSV.
func (e *CSVExporter) MimeType() string {
	return "text/csv"
}
