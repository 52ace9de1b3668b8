// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jeranaias/opbench/internal/benchmark"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sweeps to Markdown format.
type MarkdownExporter struct {
	options *Options
	printer *message.Printer
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{
		options: opts,
		printer: message.NewPrinter(language.English),
	}
}

// Export converts a sweep to Markdown.
func (e *MarkdownExporter) Export(result *benchmark.SweepResult) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("group: %s\n", escapeYAML(result.Group)))
		if result.Option != "" {
			sb.WriteString(fmt.Sprintf("option: %s\n", escapeYAML(result.Option)))
		}
		if result.ID != "" {
			sb.WriteString(fmt.Sprintf("sweep_id: %s\n", result.ID))
		}
		if !result.StartedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("started: %s\n", result.StartedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("duration: %s\n", result.Duration().Round(time.Millisecond)))
		sb.WriteString("generator: opbench\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(result.Group)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Sweep Information\n\n")
		if result.Option != "" {
			sb.WriteString(fmt.Sprintf("- **Option**: `%s`\n", result.Option))
		}
		if params := formatParams(result.Params); params != "" {
			sb.WriteString(fmt.Sprintf("- **Params**: `%s`\n", params))
		}
		sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(result.StartedAt)))
		sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", benchmark.FormatDuration(result.Duration())))
		sb.WriteString(fmt.Sprintf("- **Points**: %s\n", e.printer.Sprintf("%d", result.PointCount())))
		sb.WriteString(fmt.Sprintf("- **Status**: %s\n", status(result)))
		sb.WriteString("\n")
	}

	sb.WriteString(e.resultsTable(result))
	sb.WriteString(e.summaryTable(result))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// TABLES
// =============================================================================

func (e *MarkdownExporter) resultsTable(result *benchmark.SweepResult) string {
	t := buildTable(result)
	if len(t.runs) == 0 {
		return "_No data points recorded._\n\n"
	}

	var sb strings.Builder
	sb.WriteString("## Results (ms)\n\n")
	sb.WriteString("| Size |")
	for _, run := range t.runs {
		sb.WriteString(fmt.Sprintf(" %s |", escapeCell(run)))
	}
	sb.WriteString("\n|---:|")
	sb.WriteString(strings.Repeat("---:|", len(t.runs)))
	sb.WriteString("\n")

	for i, size := range t.sizes {
		sb.WriteString(fmt.Sprintf("| %s |", e.printer.Sprintf("%d", size)))
		for _, c := range t.cells[i] {
			switch {
			case !c.ok:
				sb.WriteString(" - |")
			case c.point.Failed():
				sb.WriteString(" error |")
			default:
				sb.WriteString(fmt.Sprintf(" %s |", e.printer.Sprintf("%.3f", c.point.Millis())))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (e *MarkdownExporter) summaryTable(result *benchmark.SweepResult) string {
	summaries := result.Summarize()
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Run | Points | Failures | Min | Mean | Max | Largest size |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s | %s | %s |\n",
			escapeCell(s.Run),
			s.Points,
			s.Failures,
			benchmark.FormatDuration(s.Min),
			benchmark.FormatDuration(s.Mean),
			benchmark.FormatDuration(s.Max),
			e.printer.Sprintf("%d", s.LargestSize),
		))
	}
	sb.WriteString("\n")
	return sb.String()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatParams renders a parameter record as compact JSON.
func formatParams(params any) string {
	if params == nil {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil || string(data) == "null" {
		return ""
	}
	return string(data)
}

// escapeCell escapes characters that would split a table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// escapeMarkdown escapes special markdown characters in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
