// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrNilResult     = errors.New("sweep result is nil")
)

// Exporter converts a sweep result into one output format.
type Exporter interface {
	// Export returns the encoded result.
	Export(result *benchmark.SweepResult) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the encoding.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ExportToFile writes. Default: current directory.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata adds sweep metadata to Markdown and HTML output.
	IncludeMetadata bool

	// Theme for HTML export ("light" or "dark"). Default: "dark".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		Theme:           "dark",
	}
}

// =============================================================================
// FORMAT REGISTRY
// =============================================================================

var formatAliases = map[string]string{
	"json":     "json",
	"csv":      "csv",
	"md":       "markdown",
	"markdown": "markdown",
	"yaml":     "yaml",
	"yml":      "yaml",
	"html":     "html",
}

// Formats lists the accepted format names.
func Formats() []string {
	names := make([]string, 0, len(formatAliases))
	for name := range formatAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the exporter registered under name.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch formatAliases[strings.ToLower(strings.TrimSpace(name))] {
	case "json":
		return NewJSONExporter(opts), nil
	case "csv":
		return NewCSVExporter(opts), nil
	case "markdown":
		return NewMarkdownExporter(opts), nil
	case "yaml":
		return NewYAMLExporter(opts), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile encodes result with exporter and writes it atomically to
// OutputDir. It returns the written path.
func ExportToFile(result *benchmark.SweepResult, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if result == nil {
		return "", ErrNilResult
	}

	content, err := exporter.Export(result)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	started := result.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	filename := fmt.Sprintf("opbench_%s_%s%s",
		sanitizeFilename(result.Group),
		started.Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not open file: %v\n", err)
		}
	}

	return outputPath, nil
}

// =============================================================================
// TABLE LAYOUT
// =============================================================================

// table is the size-by-run grid every tabular format renders.
type table struct {
	runs  []string
	sizes []int
	// cells[i][j] is the point of runs[j] at sizes[i]; ok is false when the
	// run has no point at that size.
	cells [][]cell
}

type cell struct {
	point benchmark.ChartDataPoint
	ok    bool
}

func buildTable(result *benchmark.SweepResult) table {
	t := table{sizes: result.Sizes()}
	for _, s := range result.Series {
		t.runs = append(t.runs, s.Run)
	}
	for _, size := range t.sizes {
		row := make([]cell, len(result.Series))
		for j := range result.Series {
			if p, ok := result.Series[j].At(size); ok {
				row[j] = cell{point: p, ok: true}
			}
		}
		t.cells = append(t.cells, row)
	}
	return t
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename keeps the group name up to its shape description and
// replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	if i := strings.IndexAny(s, ":["); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = util.TruncateRunesNoEllipsis(s, 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		'(':  '-',
		')':  '-',
		',':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "sweep"
	}
	return strings.ToLower(string(result))
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// status describes how a sweep ended.
func status(result *benchmark.SweepResult) string {
	switch {
	case result.Canceled:
		return "canceled"
	case result.FailureCount() > 0:
		return "completed with failures"
	default:
		return "completed"
	}
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
