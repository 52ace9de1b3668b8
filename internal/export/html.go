// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sweeps to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Theme != "light" && opts.Theme != "dark" {
		opts.Theme = "dark"
	}
	return &HTMLExporter{options: opts}
}

// Export converts a sweep to HTML.
func (e *HTMLExporter) Export(result *benchmark.SweepResult) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(result.Group)))
	sb.WriteString("    <meta name=\"generator\" content=\"opbench\">\n")
	if !result.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", result.StartedAt.Format(time.RFC3339)))
	}
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(result))
	} else {
		sb.WriteString(fmt.Sprintf("        <header class=\"header\"><h1>%s</h1></header>\n", html.EscapeString(result.Group)))
	}

	sb.WriteString("        <main>\n")
	sb.WriteString(e.renderResults(result))
	sb.WriteString(e.renderSummary(result))
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>opbench</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(result *benchmark.SweepResult) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(result.Group)))
	sb.WriteString("            <div class=\"metadata\">\n")
	if result.Option != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Option:</strong> %s</span>\n", html.EscapeString(result.Option)))
	}
	if params := formatParams(result.Params); params != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Params:</strong> <code>%s</code></span>\n", html.EscapeString(params)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Started:</strong> %s</span>\n", formatTimestamp(result.StartedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Duration:</strong> %s</span>\n", benchmark.FormatDuration(result.Duration())))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Status:</strong> %s</span>\n", status(result)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderResults(result *benchmark.SweepResult) string {
	t := buildTable(result)
	if len(t.runs) == 0 {
		return "            <p class=\"empty\">No data points recorded.</p>\n"
	}

	var sb strings.Builder
	sb.WriteString("            <h2>Results (ms)</h2>\n")
	sb.WriteString("            <table class=\"results\">\n")
	sb.WriteString("                <thead><tr><th>Size</th>")
	for _, run := range t.runs {
		sb.WriteString(fmt.Sprintf("<th>%s</th>", html.EscapeString(run)))
	}
	sb.WriteString("</tr></thead>\n")
	sb.WriteString("                <tbody>\n")
	for i, size := range t.sizes {
		sb.WriteString(fmt.Sprintf("                    <tr><td>%d</td>", size))
		for _, c := range t.cells[i] {
			switch {
			case !c.ok:
				sb.WriteString("<td class=\"missing\">-</td>")
			case c.point.Failed():
				sb.WriteString(fmt.Sprintf("<td class=\"error\" title=\"%s\">error</td>", html.EscapeString(c.point.Error)))
			default:
				sb.WriteString(fmt.Sprintf("<td>%s</td>", benchmark.FormatMillis(c.point.Elapsed)))
			}
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("                </tbody>\n")
	sb.WriteString("            </table>\n")
	return sb.String()
}

func (e *HTMLExporter) renderSummary(result *benchmark.SweepResult) string {
	summaries := result.Summarize()
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("            <h2>Summary</h2>\n")
	sb.WriteString("            <table class=\"summary\">\n")
	sb.WriteString("                <thead><tr><th>Run</th><th>Points</th><th>Failures</th><th>Min</th><th>Mean</th><th>Max</th><th>Largest size</th></tr></thead>\n")
	sb.WriteString("                <tbody>\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("                    <tr><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>\n",
			html.EscapeString(s.Run),
			s.Points,
			s.Failures,
			benchmark.FormatDuration(s.Min),
			benchmark.FormatDuration(s.Mean),
			benchmark.FormatDuration(s.Max),
			s.LargestSize,
		))
	}
	sb.WriteString("                </tbody>\n")
	sb.WriteString("            </table>\n")
	return sb.String()
}

// getCSS returns the embedded stylesheet for both themes.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        /* Dark theme (default) */
        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent-blue: #7aa2f7;
            --accent-red: #f7768e;
        }

        /* Light theme */
        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --accent-blue: #0366d6;
            --accent-red: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 32px;
            background: var(--bg-tertiary);
            border-bottom: 2px solid var(--border-color);
        }

        .header h1 {
            font-size: 24px;
            margin-bottom: 12px;
        }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--text-secondary);
        }

        main {
            padding: 24px 32px;
        }

        h2 {
            font-size: 18px;
            margin: 16px 0 8px;
            color: var(--accent-blue);
        }

        table {
            width: 100%;
            border-collapse: collapse;
            font-family: var(--font-mono);
            font-size: 13px;
        }

        th, td {
            padding: 6px 10px;
            border-bottom: 1px solid var(--border-color);
            text-align: right;
        }

        th:first-child, td:first-child {
            text-align: left;
        }

        td.error {
            color: var(--accent-red);
        }

        td.missing, .empty {
            color: var(--text-muted);
        }

        code {
            font-family: var(--font-mono);
        }

        .footer {
            padding: 16px 32px;
            font-size: 12px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
        }
    </style>
`
}
