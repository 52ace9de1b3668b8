// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// RenderTerminal renders Markdown for display in a terminal of the given
// width. style is a glamour standard style name ("dark", "light", "notty");
// empty selects "dark".
func RenderTerminal(markdown []byte, width int, style string) (string, error) {
	if style == "" {
		style = "dark"
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.RenderBytes(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return string(out), nil
}
