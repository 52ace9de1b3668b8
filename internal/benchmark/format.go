// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"time"
)

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatDuration formats a trial time with a unit suited to its magnitude.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0ms"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// FormatMillis formats d as fractional milliseconds without a unit.
func FormatMillis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}

// FormatSize formats an input size for axis labels (1024 -> "1k").
func FormatSize(size int) string {
	if size >= 1000 && size%1024 == 0 {
		return fmt.Sprintf("%dk", size/1024)
	}
	if size >= 10000 {
		return fmt.Sprintf("%.1fk", float64(size)/1000)
	}
	return fmt.Sprintf("%d", size)
}

// FormatPercent formats a signed percentage change.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}
