// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/runner"
)

// progressMsg carries one measured point of sweep seq.
type progressMsg struct {
	seq      int
	progress runner.Progress
}

// sweepDoneMsg ends sweep seq.
type sweepDoneMsg struct {
	seq    int
	result *benchmark.SweepResult
	err    error
}

// savedMsg reports the outcome of storing a sweep in the history.
type savedMsg struct {
	id  string
	err error
}

// ReloadMsg replaces the runner and auto-save setting after the config file
// changed. A sweep in progress keeps the runner it started with.
type ReloadMsg struct {
	Runner   *runner.Runner
	AutoSave bool
}
