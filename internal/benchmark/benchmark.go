// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"errors"
	"time"
)

// ErrTrialTimeout is returned when a trial runs past Trial.Timeout.
var ErrTrialTimeout = errors.New("trial timed out")

// =============================================================================
// TEST CAPABILITY
// =============================================================================

// Trial is the input of a single timed benchmark execution.
type Trial struct {
	// Size is the input size derived from the sweep step.
	Size int
	// Option is the selected variant (op name, conv type). Empty when the
	// group declares no options.
	Option string
	// Params is the parameter record registered for Option, if any.
	Params any
	// Timeout bounds the timed section of the trial. Zero disables it.
	Timeout time.Duration
}

// Bound derives the context for the timed section of the trial. Input
// setup happens before Bound so it does not count against Timeout.
func (t Trial) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.Timeout)
}

// Test is implemented by every benchmark, regardless of the operation or
// backend it measures. Run executes one trial and returns the elapsed time.
type Test interface {
	Run(ctx context.Context, trial Trial) (time.Duration, error)
}

// TestFunc adapts an ordinary function to the Test interface.
type TestFunc func(ctx context.Context, trial Trial) (time.Duration, error)

// Run calls f(ctx, trial).
func (f TestFunc) Run(ctx context.Context, trial Trial) (time.Duration, error) {
	return f(ctx, trial)
}

// =============================================================================
// RUN
// =============================================================================

// ChartDataPoint is one sample of a run's performance curve.
type ChartDataPoint struct {
	Step    int           `json:"step" yaml:"step"`
	Size    int           `json:"size" yaml:"size"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the trial behind this point returned an error.
func (p ChartDataPoint) Failed() bool {
	return p.Error != ""
}

// Millis returns the elapsed time in fractional milliseconds.
func (p ChartDataPoint) Millis() float64 {
	return float64(p.Elapsed) / float64(time.Millisecond)
}

// Run binds a named Test to a RunGroup. The Test is shared and not owned;
// ChartData is filled by whoever drives the sweep.
type Run struct {
	Name      string
	Test      Test
	ChartData []ChartDataPoint
}

// NewRun creates a run with an empty chart series.
func NewRun(name string, test Test) *Run {
	return &Run{
		Name:      name,
		Test:      test,
		ChartData: []ChartDataPoint{},
	}
}

// ClearChartData discards every accumulated point. Safe to call repeatedly.
func (r *Run) ClearChartData() {
	r.ChartData = []ChartDataPoint{}
}
