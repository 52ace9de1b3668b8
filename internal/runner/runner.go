// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/logging"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrSweepInProgress = errors.New("a sweep is already running")
	ErrNoRuns          = errors.New("run group has no runs")
	ErrNoSteps         = errors.New("run group has no steps")
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how each step is measured.
type Options struct {
	// Warmup trials run before timing and are discarded.
	Warmup int
	// Trials are timed; their mean becomes the chart point. Values below 1
	// mean 1.
	Trials int
	// TrialTimeout bounds the timed section of a single trial. Input setup
	// is not counted. Zero disables it.
	TrialTimeout time.Duration
	// MaxTrialDuration ends a run's sweep once a point is slower. Zero
	// disables it.
	MaxTrialDuration time.Duration
	// MaxTrialsPerSecond paces trials. Zero means unlimited.
	MaxTrialsPerSecond float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Warmup:           1,
		Trials:           3,
		TrialTimeout:     30 * time.Second,
		MaxTrialDuration: 10 * time.Second,
	}
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Without it the runner logs to the logger
// carried by the sweep context.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithRegisterer registers the runner metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runner) { r.metrics = NewMetrics(reg) }
}

// WithMetrics shares an existing metrics set between runners.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// =============================================================================
// PROGRESS
// =============================================================================

// Progress reports one chart point as soon as it is measured.
type Progress struct {
	SweepID string
	Group   string
	Option  string
	Run     string
	// RunIndex is the position of Run in the group.
	RunIndex int
	Point    benchmark.ChartDataPoint
	// Done counts finished (step, run) pairs, including skipped ones.
	Done  int
	Total int
}

// Fraction returns the completed share of the sweep in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// ProgressFunc receives progress on the sweeping goroutine.
type ProgressFunc func(Progress)

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes sweeps. Trials run sequentially so timings do not
// interfere; a Runner executes one sweep at a time.
type Runner struct {
	opts    Options
	logger  *slog.Logger
	metrics *Metrics
	limiter *rate.Limiter
	now     func() time.Time

	mu sync.Mutex
}

// New creates a runner.
func New(opts Options, options ...Option) *Runner {
	if opts.Trials < 1 {
		opts.Trials = 1
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}
	r := &Runner{opts: opts, now: time.Now}
	for _, o := range options {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	if opts.MaxTrialsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.MaxTrialsPerSecond), 1)
	}
	return r
}

// Options returns the effective options.
func (r *Runner) Options() Options {
	return r.opts
}

// Sweep measures every run of group at every step using option. An empty
// option selects the group's SelectedOption.
func (r *Runner) Sweep(ctx context.Context, group *benchmark.RunGroup, option string, fn ProgressFunc) (*benchmark.SweepResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer r.mu.Unlock()

	option, err := group.ResolveOption(option)
	if err != nil {
		return nil, err
	}
	if len(group.Runs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRuns, group.Name)
	}
	steps := group.Steps()
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSteps, group.Name)
	}

	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger = logger.With("group", group.Slug(), "option", option)

	result := &benchmark.SweepResult{
		ID:        uuid.NewString(),
		Group:     group.Name,
		Option:    option,
		Params:    group.ParamsFor(option),
		StartedAt: r.now(),
		Series:    make([]benchmark.Series, len(group.Runs)),
	}
	for i, run := range group.Runs {
		result.Series[i] = benchmark.Series{Run: run.Name, Points: []benchmark.ChartDataPoint{}}
	}

	r.metrics.inFlight.Inc()
	defer r.metrics.inFlight.Dec()

	logger.Info("sweep started", "sweep_id", result.ID, "steps", len(steps), "runs", len(group.Runs))

	total := len(steps) * len(group.Runs)
	done := 0
	stopped := make([]bool, len(group.Runs))

sweep:
	for _, step := range steps {
		trial := benchmark.Trial{
			Size:    group.Size(step),
			Option:  option,
			Params:  result.Params,
			Timeout: r.opts.TrialTimeout,
		}
		for i, run := range group.Runs {
			if ctx.Err() != nil {
				break sweep
			}
			if stopped[i] {
				done++
				continue
			}

			elapsed, err := r.measure(ctx, group.Name, run, trial)
			if err != nil && ctx.Err() != nil {
				break sweep
			}

			point := benchmark.ChartDataPoint{Step: step, Size: trial.Size, Elapsed: elapsed}
			switch {
			case err != nil:
				point.Elapsed = 0
				point.Error = err.Error()
				stopped[i] = true
				r.metrics.trialFailures.WithLabelValues(group.Name, run.Name, option).Inc()
				logger.Warn("trial failed, skipping run", "run", run.Name, "size", trial.Size, "error", err)
			case r.opts.MaxTrialDuration > 0 && elapsed > r.opts.MaxTrialDuration:
				stopped[i] = true
				logger.Info("run exceeded max trial duration", "run", run.Name, "size", trial.Size, "elapsed", elapsed)
			default:
				logger.Debug("point measured", "run", run.Name, "size", trial.Size, "elapsed", elapsed)
			}

			result.Series[i].Points = append(result.Series[i].Points, point)
			done++
			if fn != nil {
				fn(Progress{
					SweepID:  result.ID,
					Group:    group.Name,
					Option:   option,
					Run:      run.Name,
					RunIndex: i,
					Point:    point,
					Done:     done,
					Total:    total,
				})
			}
		}
	}

	result.FinishedAt = r.now()
	if err := ctx.Err(); err != nil {
		result.Canceled = true
		r.metrics.sweeps.WithLabelValues(group.Name, "canceled").Inc()
		logger.Info("sweep canceled", "sweep_id", result.ID, "points", result.PointCount())
		return result, err
	}

	r.metrics.sweeps.WithLabelValues(group.Name, "completed").Inc()
	logger.Info("sweep finished", "sweep_id", result.ID, "points", result.PointCount(),
		"failures", result.FailureCount(), "duration", result.Duration())
	return result, nil
}

// measure runs the warmups and returns the mean of the timed trials.
func (r *Runner) measure(ctx context.Context, group string, run *benchmark.Run, trial benchmark.Trial) (time.Duration, error) {
	for i := 0; i < r.opts.Warmup; i++ {
		if _, err := r.runTrial(ctx, run.Test, trial); err != nil {
			return 0, err
		}
	}

	observer := r.metrics.trialDuration.WithLabelValues(group, run.Name, trial.Option)
	var total time.Duration
	for i := 0; i < r.opts.Trials; i++ {
		elapsed, err := r.runTrial(ctx, run.Test, trial)
		if err != nil {
			return 0, err
		}
		observer.Observe(elapsed.Seconds())
		total += elapsed
	}
	return total / time.Duration(r.opts.Trials), nil
}

func (r *Runner) runTrial(ctx context.Context, test benchmark.Test, trial benchmark.Trial) (time.Duration, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}
	elapsed, err := test.Run(ctx, trial)
	if err != nil {
		return 0, err
	}
	// Tests that ignore Trial.Timeout are held to it after the fact.
	if trial.Timeout > 0 && elapsed > trial.Timeout {
		return 0, fmt.Errorf("%w: took %s, limit %s", benchmark.ErrTrialTimeout, elapsed, trial.Timeout)
	}
	return elapsed, nil
}
