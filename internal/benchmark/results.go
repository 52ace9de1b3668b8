// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"sort"
	"time"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Series is the curve one run produced during a sweep.
type Series struct {
	Run    string           `json:"run" yaml:"run"`
	Points []ChartDataPoint `json:"points" yaml:"points"`
}

// SweepResult is the owned result of sweeping one group with one option.
type SweepResult struct {
	ID         string    `json:"id" yaml:"id"`
	Group      string    `json:"group" yaml:"group"`
	Option     string    `json:"option,omitempty" yaml:"option,omitempty"`
	Params     any       `json:"params,omitempty" yaml:"params,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Series     []Series  `json:"series" yaml:"series"`
	Canceled   bool      `json:"canceled,omitempty" yaml:"canceled,omitempty"`
}

// Duration returns the wall time of the sweep.
func (r *SweepResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SeriesFor returns the series of the named run, or nil.
func (r *SweepResult) SeriesFor(run string) *Series {
	for i := range r.Series {
		if r.Series[i].Run == run {
			return &r.Series[i]
		}
	}
	return nil
}

// Append records a point for run, creating its series on first use.
func (r *SweepResult) Append(run string, point ChartDataPoint) {
	if s := r.SeriesFor(run); s != nil {
		s.Points = append(s.Points, point)
		return
	}
	r.Series = append(r.Series, Series{Run: run, Points: []ChartDataPoint{point}})
}

// Sizes returns every distinct size sampled by any run, ascending.
func (r *SweepResult) Sizes() []int {
	seen := make(map[int]bool)
	var sizes []int
	for _, s := range r.Series {
		for _, p := range s.Points {
			if !seen[p.Size] {
				seen[p.Size] = true
				sizes = append(sizes, p.Size)
			}
		}
	}
	sort.Ints(sizes)
	return sizes
}

// PointCount returns the total number of points across all series.
func (r *SweepResult) PointCount() int {
	n := 0
	for _, s := range r.Series {
		n += len(s.Points)
	}
	return n
}

// FailureCount returns the number of error points across all series.
func (r *SweepResult) FailureCount() int {
	n := 0
	for _, s := range r.Series {
		for _, p := range s.Points {
			if p.Failed() {
				n++
			}
		}
	}
	return n
}

// At returns the point the series recorded for size.
func (s *Series) At(size int) (ChartDataPoint, bool) {
	for _, p := range s.Points {
		if p.Size == size {
			return p, true
		}
	}
	return ChartDataPoint{}, false
}

// =============================================================================
// SUMMARY
// =============================================================================

// SeriesSummary aggregates the successful points of one series.
type SeriesSummary struct {
	Run      string        `json:"run"`
	Points   int           `json:"points"`
	Failures int           `json:"failures"`
	Min      time.Duration `json:"min"`
	Max      time.Duration `json:"max"`
	Mean     time.Duration `json:"mean"`
	// LargestSize is the biggest size that completed without error.
	LargestSize int `json:"largest_size"`
}

// Summarize computes a summary per series, in series order.
func (r *SweepResult) Summarize() []SeriesSummary {
	out := make([]SeriesSummary, 0, len(r.Series))
	for _, s := range r.Series {
		sum := SeriesSummary{Run: s.Run}
		var total time.Duration
		for _, p := range s.Points {
			if p.Failed() {
				sum.Failures++
				continue
			}
			if sum.Points == 0 || p.Elapsed < sum.Min {
				sum.Min = p.Elapsed
			}
			if p.Elapsed > sum.Max {
				sum.Max = p.Elapsed
			}
			if p.Size > sum.LargestSize {
				sum.LargestSize = p.Size
			}
			total += p.Elapsed
			sum.Points++
		}
		if sum.Points > 0 {
			sum.Mean = total / time.Duration(sum.Points)
		}
		out = append(out, sum)
	}
	return out
}

// =============================================================================
// COMPARISON
// =============================================================================

// Comparison is the delta of one run at one size between two sweeps.
type Comparison struct {
	Run      string        `json:"run"`
	Size     int           `json:"size"`
	Previous time.Duration `json:"previous"`
	Current  time.Duration `json:"current"`
	// DiffPct is the relative change; negative means faster.
	DiffPct float64 `json:"diff_pct"`
}

// Faster reports whether the current sweep beat the previous one.
func (c Comparison) Faster() bool {
	return c.DiffPct < 0
}

// Compare matches points by run name and size. Sizes that failed or are
// missing on either side are skipped.
func Compare(prev, curr *SweepResult) []Comparison {
	if prev == nil || curr == nil {
		return nil
	}

	var out []Comparison
	for _, cs := range curr.Series {
		ps := prev.SeriesFor(cs.Run)
		if ps == nil {
			continue
		}
		for _, cp := range cs.Points {
			if cp.Failed() {
				continue
			}
			pp, ok := ps.At(cp.Size)
			if !ok || pp.Failed() || pp.Elapsed <= 0 {
				continue
			}
			diff := float64(cp.Elapsed-pp.Elapsed) / float64(pp.Elapsed) * 100
			out = append(out, Comparison{
				Run:      cs.Run,
				Size:     cp.Size,
				Previous: pp.Elapsed,
				Current:  cp.Elapsed,
				DiffPct:  diff,
			})
		}
	}
	return out
}

// Regressions returns the comparisons that slowed down by more than
// thresholdPct percent.
func Regressions(cmps []Comparison, thresholdPct float64) []Comparison {
	var out []Comparison
	for _, c := range cmps {
		if c.DiffPct > thresholdPct {
			out = append(out, c)
		}
	}
	return out
}
