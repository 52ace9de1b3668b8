// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrBadParams   = errors.New("bad benchmark parameters")
	ErrInvalidSize = errors.New("invalid benchmark size")
)

// =============================================================================
// SHARED TEST PLUMBING
// =============================================================================

// opTest holds what every benchmark test needs: a backend and a trial
// counter that seeds each trial's inputs.
type opTest struct {
	backend tensor.Backend
	trials  atomic.Uint64
}

// Backend returns the backend the test measures.
func (o *opTest) Backend() tensor.Backend {
	return o.backend
}

// nextRand returns a generator seeded from the trial count, so consecutive
// trials see different but reproducible inputs.
func (o *opTest) nextRand() *rand.Rand {
	return tensor.NewRand(o.trials.Add(1))
}

// upload draws a uniform tensor on the host and moves it to the backend.
// Uploads happen before the timer starts.
func (o *opTest) upload(rng *rand.Rand, lo, hi float32, shape ...int) *tensor.Tensor {
	return o.backend.Upload(tensor.RandUniform(rng, lo, hi, shape...))
}

// timed runs op and reads its result back to the host, returning the wall
// time of both. Only op runs under the trial's timeout.
func (o *opTest) timed(ctx context.Context, trial benchmark.Trial, op func(ctx context.Context) (*tensor.Tensor, error)) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	opCtx, cancel := trial.Bound(ctx)
	defer cancel()

	start := time.Now()
	out, err := op(opCtx)
	if err == nil {
		err = opCtx.Err()
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w after %s", benchmark.ErrTrialTimeout, trial.Timeout)
		}
		return 0, err
	}
	_ = o.backend.Download(out)
	return time.Since(start), nil
}

func checkSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}

// paramsAs accepts a parameter record by value or by pointer.
func paramsAs[T any](p any) (T, error) {
	switch v := p.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: want %T, got %T", ErrBadParams, zero, p)
}

func positive(fields map[string]int) error {
	for name, v := range fields {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %d", ErrBadParams, name, v)
		}
	}
	return nil
}
