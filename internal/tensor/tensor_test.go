// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	x := New(2, 3, 4)
	assert.Equal(t, []int{2, 3, 4}, x.Shape)
	assert.Equal(t, 24, x.Size())
	assert.Equal(t, 3, x.Rank())
	assert.Panics(t, func() { New(2, -1) })
}

func TestFromData(t *testing.T) {
	x, err := FromData([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, x.Shape)

	_, err = FromData([]float32{1, 2}, 2, 3)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = FromData(nil, -1)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestClone_IsDeep(t *testing.T) {
	x := New(2)
	y := x.Clone()
	y.Data[0] = 5
	y.Shape[0] = 9
	assert.Equal(t, float32(0), x.Data[0])
	assert.Equal(t, 2, x.Shape[0])
}

func TestRandUniform_Deterministic(t *testing.T) {
	a := RandUniform(NewRand(7), -1, 1, 100)
	b := RandUniform(NewRand(7), -1, 1, 100)
	assert.Equal(t, a.Data, b.Data)
	for _, v := range a.Data {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	for _, be := range []Backend{CPU(), GPU(3)} {
		t.Run(be.Name(), func(t *testing.T) {
			seen := make([]int, 103)
			err := be.ParallelFor(ctx, len(seen), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					seen[i]++
				}
			})
			require.NoError(t, err)
			for i, n := range seen {
				assert.Equal(t, 1, n, "index %d", i)
			}

			require.NoError(t, be.ParallelFor(ctx, 0, func(lo, hi int) { t.Fatal("called for n=0") }))
		})
	}
}

func TestBackends_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, be := range []Backend{CPU(), GPU(2)} {
		err := be.ParallelFor(ctx, 10, func(lo, hi int) {})
		assert.ErrorIs(t, err, context.Canceled, be.Name())
	}
}

func TestBackends_UploadDownload(t *testing.T) {
	x := RandUniform(NewRand(1), 0, 1, 4)

	cpu := CPU()
	assert.Same(t, x, cpu.Upload(x))

	gpu := GPU(2)
	dev := gpu.Upload(x)
	assert.NotSame(t, x, dev)
	assert.Equal(t, x.Data, dev.Data)
	host := gpu.Download(dev)
	host[0] = 42
	assert.NotEqual(t, float32(42), dev.Data[0])
}

func TestCPU_ChecksContextBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := CPU().ParallelFor(ctx, 1000, func(lo, hi int) {
		calls++
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)

	calls = 0
	require.NoError(t, CPU().ParallelFor(context.Background(), 1000, func(lo, hi int) { calls++ }))
	assert.Greater(t, calls, 1)
}
