// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrUnknownOp     = errors.New("unknown op")
	ErrInvalidShape  = errors.New("invalid shape")
)

// =============================================================================
// TENSOR
// =============================================================================

// Tensor is a dense row-major float32 array.
type Tensor struct {
	Shape []int
	Data  []float32
}

// New allocates a zero-filled tensor. It panics on a negative dimension.
func New(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension in shape %v", shape))
		}
		n *= d
	}
	return &Tensor{Shape: slices.Clone(shape), Data: make([]float32, n)}
}

// FromData wraps data without copying it.
func FromData(data []float32, shape ...int) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, shape, n, len(data))
	}
	return &Tensor{Shape: slices.Clone(shape), Data: data}, nil
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{Shape: slices.Clone(t.Shape), Data: slices.Clone(t.Data)}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.Shape)
}

// =============================================================================
// RANDOM INPUTS
// =============================================================================

// NewRand returns a deterministic generator for benchmark inputs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandUniform fills a tensor with values drawn uniformly from [lo, hi).
func RandUniform(rng *rand.Rand, lo, hi float32, shape ...int) *Tensor {
	t := New(shape...)
	span := hi - lo
	for i := range t.Data {
		t.Data[i] = lo + rng.Float32()*span
	}
	return t
}

func requireRank(name string, t *Tensor, rank int) error {
	if t == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalidShape, name)
	}
	if t.Rank() != rank {
		return fmt.Errorf("%w: %s must have rank %d, got shape %v", ErrShapeMismatch, name, rank, t.Shape)
	}
	return nil
}
