// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

// =============================================================================
// PARAMETER RECORDS
// =============================================================================

// Padding modes understood by the convolution and pooling benchmarks.
const (
	PadSame  = "same"
	PadValid = "valid"
)

// ConvParams is the shape record shared by every convolution variant.
type ConvParams struct {
	InDepth    int    `json:"in_depth" yaml:"in_depth"`
	FilterSize int    `json:"filter_size" yaml:"filter_size"`
	Stride     int    `json:"stride" yaml:"stride"`
	Pad        string `json:"pad" yaml:"pad"`
}

// RegularConvParams adds the output depth used by regular and transposed
// convolutions.
type RegularConvParams struct {
	ConvParams `yaml:",inline"`
	OutDepth   int `json:"out_depth" yaml:"out_depth"`
}

// DepthwiseConvParams adds the channel multiplier of a depthwise convolution.
type DepthwiseConvParams struct {
	ConvParams `yaml:",inline"`
	ChannelMul int `json:"channel_mul" yaml:"channel_mul"`
}

// PoolParams describes a pooling window over a [size, size, depth] input.
type PoolParams struct {
	Depth     int `json:"depth" yaml:"depth"`
	FieldSize int `json:"field_size" yaml:"field_size"`
	Stride    int `json:"stride" yaml:"stride"`
}

// ElementwiseParams describes the input of an element-wise op.
type ElementwiseParams struct {
	// Rank is 2 for a [size, size] input.
	Rank int `json:"rank" yaml:"rank"`
}

// ReductionParams describes the input of a full reduction.
type ReductionParams struct {
	// Rank is 1 for a flattened [size * size] input.
	Rank int `json:"rank" yaml:"rank"`
}
