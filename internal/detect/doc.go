// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect describes the machine a benchmark runs on.
//
// Timings are only comparable between sweeps taken on the same hardware, so
// opbench reports the CPU, memory and GPU alongside its results.
//
// # Key Types
//
//   - Host: operating system, CPU, memory and GPU of the machine
//   - GpuInfo: name, memory and driver of a detected GPU
//   - GpuType: NVIDIA, AMD, Apple Silicon or none
//
// # Supported GPU Types
//
//   - NVIDIA (via nvidia-smi)
//   - AMD (via rocm-smi on Linux)
//   - Apple Silicon (via system_profiler on macOS)
//
// # Usage
//
//	host := detect.DetectHostCached(ctx)
//	fmt.Println(host.CPUModel, host.GPU)
package detect
