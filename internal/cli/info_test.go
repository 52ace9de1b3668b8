// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/opbench/internal/detect"
)

func stubHost(t *testing.T, host *detect.Host) {
	t.Helper()
	orig := detectHost
	detectHost = func(context.Context) *detect.Host { return host }
	t.Cleanup(func() { detectHost = orig })
}

func TestInfo(t *testing.T) {
	h := newHarness(t)
	stubHost(t, &detect.Host{
		OS: "linux", Arch: "amd64", CPUs: 16, CPUModel: "AMD Ryzen 9 7950X",
		MemoryGB: 64, GoVersion: "go1.24.0",
		GPU: &detect.GpuInfo{Name: "NVIDIA GeForce RTX 4090", MemoryGB: 24, Driver: "550.54", Type: detect.GpuTypeNvidia},
	})

	out, code := h.exec("info")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "os:     linux/amd64")
	assert.Contains(t, out, "cpu:    AMD Ryzen 9 7950X (16 threads)")
	assert.Contains(t, out, "memory: 64GB")
	assert.Contains(t, out, "gpu:    NVIDIA GeForce RTX 4090 (24GB) [Driver: 550.54]")
}

func TestInfo_NoGPU(t *testing.T) {
	h := newHarness(t)
	stubHost(t, &detect.Host{OS: "linux", Arch: "arm64", CPUs: 4, GoVersion: "go1.24.0"})

	out, code := h.exec("info")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "cpu:    unknown (4 threads)")
	assert.Contains(t, out, "gpu:    none")
	assert.NotContains(t, out, "memory:")
}

func TestInfo_JSON(t *testing.T) {
	h := newHarness(t)
	stubHost(t, &detect.Host{
		OS: "darwin", Arch: "arm64", CPUs: 10, GoVersion: "go1.24.0",
		GPU: &detect.GpuInfo{Name: "Apple M2 Pro", Type: detect.GpuTypeAppleSilicon},
	})

	out, code := h.exec("info", "--json")
	require.Equal(t, ExitSuccess, code, out)
	env := decodeEnvelope(t, out)
	assert.Equal(t, "info", env.Command)

	var data struct {
		OS   string `json:"os"`
		CPUs int    `json:"cpus"`
		GPU  struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"gpu"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "darwin", data.OS)
	assert.Equal(t, 10, data.CPUs)
	assert.Equal(t, "Apple M2 Pro", data.GPU.Name)
	assert.Equal(t, "Apple Silicon", data.GPU.Type)
}
