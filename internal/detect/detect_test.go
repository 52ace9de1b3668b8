// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"errors"
	"runtime"
	"testing"
)

func TestGpuType_String(t *testing.T) {
	tests := []struct {
		gpuType  GpuType
		expected string
	}{
		{GpuTypeNone, "none"},
		{GpuTypeNvidia, "NVIDIA"},
		{GpuTypeAmd, "AMD"},
		{GpuTypeAppleSilicon, "Apple Silicon"},
		{GpuType(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.gpuType.String(); got != tt.expected {
			t.Errorf("GpuType(%d).String() = %q, want %q", tt.gpuType, got, tt.expected)
		}
	}
}

func TestGpuInfo_String(t *testing.T) {
	var nilInfo *GpuInfo
	if got := nilInfo.String(); got != "none" {
		t.Errorf("nil GpuInfo.String() = %q, want none", got)
	}

	info := &GpuInfo{Name: "NVIDIA RTX 3080", MemoryGB: 10, Driver: "535.104", Type: GpuTypeNvidia}
	if got, want := info.String(), "NVIDIA RTX 3080 (10GB) [Driver: 535.104]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	info.Driver = ""
	if got, want := info.String(), "NVIDIA RTX 3080 (10GB)"; got != want {
		t.Errorf("String() without driver = %q, want %q", got, want)
	}
}

func TestParseNvidiaSmi(t *testing.T) {
	info := parseNvidiaSmi("NVIDIA GeForce RTX 4090, 24564, 550.54.14\nNVIDIA GeForce RTX 3060, 12288, 550.54.14\n")
	if info == nil {
		t.Fatal("expected a GPU")
	}
	if info.Name != "NVIDIA GeForce RTX 4090" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.MemoryGB != 24 {
		t.Errorf("MemoryGB = %d, want 24", info.MemoryGB)
	}
	if info.Driver != "550.54.14" {
		t.Errorf("Driver = %q", info.Driver)
	}
	if info.Type != GpuTypeNvidia {
		t.Errorf("Type = %v", info.Type)
	}

	info = parseNvidiaSmi("Tesla T4, 15360, 535.0")
	if info == nil || info.Name != "NVIDIA Tesla T4" || info.MemoryGB != 15 {
		t.Errorf("Tesla parse = %+v", info)
	}

	for _, bad := range []string{"", "garbage", "RTX, lots, 1.0"} {
		if got := parseNvidiaSmi(bad); got != nil {
			t.Errorf("parseNvidiaSmi(%q) = %+v, want nil", bad, got)
		}
	}
}

func TestParseRocmSmi(t *testing.T) {
	out := `
========================= ROCm System Management Interface =========================
GPU[0]		: Card series:		Radeon RX 7900 XTX
GPU[0]		: VRAM Total Memory (B): 25753026560
GPU[0]		: VRAM Total Used Memory (B): 1073741824
`
	info := parseRocmSmi(out)
	if info == nil {
		t.Fatal("expected a GPU")
	}
	if info.Name != "AMD Radeon RX 7900 XTX" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.MemoryGB != 23 {
		t.Errorf("MemoryGB = %d, want 23", info.MemoryGB)
	}
	if info.Type != GpuTypeAmd {
		t.Errorf("Type = %v", info.Type)
	}

	if got := parseRocmSmi("no cards here"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseAppleDisplays(t *testing.T) {
	info := parseAppleDisplays("Graphics/Displays:\n\n    Apple M2 Pro:\n\n      Chipset Model: Apple M2 Pro\n")
	if info == nil || info.Name != "Apple M2 Pro" || info.Type != GpuTypeAppleSilicon {
		t.Errorf("parseAppleDisplays = %+v", info)
	}
	if got := parseAppleDisplays("Chipset Model: Intel Iris Plus"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseCPUInfo(t *testing.T) {
	data := "processor\t: 0\nvendor_id\t: GenuineIntel\nmodel name\t: Intel(R) Core(TM) i7-12700K\n\nprocessor\t: 1\nmodel name\t: Intel(R) Core(TM) i7-12700K\n"
	if got, want := parseCPUInfo(data), "Intel(R) Core(TM) i7-12700K"; got != want {
		t.Errorf("parseCPUInfo = %q, want %q", got, want)
	}
	if got := parseCPUInfo("processor\t: 0\n"); got != "" {
		t.Errorf("expected empty model, got %q", got)
	}
}

func TestParseMemInfo(t *testing.T) {
	tests := []struct {
		name string
		data string
		want uint32
	}{
		{"16GB", "MemTotal:       16384000 kB\nMemFree:         1000 kB\n", 16},
		{"rounds", "MemTotal:       32594848 kB\n", 31},
		{"missing", "MemFree: 1000 kB\n", 0},
		{"malformed", "MemTotal: lots kB\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseMemInfo(tt.data); got != tt.want {
				t.Errorf("parseMemInfo = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectHost_WithoutTools(t *testing.T) {
	origCmd, origRead := commandOutput, readFile
	t.Cleanup(func() { commandOutput, readFile = origCmd, origRead })
	commandOutput = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("not found")
	}
	readFile = func(string) ([]byte, error) { return nil, errors.New("not found") }

	host := DetectHost(context.Background())
	if host.OS != runtime.GOOS || host.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s", host.OS, host.Arch)
	}
	if host.CPUs != runtime.NumCPU() {
		t.Errorf("CPUs = %d", host.CPUs)
	}
	if host.GPU != nil {
		t.Errorf("GPU = %+v, want nil", host.GPU)
	}
	if host.CPUModel != "" || host.MemoryGB != 0 {
		t.Errorf("expected empty CPU details, got %q %d", host.CPUModel, host.MemoryGB)
	}
}

func TestDetectGPU_Nvidia(t *testing.T) {
	orig := commandOutput
	t.Cleanup(func() { commandOutput = orig })
	var calls []string
	commandOutput = func(_ context.Context, name string, _ ...string) ([]byte, error) {
		calls = append(calls, name)
		if name == "nvidia-smi" {
			return []byte("NVIDIA A100-SXM4-80GB, 81920, 535.129.03\n"), nil
		}
		return nil, errors.New("unexpected")
	}

	info := DetectGPU(context.Background())
	if info == nil || info.MemoryGB != 80 || info.Type != GpuTypeNvidia {
		t.Fatalf("DetectGPU = %+v", info)
	}
	if len(calls) != 1 {
		t.Errorf("expected only nvidia-smi, got %v", calls)
	}
}

func TestDetectHostCached(t *testing.T) {
	origCmd, origRead := commandOutput, readFile
	t.Cleanup(func() {
		commandOutput, readFile = origCmd, origRead
		ClearCache()
	})
	calls := 0
	commandOutput = func(context.Context, string, ...string) ([]byte, error) {
		calls++
		return nil, errors.New("not found")
	}
	readFile = func(string) ([]byte, error) { return nil, errors.New("not found") }

	ClearCache()
	first := DetectHostCached(context.Background())
	n := calls
	second := DetectHostCached(context.Background())
	if first != second {
		t.Error("expected the cached host")
	}
	if calls != n {
		t.Errorf("second call ran %d more commands", calls-n)
	}

	ClearCache()
	if DetectHostCached(context.Background()) == first {
		t.Error("expected a fresh host after ClearCache")
	}
}
