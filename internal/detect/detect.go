// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// detectTimeout bounds host detection when the caller sets no deadline.
const detectTimeout = 10 * time.Second

// =============================================================================
// GPU TYPE DEFINITIONS
// =============================================================================

// GpuType represents the type of GPU detected on the system.
type GpuType int

const (
	// GpuTypeNone indicates no dedicated GPU was found.
	GpuTypeNone GpuType = iota
	// GpuTypeNvidia indicates an NVIDIA GPU.
	GpuTypeNvidia
	// GpuTypeAmd indicates an AMD GPU.
	GpuTypeAmd
	// GpuTypeAppleSilicon indicates an Apple Silicon integrated GPU.
	GpuTypeAppleSilicon
)

// String returns the string representation of the GPU type.
func (t GpuType) String() string {
	switch t {
	case GpuTypeNvidia:
		return "NVIDIA"
	case GpuTypeAmd:
		return "AMD"
	case GpuTypeAppleSilicon:
		return "Apple Silicon"
	case GpuTypeNone:
		return "none"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the type by name.
func (t GpuType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// =============================================================================
// HOST INFO
// =============================================================================

// GpuInfo contains information about a detected GPU.
type GpuInfo struct {
	Name     string  `json:"name"`
	MemoryGB uint32  `json:"memory_gb"`
	Driver   string  `json:"driver,omitempty"`
	Type     GpuType `json:"type"`
}

// String returns a formatted string representation of the GPU info.
func (g *GpuInfo) String() string {
	if g == nil {
		return "none"
	}
	s := fmt.Sprintf("%s (%dGB)", g.Name, g.MemoryGB)
	if g.Driver != "" {
		s += fmt.Sprintf(" [Driver: %s]", g.Driver)
	}
	return s
}

// Host describes the benchmark machine.
type Host struct {
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	CPUs      int      `json:"cpus"`
	CPUModel  string   `json:"cpu_model,omitempty"`
	MemoryGB  uint32   `json:"memory_gb,omitempty"`
	GoVersion string   `json:"go_version"`
	GPU       *GpuInfo `json:"gpu,omitempty"`
}

// commandOutput runs an external tool. Tests replace it.
var commandOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// readFile reads a system file. Tests replace it.
var readFile = os.ReadFile

// DetectHost inspects the machine. Missing tools are not errors: the
// corresponding fields stay empty.
func DetectHost(ctx context.Context) *Host {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, detectTimeout)
		defer cancel()
	}

	host := &Host{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}
	host.CPUModel, host.MemoryGB = detectCPU(ctx)
	host.GPU = DetectGPU(ctx)
	return host
}

var (
	hostCache   *Host
	hostCacheMu sync.Mutex
)

// DetectHostCached detects the host once per process.
func DetectHostCached(ctx context.Context) *Host {
	hostCacheMu.Lock()
	defer hostCacheMu.Unlock()
	if hostCache == nil {
		hostCache = DetectHost(ctx)
	}
	return hostCache
}

// ClearCache forces the next DetectHostCached to inspect the machine again.
func ClearCache() {
	hostCacheMu.Lock()
	defer hostCacheMu.Unlock()
	hostCache = nil
}

// =============================================================================
// CPU AND MEMORY
// =============================================================================

func detectCPU(ctx context.Context) (model string, memGB uint32) {
	switch runtime.GOOS {
	case "linux":
		if data, err := readFile("/proc/cpuinfo"); err == nil {
			model = parseCPUInfo(string(data))
		}
		if data, err := readFile("/proc/meminfo"); err == nil {
			memGB = parseMemInfo(string(data))
		}
	case "darwin":
		if out, err := commandOutput(ctx, "sysctl", "-n", "machdep.cpu.brand_string"); err == nil {
			model = strings.TrimSpace(string(out))
		}
		if out, err := commandOutput(ctx, "sysctl", "-n", "hw.memsize"); err == nil {
			if b, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64); err == nil {
				memGB = uint32(b / (1 << 30))
			}
		}
	}
	return model, memGB
}

// parseCPUInfo returns the first "model name" of /proc/cpuinfo.
func parseCPUInfo(data string) string {
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// parseMemInfo returns MemTotal of /proc/meminfo in whole gigabytes.
func parseMemInfo(data string) uint32 {
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0
			}
			return uint32((kb + (1<<20)/2) / (1 << 20))
		}
	}
	return 0
}

// =============================================================================
// GPU DETECTION
// =============================================================================

// DetectGPU tries NVIDIA, AMD and Apple Silicon in that order and returns
// nil when none is found.
func DetectGPU(ctx context.Context) *GpuInfo {
	if out, err := commandOutput(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,driver_version",
		"--format=csv,noheader,nounits"); err == nil {
		if info := parseNvidiaSmi(string(out)); info != nil {
			return info
		}
	}
	if ctx.Err() != nil {
		return nil
	}

	if runtime.GOOS == "linux" {
		if out, err := commandOutput(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram"); err == nil {
			if info := parseRocmSmi(string(out)); info != nil {
				return info
			}
		}
	}

	if runtime.GOOS == "darwin" {
		if out, err := commandOutput(ctx, "system_profiler", "SPDisplaysDataType"); err == nil {
			return parseAppleDisplays(string(out))
		}
	}
	return nil
}

// parseNvidiaSmi parses the first line of
// "nvidia-smi --query-gpu=name,memory.total,driver_version --format=csv,noheader,nounits".
func parseNvidiaSmi(out string) *GpuInfo {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return nil
	}
	memMB, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}
	return &GpuInfo{
		Name:     "NVIDIA " + strings.TrimPrefix(strings.TrimSpace(parts[0]), "NVIDIA "),
		MemoryGB: uint32(memMB/1024 + 0.5),
		Driver:   strings.TrimSpace(parts[2]),
		Type:     GpuTypeNvidia,
	}
}

var numericRegex = regexp.MustCompile(`(\d+)\s*$`)

// parseRocmSmi parses "rocm-smi --showproductname --showmeminfo vram".
func parseRocmSmi(out string) *GpuInfo {
	info := &GpuInfo{Type: GpuTypeAmd}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case info.Name == "" && strings.Contains(line, "Card series:"):
			_, value, _ := strings.Cut(line, "Card series:")
			info.Name = "AMD " + strings.TrimSpace(value)
		case info.MemoryGB == 0 && strings.Contains(line, "Total Memory"):
			m := numericRegex.FindStringSubmatch(strings.TrimSpace(line))
			if len(m) < 2 {
				continue
			}
			val, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				continue
			}
			switch {
			case val >= 1<<30:
				info.MemoryGB = uint32(val / (1 << 30))
			case val >= 1<<20:
				info.MemoryGB = uint32(val / (1 << 10))
			default:
				info.MemoryGB = uint32(val)
			}
		}
	}
	if info.Name == "" {
		return nil
	}
	return info
}

var appleChipRegex = regexp.MustCompile(`Apple (M\d+(?: Pro| Max| Ultra)?)`)

// parseAppleDisplays finds an Apple Silicon chip in system_profiler output.
func parseAppleDisplays(out string) *GpuInfo {
	m := appleChipRegex.FindStringSubmatch(out)
	if m == nil {
		return nil
	}
	return &GpuInfo{Name: "Apple " + m[1], Type: GpuTypeAppleSilicon}
}
