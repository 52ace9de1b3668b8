// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/config"
	"github.com/jeranaias/opbench/internal/export"
	"github.com/jeranaias/opbench/internal/storage"
)

// =============================================================================
// FIXTURES
// =============================================================================

// harness runs commands against an isolated home, config file and history.
type harness struct {
	t       *testing.T
	app     *App
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	home    string
	cfgPath string
	dbPath  string
	scale   *atomic.Int64
	groups  func(cfg *config.Config) []benchmark.RunGroup
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, name := range []string{
		"OPBENCH_WARMUP", "OPBENCH_TRIALS", "OPBENCH_WORKERS", "OPBENCH_DB",
		"OPBENCH_LOG_LEVEL", "OPBENCH_LOG_FORMAT", "OPBENCH_THEME", "OPBENCH_METRICS_ADDR",
		"OPBENCH_SERVER_TOKEN",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	t.Cleanup(config.ResetGlobalForTesting)

	dir := t.TempDir()
	h := &harness{
		t:       t,
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		home:    home,
		cfgPath: filepath.Join(dir, "config.toml"),
		dbPath:  filepath.Join(dir, "history.db"),
		scale:   &atomic.Int64{},
	}
	h.scale.Store(1)
	h.groups = func(cfg *config.Config) []benchmark.RunGroup { return h.testGroups() }

	cfg := fmt.Sprintf("[runner]\nwarmup = 0\ntrials = 1\n\n[storage]\npath = '%s'\n\n[logging]\nlevel = \"warn\"\n", h.dbPath)
	require.NoError(t, os.WriteFile(h.cfgPath, []byte(cfg), 0600))

	h.app = NewApp(h.out, h.errOut)
	h.app.NewGroups = func(cfg *config.Config) []benchmark.RunGroup { return h.groups(cfg) }
	h.app.IsTerminal = func() bool { return false }
	return h
}

func (h *harness) testGroups() []benchmark.RunGroup {
	tiny := benchmark.TestFunc(func(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
		per := time.Millisecond
		if trial.Option == "slow" {
			per *= 2
		}
		return time.Duration(trial.Size) * per * time.Duration(h.scale.Load()), nil
	})
	tinyGPU := benchmark.TestFunc(func(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
		return time.Duration(trial.Size) * 500 * time.Microsecond, nil
	})
	broken := benchmark.TestFunc(func(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
		return 0, errors.New("out of memory")
	})

	return []benchmark.RunGroup{
		{
			Name:           "Tiny Ops: input [size]",
			Min:            1,
			Max:            3,
			StepSize:       1,
			Options:        []string{"fast", "slow"},
			SelectedOption: "fast",
			Params:         map[string]any{"fast": map[string]int{"rank": 1}, "slow": map[string]int{"rank": 1}},
			Runs: []*benchmark.Run{
				benchmark.NewRun("tiny_cpu", tiny),
				benchmark.NewRun("tiny_gpu", tinyGPU),
			},
		},
		{
			Name:     "Broken: input [size]",
			Min:      1,
			Max:      2,
			StepSize: 1,
			Runs:     []*benchmark.Run{benchmark.NewRun("broken_cpu", broken)},
			Params:   map[string]any{},
		},
	}
}

// exec runs args with the harness config and returns stdout and the exit code.
func (h *harness) exec(args ...string) (string, int) {
	h.t.Helper()
	return h.execContext(context.Background(), args...)
}

func (h *harness) execContext(ctx context.Context, args ...string) (string, int) {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	code := h.app.Execute(ctx, append([]string{"--config", h.cfgPath}, args...))
	return h.out.String(), code
}

// savedIDs lists the stored sweep IDs, newest first.
func (h *harness) savedIDs() []string {
	h.t.Helper()
	store, err := storage.Open(context.Background(), h.dbPath)
	require.NoError(h.t, err)
	defer store.Close()
	metas, err := store.List(context.Background(), storage.ListFilter{})
	require.NoError(h.t, err)
	ids := make([]string, len(metas))
	for i, m := range metas {
		ids[i] = m.ID
	}
	return ids
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Command string          `json:"command"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env
}

// =============================================================================
// VERSION, LIST, VALIDATE
// =============================================================================

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "opbench "+Version)

	out, code = h.exec("version", "--json")
	require.Equal(t, ExitSuccess, code)
	env := decodeEnvelope(t, out)
	assert.True(t, env.Success)
	assert.Equal(t, "version", env.Command)
	var data VersionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, Version, data.Version)
	assert.NotEmpty(t, data.GoVersion)
}

func TestList(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Tiny Ops: input [size]")
	assert.Contains(t, out, "slug tiny-ops  steps 3  sizes 1..3")
	assert.Contains(t, out, "options fast, slow (selected fast)")
	assert.Contains(t, out, "runs tiny_cpu, tiny_gpu")
	assert.Contains(t, out, "Broken: input [size]")
}

func TestList_JSON(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("list", "--json")
	require.Equal(t, ExitSuccess, code)
	env := decodeEnvelope(t, out)
	require.True(t, env.Success)

	var infos []GroupInfo
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, 1, infos[0].Index)
	assert.Equal(t, "tiny-ops", infos[0].Slug)
	assert.Equal(t, 3, infos[0].Steps)
	assert.Equal(t, []string{"fast", "slow"}, infos[0].Options)
	assert.Equal(t, []string{"tiny_cpu", "tiny_gpu"}, infos[0].Runs)
	assert.Empty(t, infos[1].Options)
}

func TestRoot_ListsWhenNotATerminal(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec()
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Tiny Ops: input [size]")
}

func TestValidate(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("validate")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "[OK] 2 run groups valid")
}

func TestValidate_ReportsProblems(t *testing.T) {
	h := newHarness(t)
	h.groups = func(cfg *config.Config) []benchmark.RunGroup {
		groups := h.testGroups()
		groups[0].StepSize = 0
		groups[1].Name = groups[0].Name
		return groups
	}

	out, code := h.exec("validate")
	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, out, "StepSize")
	assert.Contains(t, out, "duplicate group name")
	assert.Contains(t, h.errOut.String(), ErrInvalidGroups.Error())

	out, code = h.exec("validate", "--json")
	assert.Equal(t, ExitGeneralError, code)
	var data ValidateData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &data))
	assert.False(t, data.Valid)
	assert.GreaterOrEqual(t, len(data.Errors), 2)
}

// =============================================================================
// RUN
// =============================================================================

func TestRun_Text(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("run", "tiny")
	require.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Contains(t, out, "Tiny Ops: input [size]")
	assert.Contains(t, out, "option fast")
	assert.Contains(t, out, "tiny_cpu")
	assert.Contains(t, out, "tiny_gpu")
	assert.Contains(t, out, "Largest")

	progress := h.errOut.String()
	assert.Contains(t, progress, "[1/6] tiny_cpu size 1: 1.00ms")
	assert.Contains(t, progress, "[6/6] tiny_gpu size 3: 1.50ms")
}

func TestRun_Quiet(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("run", "1", "--quiet")
	require.Equal(t, ExitSuccess, code)
	assert.NotContains(t, h.errOut.String(), "[1/6]")
}

func TestRun_CSV(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("run", "tiny-ops", "--option", "slow", "--format", "csv", "-q")
	require.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "size,tiny_cpu,tiny_gpu", lines[0])
	assert.Equal(t, "1,2.000,0.500", lines[1])
	assert.Equal(t, "3,6.000,1.500", lines[3])
}

func TestRun_JSONIsOwnedResult(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("run", "tiny", "--format", "json", "-q")
	require.Equal(t, ExitSuccess, code)

	var result benchmark.SweepResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "fast", result.Option)
	assert.Equal(t, 6, result.PointCount())
}

func TestRun_FailingRun(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("run", "broken")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, h.errOut.String(), "error: out of memory")
}

func TestRun_Errors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown group", []string{"run", "nope"}, ExitNotFoundError},
		{"index out of range", []string{"run", "9"}, ExitNotFoundError},
		{"unknown option", []string{"run", "tiny", "--option", "medium"}, ExitUsageError},
		{"option on optionless group", []string{"run", "broken", "--option", "fast"}, ExitUsageError},
		{"unknown format", []string{"run", "tiny", "--format", "xml"}, ExitUsageError},
		{"missing group", []string{"run"}, ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := h.exec(tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, h.errOut.String(), "[X]")
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, code := h.execContext(ctx, "run", "tiny", "--save")
	assert.Equal(t, ExitCanceled, code)
	assert.Contains(t, h.errOut.String(), "sweep canceled, not saved")
	assert.Empty(t, h.savedIDs())
}

func TestRun_MetricsEndpoint(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("run", "tiny", "-q", "--metrics-addr", "127.0.0.1:0")
	assert.Equal(t, ExitSuccess, code, h.errOut.String())
}

func TestRun_SaveAndCompare(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("run", "tiny", "--save", "-q")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, h.errOut.String(), "saved sweep")
	require.Len(t, h.savedIDs(), 1)

	out, code := h.exec("run", "tiny", "--compare", "--fail-on-regression", "-q")
	require.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Contains(t, out, "Compared with")
	assert.Contains(t, out, "+0.0%")

	h.scale.Store(3)
	out, code = h.exec("run", "tiny", "--compare", "--fail-on-regression", "-q")
	assert.Equal(t, ExitRegressionError, code)
	assert.Contains(t, out, "3 regression(s) above +10.0%")

	// Comparing does not save.
	assert.Len(t, h.savedIDs(), 1)
}

func TestRun_CompareWithoutHistory(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("run", "tiny", "--compare", "-q")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, h.errOut.String(), "no earlier sweep to compare with")
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("history")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No saved sweeps.")

	_, code = h.exec("run", "tiny", "--save", "-q")
	require.Equal(t, ExitSuccess, code)
	_, code = h.exec("run", "broken", "--save", "-q")
	require.Equal(t, ExitSuccess, code)
	ids := h.savedIDs()
	require.Len(t, ids, 2)

	out, code = h.exec("history", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Tiny Ops: input [size]")
	assert.Contains(t, out, shortID(ids[0]))

	out, code = h.exec("history", "--group", "tiny", "--json")
	require.Equal(t, ExitSuccess, code)
	var metas []storage.SweepMeta
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &metas))
	require.Len(t, metas, 1)
	assert.Equal(t, "Tiny Ops: input [size]", metas[0].Group)
	assert.Equal(t, 6, metas[0].Points)

	out, code = h.exec("history", "show", shortID(metas[0].ID))
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "tiny_cpu")
	assert.Contains(t, out, "Largest")

	_, code = h.exec("history", "show", "deadbeef")
	assert.Equal(t, ExitNotFoundError, code)

	out, code = h.exec("history", "delete", metas[0].ID)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "deleted sweep "+metas[0].ID)
	assert.Len(t, h.savedIDs(), 1)

	_, code = h.exec("history", "delete", metas[0].ID)
	assert.Equal(t, ExitNotFoundError, code)
}

func TestHistory_Compare(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("run", "tiny", "--save", "-q")
	require.Equal(t, ExitSuccess, code)
	h.scale.Store(2)
	_, code = h.exec("run", "tiny", "--save", "-q")
	require.Equal(t, ExitSuccess, code)

	ids := h.savedIDs()
	require.Len(t, ids, 2)
	newest, oldest := ids[0], ids[1]

	out, code := h.exec("history", "compare", newest)
	require.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Contains(t, out, "Compared with "+shortID(oldest))
	assert.Contains(t, out, "+100.0%")

	_, code = h.exec("history", "compare", newest, oldest, "--fail-on-regression")
	assert.Equal(t, ExitRegressionError, code)

	out, code = h.exec("history", "compare", oldest, newest, "--json")
	require.Equal(t, ExitSuccess, code)
	var data CompareData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &data))
	assert.Equal(t, newest, data.Previous)
	assert.Len(t, data.Comparisons, 6)
	assert.Empty(t, data.Regressions)

	_, code = h.exec("history", "compare", oldest)
	assert.Equal(t, ExitNotFoundError, code)
}

// =============================================================================
// EXPORT AND REPORT
// =============================================================================

func TestExport(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("export", "latest")
	assert.Equal(t, ExitNotFoundError, code)

	_, code = h.exec("run", "tiny", "--save", "-q")
	require.Equal(t, ExitSuccess, code)
	id := h.savedIDs()[0]

	dir := t.TempDir()
	out, code := h.exec("export", shortID(id), "--format", "csv", "--out", dir)
	require.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Contains(t, out, "exported "+shortID(id))

	files, err := filepath.Glob(filepath.Join(dir, "opbench_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "size,tiny_cpu,tiny_gpu"))

	out, code = h.exec("export", "latest", "--format", "json", "--stdout")
	require.Equal(t, ExitSuccess, code)
	var result benchmark.SweepResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, id, result.ID)

	_, code = h.exec("export", "latest", "--format", "pdf")
	assert.Equal(t, ExitUsageError, code)
}

func TestReport(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("run", "tiny", "--save", "-q")
	require.Equal(t, ExitSuccess, code)

	out, code := h.exec("report", "latest", "--width", "100")
	require.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Contains(t, out, "Tiny Ops")
	assert.Equal(t, "notty", h.app.reportStyle())
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_ShowAndPath(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("config")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "[runner]")
	assert.Contains(t, out, "trials = 1")

	out, code = h.exec("config", "show", "--json")
	require.Equal(t, ExitSuccess, code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &cfg))
	assert.Equal(t, h.dbPath, cfg.Storage.Path)

	out, code = h.exec("config", "path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, h.cfgPath, strings.TrimSpace(out))
}

func TestConfig_FlagsOverrideFile(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("--log-level", "debug", "--no-color", "config", "get", "logging.level")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "debug", strings.TrimSpace(out))
	assert.True(t, h.app.Config.UI.NoColor)

	_, code = h.exec("--log-format", "xml", "version")
	assert.Equal(t, ExitConfigError, code)
}

func TestConfig_SetGet(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("config", "set", "runner.trials", "5")
	require.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Equal(t, "runner.trials = 5", strings.TrimSpace(out))

	out, code = h.exec("config", "get", "runner.trials")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "5", strings.TrimSpace(out))

	// The storage path written by the harness survives the edit.
	out, code = h.exec("config", "get", "storage.path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, h.dbPath, strings.TrimSpace(out))

	_, code = h.exec("config", "set", "ui.chart_height", "2")
	assert.Equal(t, ExitUsageError, code)
	_, code = h.exec("config", "set", "runner.nope", "1")
	assert.Equal(t, ExitUsageError, code)
	_, code = h.exec("config", "get", "nope")
	assert.Equal(t, ExitUsageError, code)
}

func TestConfig_Init(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("config", "init")
	assert.Equal(t, ExitUsageError, code)

	out, code := h.exec("config", "init", "--force")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "wrote "+h.cfgPath)

	cfg, err := config.LoadFromPath(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Runner.Trials, cfg.Runner.Trials)
}

func TestConfig_DefaultPath(t *testing.T) {
	h := newHarness(t)

	h.out.Reset()
	code := h.app.Execute(context.Background(), []string{"config", "path"})
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, filepath.Join(h.home, ".opbench", "config.toml"), strings.TrimSpace(h.out.String()))
}

func TestConfig_BadFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfgPath, []byte("[runner]\nbogus = 1\n"), 0600))

	_, code := h.exec("list")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, h.errOut.String(), "unknown keys")
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{context.Canceled, ExitCanceled},
		{fmt.Errorf("wrapped: %w", context.Canceled), ExitCanceled},
		{&ConfigError{Err: errors.New("bad")}, ExitConfigError},
		{fmt.Errorf("x: %w", ErrRegression), ExitRegressionError},
		{fmt.Errorf("x: %w", benchmark.ErrGroupNotFound), ExitNotFoundError},
		{fmt.Errorf("x: %w", storage.ErrNotFound), ExitNotFoundError},
		{fmt.Errorf("x: %w", benchmark.ErrUnknownOption), ExitUsageError},
		{fmt.Errorf("x: %w", export.ErrUnknownFormat), ExitUsageError},
		{&ValidationError{Field: "f", Reason: "r"}, ExitUsageError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetExitCode(tt.err), "%v", tt.err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ErrUnsupportedFormat("xml", []string{"csv", "json"})
	assert.Equal(t, "invalid format: unsupported format (got: xml)\nExample: supported formats: [csv json]", err.Error())
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, errors.New("boom"))
	assert.Equal(t, "[X] boom\n", buf.String())

	buf.Reset()
	DisplayError(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestGetTerminalWidth_NonFile(t *testing.T) {
	assert.Equal(t, DefaultTerminalWidth, GetTerminalWidth(&bytes.Buffer{}))
	assert.False(t, SupportsColor(&bytes.Buffer{}))
}

// =============================================================================
// SERVE
// =============================================================================

func TestServe_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, code := h.execContext(ctx, "serve", "--addr", "127.0.0.1:0")
	assert.Equal(t, ExitSuccess, code, h.errOut.String())
	assert.Contains(t, h.errOut.String(), "serving on http://127.0.0.1:")
}

func TestServe_BadAddress(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("serve", "--addr", "256.0.0.1:bad")
	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, h.errOut.String(), "failed to listen")
}
