// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/opbench/internal/runner"
	"github.com/jeranaias/opbench/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete opbench configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Runner  RunnerConfig  `toml:"runner" json:"runner"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`
	Server  ServerConfig  `toml:"server" json:"server"`
}

// RunnerConfig controls how sweeps are measured.
type RunnerConfig struct {
	// Warmup trials are run and discarded before timing each point.
	Warmup int `toml:"warmup" json:"warmup"`
	// Trials are timed per point; the mean is recorded.
	Trials int `toml:"trials" json:"trials"`
	// TrialTimeoutSecs bounds one trial. 0 disables the bound.
	TrialTimeoutSecs int `toml:"trial_timeout_secs" json:"trial_timeout_secs"`
	// MaxTrialMillis ends a run once one of its points is slower. 0 disables it.
	MaxTrialMillis int `toml:"max_trial_ms" json:"max_trial_ms"`
	// MaxTrialsPerSecond paces trials. 0 means unlimited.
	MaxTrialsPerSecond float64 `toml:"max_trials_per_second" json:"max_trials_per_second"`
	// Workers is the GPU backend parallelism. 0 uses GOMAXPROCS.
	Workers int `toml:"workers" json:"workers"`
}

// StorageConfig locates the sweep history database.
type StorageConfig struct {
	// Path of the SQLite file. Empty uses ~/.opbench/history.db.
	Path string `toml:"path" json:"path"`
	// HistoryLimit caps "history list" output.
	HistoryLimit int `toml:"history_limit" json:"history_limit"`
	// AutoSave stores every completed dashboard sweep.
	AutoSave bool `toml:"auto_save" json:"auto_save"`
}

// UIConfig contains dashboard and report settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`
	// ChartHeight is the number of plot rows in the dashboard chart.
	ChartHeight int `toml:"chart_height" json:"chart_height"`
	// NoColor disables ANSI colors.
	NoColor bool `toml:"no_color" json:"no_color"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`
	// File receives logs while the dashboard owns the terminal.
	File string `toml:"file" json:"file"`
}

// MetricsConfig exposes runner metrics over HTTP.
type MetricsConfig struct {
	// Addr of the Prometheus endpoint, for example ":9090". Empty disables it.
	Addr string `toml:"addr" json:"addr"`
}

// ServerConfig configures "opbench serve".
type ServerConfig struct {
	// Addr is the listen address of the results API.
	Addr string `toml:"addr" json:"addr"`
	// Token enables bearer authentication when set.
	Token string `toml:"token" json:"token"`
	// AllowedIPs is a comma-separated list of IPs or CIDR ranges. Empty allows all.
	AllowedIPs string `toml:"allowed_ips" json:"allowed_ips"`
	// RequestsPerMinute limits each client. 0 disables limiting.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",

		Runner: RunnerConfig{
			Warmup:           1,
			Trials:           3,
			TrialTimeoutSecs: 30,
			MaxTrialMillis:   10000,
		},

		Storage: StorageConfig{
			HistoryLimit: 20,
		},

		UI: UIConfig{
			Theme:       "auto",
			ChartHeight: 12,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},

		Server: ServerConfig{
			Addr:              "127.0.0.1:8787",
			RequestsPerMinute: 120,
		},
	}
}

// RunnerOptions converts the runner section to runner options.
func (c *Config) RunnerOptions() runner.Options {
	return runner.Options{
		Warmup:             c.Runner.Warmup,
		Trials:             c.Runner.Trials,
		TrialTimeout:       time.Duration(c.Runner.TrialTimeoutSecs) * time.Second,
		MaxTrialDuration:   time.Duration(c.Runner.MaxTrialMillis) * time.Millisecond,
		MaxTrialsPerSecond: c.Runner.MaxTrialsPerSecond,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the opbench configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".opbench"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the first config file found in the config directory, or the
// defaults when none exists. Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file. Files ending in
// ".json" are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# opbench configuration file\n")
	sb.WriteString("# Environment variables OPBENCH_* override these values.\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(sb.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"text", "json"}
	validThemes  = []string{"dark", "light", "auto"}
)

// Validate validates the configuration and returns every error found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Runner.Warmup < 0 {
		errs = append(errs, ValidationError{"runner.warmup", fmt.Sprintf("must be >= 0, got %d", c.Runner.Warmup)})
	}
	if c.Runner.Trials < 1 {
		errs = append(errs, ValidationError{"runner.trials", fmt.Sprintf("must be >= 1, got %d", c.Runner.Trials)})
	}
	if c.Runner.TrialTimeoutSecs < 0 {
		errs = append(errs, ValidationError{"runner.trial_timeout_secs", "must not be negative"})
	}
	if c.Runner.MaxTrialMillis < 0 {
		errs = append(errs, ValidationError{"runner.max_trial_ms", "must not be negative"})
	}
	if c.Runner.MaxTrialsPerSecond < 0 {
		errs = append(errs, ValidationError{"runner.max_trials_per_second", "must not be negative"})
	}
	if c.Runner.Workers < 0 {
		errs = append(errs, ValidationError{"runner.workers", "must not be negative"})
	}

	if c.Storage.HistoryLimit < 0 {
		errs = append(errs, ValidationError{"storage.history_limit", "must not be negative"})
	}

	if !oneOf(c.UI.Theme, validThemes) {
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("must be one of %s, got %q", strings.Join(validThemes, ", "), c.UI.Theme)})
	}
	if c.UI.ChartHeight < 4 || c.UI.ChartHeight > 60 {
		errs = append(errs, ValidationError{"ui.chart_height", fmt.Sprintf("must be between 4 and 60, got %d", c.UI.ChartHeight)})
	}

	if !oneOf(c.Logging.Level, validLevels) {
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("must be one of debug, info, warn, error, got %q", c.Logging.Level)})
	}
	if !oneOf(c.Logging.Format, validFormats) {
		errs = append(errs, ValidationError{"logging.format", fmt.Sprintf("must be text or json, got %q", c.Logging.Format)})
	}

	if c.Server.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{"server.requests_per_minute", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Runner.Trials == 0 {
		c.Runner.Trials = defaults.Runner.Trials
	}
	if c.Storage.HistoryLimit == 0 {
		c.Storage.HistoryLimit = defaults.Storage.HistoryLimit
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.ChartHeight == 0 {
		c.UI.ChartHeight = defaults.UI.ChartHeight
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
}

func oneOf(v string, valid []string) bool {
	for _, s := range valid {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - OPBENCH_WARMUP, OPBENCH_TRIALS, OPBENCH_WORKERS: runner section
//   - OPBENCH_DB: storage.path
//   - OPBENCH_LOG_LEVEL, OPBENCH_LOG_FORMAT: logging section
//   - OPBENCH_THEME: ui.theme
//   - OPBENCH_METRICS_ADDR: metrics.addr
//   - OPBENCH_SERVER_TOKEN: server.token
//   - NO_COLOR: ui.no_color
func (c *Config) ApplyEnvOverrides() {
	if v, ok := envInt("OPBENCH_WARMUP"); ok {
		c.Runner.Warmup = v
	}
	if v, ok := envInt("OPBENCH_TRIALS"); ok {
		c.Runner.Trials = v
	}
	if v, ok := envInt("OPBENCH_WORKERS"); ok {
		c.Runner.Workers = v
	}
	if path := os.Getenv("OPBENCH_DB"); path != "" {
		c.Storage.Path = path
	}
	if level := os.Getenv("OPBENCH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("OPBENCH_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if theme := os.Getenv("OPBENCH_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if addr := os.Getenv("OPBENCH_METRICS_ADDR"); addr != "" {
		c.Metrics.Addr = addr
	}
	if token := os.Getenv("OPBENCH_SERVER_TOKEN"); token != "" {
		c.Server.Token = token
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.NoColor = true
	}
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring %s=%q: not an integer\n", name, raw)
		return 0, false
	}
	return v, true
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "runner.trials").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dot key against the toml tags of Config.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Tag.Get("toml"), name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid bool value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := prefix + f.Tag.Get("toml")
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name+".", keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

// Clone returns a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Load failures fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
