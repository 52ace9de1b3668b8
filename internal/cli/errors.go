// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/export"
	"github.com/jeranaias/opbench/internal/storage"
	"github.com/jeranaias/opbench/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNotFoundError indicates a group or sweep was not found
	ExitNotFoundError = 7
	// ExitRegressionError indicates a sweep slowed down beyond the threshold
	ExitRegressionError = 9
	// ExitCanceled indicates the user interrupted the command
	ExitCanceled = 130
)

var (
	// ErrRegression is returned by "run --fail-on-regression" and
	// "history compare --fail-on-regression".
	ErrRegression = errors.New("performance regression detected")
	// ErrInvalidGroups is returned by "validate" when a run group is malformed.
	ErrInvalidGroups = errors.New("invalid run group definitions")
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ConfigError wraps a failure to load or apply the configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrUnsupportedFormat creates an error for unsupported formats.
func ErrUnsupportedFormat(format string, supportedFormats []string) error {
	return &ValidationError{
		Field:   "format",
		Value:   format,
		Reason:  "unsupported format",
		Example: fmt.Sprintf("supported formats: %v", supportedFormats),
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w in the CLI's error format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", styles.StatusIndicators.Error, err.Error())
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var configErr *ConfigError

	switch {
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.Is(err, ErrRegression):
		return ExitRegressionError
	case errors.Is(err, benchmark.ErrGroupNotFound), errors.Is(err, storage.ErrNotFound):
		return ExitNotFoundError
	case errors.As(err, &validationErr),
		errors.Is(err, benchmark.ErrUnknownOption),
		errors.Is(err, export.ErrUnknownFormat):
		return ExitUsageError
	default:
		return ExitGeneralError
	}
}
