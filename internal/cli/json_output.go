// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
)

// JSONResponse is the envelope every command prints in --json mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// OutputJSON runs handler and prints its data, or its error, as a JSON
// response on w. The handler error is returned either way.
func OutputJSON(w io.Writer, command string, handler func() (interface{}, error)) error {
	data, err := handler()
	if err != nil {
		NewJSONErrorResponse(command, err).Print(w)
		return err
	}
	return NewJSONResponse(command, data).Print(w)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// GroupInfo describes one run group in "list --json".
type GroupInfo struct {
	Index          int      `json:"index"`
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Min            int      `json:"min"`
	Max            int      `json:"max"`
	StepSize       int      `json:"step_size"`
	Steps          int      `json:"steps"`
	MinSize        int      `json:"min_size"`
	MaxSize        int      `json:"max_size"`
	Options        []string `json:"options,omitempty"`
	SelectedOption string   `json:"selected_option,omitempty"`
	Params         any      `json:"params,omitempty"`
	Runs           []string `json:"runs"`
}

// ValidateData is printed by "validate --json".
type ValidateData struct {
	Groups int      `json:"groups"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// CompareData is printed by "history compare --json".
type CompareData struct {
	Previous    string                 `json:"previous"`
	Current     string                 `json:"current"`
	Threshold   float64                `json:"threshold_pct"`
	Comparisons []benchmark.Comparison `json:"comparisons"`
	Regressions []benchmark.Comparison `json:"regressions"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
