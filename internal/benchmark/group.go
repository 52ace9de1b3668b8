// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrGroupNotFound = errors.New("run group not found")
	ErrUnknownOption = errors.New("unknown option")
)

// =============================================================================
// RUN GROUP
// =============================================================================

// RunGroup is a named sweep of one benchmark dimension across one or more
// competing implementations.
type RunGroup struct {
	Name string `json:"name" validate:"required"`

	// Min and Max bound the sweep steps, both inclusive.
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gtefield=Min"`
	// StepSize is the increment between two sweep steps.
	StepSize int `json:"step_size" validate:"gt=0"`

	// StepToSize maps a step to the size handed to the tests. Identity when nil.
	StepToSize func(step int) int `json:"-" validate:"-"`

	// Options are mutually exclusive variants (op names, conv types).
	Options        []string `json:"options,omitempty" validate:"omitempty,unique,dive,required"`
	SelectedOption string   `json:"selected_option,omitempty"`

	Runs []*Run `json:"-" validate:"min=1"`

	// Params holds one parameter record per option name.
	Params map[string]any `json:"params" validate:"-"`
}

// StepFloor returns a step transform that never goes below floor, so a sweep
// starting at step 0 still produces a non-degenerate input.
func StepFloor(floor int) func(step int) int {
	return func(step int) int {
		return max(floor, step)
	}
}

// Size applies the step transform.
func (g *RunGroup) Size(step int) int {
	if g.StepToSize == nil {
		return step
	}
	return g.StepToSize(step)
}

// Steps returns every step of the sweep, from Min up to and including Max.
func (g *RunGroup) Steps() []int {
	if g.StepSize <= 0 || g.Max < g.Min {
		return nil
	}
	steps := make([]int, 0, (g.Max-g.Min)/g.StepSize+1)
	for step := g.Min; step <= g.Max; step += g.StepSize {
		steps = append(steps, step)
	}
	return steps
}

// HasOptions reports whether the group declares option variants.
func (g *RunGroup) HasOptions() bool {
	return len(g.Options) > 0
}

// ResolveOption maps a requested option to the one a sweep should use. An
// empty request selects SelectedOption.
func (g *RunGroup) ResolveOption(option string) (string, error) {
	if !g.HasOptions() {
		if option != "" {
			return "", fmt.Errorf("%w: %q (group %q has no options)", ErrUnknownOption, option, g.Name)
		}
		return "", nil
	}
	if option == "" {
		return g.SelectedOption, nil
	}
	if !slices.Contains(g.Options, option) {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownOption, option, strings.Join(g.Options, ", "))
	}
	return option, nil
}

// ParamsFor returns the parameter record registered for option, or nil.
func (g *RunGroup) ParamsFor(option string) any {
	if g.Params == nil {
		return nil
	}
	return g.Params[option]
}

// SelectedParams returns the parameter record of the selected option.
func (g *RunGroup) SelectedParams() any {
	return g.ParamsFor(g.SelectedOption)
}

// Slug returns a short, stable key for the group: the lower-cased name up to
// the first ':' or '[', with spaces replaced by dashes.
func (g *RunGroup) Slug() string {
	name := g.Name
	if i := strings.IndexAny(name, ":["); i >= 0 {
		name = name[:i]
	}
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "-")
}

// RunNames lists the names of the group's runs in order.
func (g *RunGroup) RunNames() []string {
	names := make([]string, len(g.Runs))
	for i, run := range g.Runs {
		names[i] = run.Name
	}
	return names
}

// ClearChartData clears the series of every run in the group.
func (g *RunGroup) ClearChartData() {
	for _, run := range g.Runs {
		run.ClearChartData()
	}
}

// =============================================================================
// LOOKUP
// =============================================================================

// FindGroup resolves key as a 1-based index, a slug, or a case-insensitive
// name prefix.
func FindGroup(groups []RunGroup, key string) (*RunGroup, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrGroupNotFound)
	}

	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > len(groups) {
			return nil, fmt.Errorf("%w: index %d out of range 1-%d", ErrGroupNotFound, n, len(groups))
		}
		return &groups[n-1], nil
	}

	lower := strings.ToLower(key)
	for i := range groups {
		if groups[i].Slug() == lower {
			return &groups[i], nil
		}
	}
	for i := range groups {
		if strings.HasPrefix(strings.ToLower(groups[i].Name), lower) {
			return &groups[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, key)
}
