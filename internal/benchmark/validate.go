// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationError describes one structural defect of a run group.
type ValidationError struct {
	Group   string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Group, e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// groupValidate checks the struct tags of RunGroup.
var groupValidate = validator.New()

// =============================================================================
// RUN GROUP VALIDATION
// =============================================================================

// Validate checks the authoring invariants of a group: sweep bounds, runs,
// and the alignment of Options, SelectedOption and Params. The builder does
// not call it; callers opt in.
func (g *RunGroup) Validate() error {
	var errs ValidateErrors
	name := g.Name
	if name == "" {
		name = "<unnamed>"
	}

	if err := groupValidate.Struct(g); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate run group %q: %w", name, err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Group:   name,
				Field:   fe.Field(),
				Message: describeFieldError(fe),
			})
		}
	}

	for i, run := range g.Runs {
		field := fmt.Sprintf("Runs[%d]", i)
		if run == nil {
			errs = append(errs, ValidationError{Group: name, Field: field, Message: "run is nil"})
			continue
		}
		if run.Name == "" {
			errs = append(errs, ValidationError{Group: name, Field: field + ".Name", Message: "must not be empty"})
		}
		if run.Test == nil {
			errs = append(errs, ValidationError{Group: name, Field: field + ".Test", Message: "must not be nil"})
		}
	}

	if g.HasOptions() {
		if !slices.Contains(g.Options, g.SelectedOption) {
			errs = append(errs, ValidationError{
				Group:   name,
				Field:   "SelectedOption",
				Message: fmt.Sprintf("%q is not one of the declared options", g.SelectedOption),
			})
		}
		for _, opt := range g.Options {
			if _, ok := g.Params[opt]; !ok {
				errs = append(errs, ValidationError{
					Group:   name,
					Field:   "Params",
					Message: fmt.Sprintf("missing parameter record for option %q", opt),
				})
			}
		}
		for _, key := range sortedKeys(g.Params) {
			if !slices.Contains(g.Options, key) {
				errs = append(errs, ValidationError{
					Group:   name,
					Field:   "Params",
					Message: fmt.Sprintf("parameter record for undeclared option %q", key),
				})
			}
		}
	} else if g.SelectedOption != "" {
		errs = append(errs, ValidationError{
			Group:   name,
			Field:   "SelectedOption",
			Message: "set but the group declares no options",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateGroups validates every group and also rejects duplicate names and
// slugs, which would make CLI lookups ambiguous.
func ValidateGroups(groups []RunGroup) error {
	var errs ValidateErrors
	seenName := make(map[string]bool, len(groups))
	seenSlug := make(map[string]bool, len(groups))

	for i := range groups {
		g := &groups[i]
		if err := g.Validate(); err != nil {
			var groupErrs ValidateErrors
			if errors.As(err, &groupErrs) {
				errs = append(errs, groupErrs...)
			} else {
				return err
			}
		}
		if g.Name != "" && seenName[g.Name] {
			errs = append(errs, ValidationError{Group: g.Name, Field: "Name", Message: "duplicate group name"})
		}
		if slug := g.Slug(); slug != "" && seenSlug[slug] {
			errs = append(errs, ValidationError{Group: g.Name, Field: "Name", Message: fmt.Sprintf("duplicate slug %q", slug)})
		}
		seenName[g.Name] = true
		seenSlug[g.Slug()] = true
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("must be > %s, got %v", fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "unique":
		return "must not contain duplicates"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
