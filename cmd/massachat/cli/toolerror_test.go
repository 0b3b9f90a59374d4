// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestToolError_ErrorWithoutHint(t *testing.T) {
	err := Validation("missing recipient argument")
	if err.Error() != "missing recipient argument" {
		t.Errorf("Error() = %q, want %q", err.Error(), "missing recipient argument")
	}
}

func TestToolError_ErrorWithHint(t *testing.T) {
	err := Validation("missing recipient argument").
		WithHint("Pass a contact nickname or a full account address.")

	want := "missing recipient argument\n\nPass a contact nickname or a full account address."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestToolError_WithHintReturnsReceiver(t *testing.T) {
	original := Validation("bad input")
	chained := original.WithHint("fix it")
	if original != chained {
		t.Error("WithHint should return the same pointer")
	}
}

func TestToolError_WithHintPreservesCategory(t *testing.T) {
	err := NotFound("contact %q not found", "alice").
		WithHint("Run 'massachat contact list' to see known contacts.")

	if err.Category != CategoryNotFound {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNotFound)
	}
}

func TestToolError_HintSurvivesErrorsAs(t *testing.T) {
	inner := Validation("bad address").WithHint("addresses start with AU")
	wrapped := fmt.Errorf("resolve peer: %w", inner)

	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("errors.As should find ToolError in wrapped chain")
	}
	if toolErr.Hint != "addresses start with AU" {
		t.Errorf("Hint = %q after unwrap, want %q", toolErr.Hint, "addresses start with AU")
	}
}

func TestToolError_EmptyHintNotAppended(t *testing.T) {
	err := Internal("unexpected failure")
	if strings.Contains(err.Error(), "\n\n") {
		t.Error("empty hint should not add blank line to error message")
	}
}

func TestToolError_Unwrap(t *testing.T) {
	sentinel := errors.New("gateway unavailable")
	err := Transient("poll failed: %w", sentinel)

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach the wrapped sentinel through ToolError")
	}
}

func TestToolError_AllCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *ToolError
		category ErrorCategory
	}{
		{"Validation", Validation("bad"), CategoryValidation},
		{"NotFound", NotFound("missing"), CategoryNotFound},
		{"Forbidden", Forbidden("denied"), CategoryForbidden},
		{"Conflict", Conflict("duplicate"), CategoryConflict},
		{"Transient", Transient("timeout"), CategoryTransient},
		{"Internal", Internal("bug"), CategoryInternal},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.err.Category != test.category {
				t.Errorf("Category = %q, want %q", test.err.Category, test.category)
			}
			// All constructors should support WithHint.
			hinted := test.err.WithHint("try again")
			if hinted.Hint != "try again" {
				t.Errorf("Hint = %q after WithHint, want %q", hinted.Hint, "try again")
			}
		})
	}
}

func TestErrorCategory_ExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryInternal, 1},
		{CategoryValidation, 2},
		{CategoryNotFound, 3},
		{CategoryForbidden, 4},
		{CategoryConflict, 5},
		{CategoryTransient, 6},
		{ErrorCategory("unknown"), 1},
	}
	for _, test := range tests {
		t.Run(string(test.category), func(t *testing.T) {
			if got := test.category.ExitCode(); got != test.want {
				t.Errorf("ExitCode() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestErrorCategory_ExitCodesDistinct(t *testing.T) {
	categories := []ErrorCategory{
		CategoryValidation,
		CategoryNotFound,
		CategoryForbidden,
		CategoryConflict,
		CategoryTransient,
	}

	seen := make(map[int]ErrorCategory)
	for _, category := range categories {
		code := category.ExitCode()
		if previous, dup := seen[code]; dup {
			t.Errorf("categories %q and %q share exit code %d", previous, category, code)
		}
		seen[code] = category
	}
}
