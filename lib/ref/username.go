// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxUsernameLength bounds usernames in bytes, not runes.
const maxUsernameLength = 64

// Username is a validated human-readable handle. The registry treats
// usernames as unique case-insensitively: "Alice" and "alice" collide.
// The value preserves the casing the owner registered with; Key returns
// the case-folded form used for uniqueness and lookup.
//
// Username is an immutable value type. The zero value is not valid;
// use IsZero to check.
type Username struct {
	name string
}

// ParseUsername validates and wraps a raw username string. Usernames
// must be valid UTF-8, 1 to 64 bytes, and contain no whitespace or
// control characters.
func ParseUsername(raw string) (Username, error) {
	if raw == "" {
		return Username{}, fmt.Errorf("empty username")
	}
	if len(raw) > maxUsernameLength {
		return Username{}, fmt.Errorf("username %q is %d bytes, maximum is %d", raw, len(raw), maxUsernameLength)
	}
	if !utf8.ValidString(raw) {
		return Username{}, fmt.Errorf("username %q is not valid UTF-8", raw)
	}
	for i, r := range raw {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return Username{}, fmt.Errorf("username %q: whitespace or control character at position %d", raw, i)
		}
	}
	return Username{name: raw}, nil
}

// MustParseUsername is like ParseUsername but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseUsername(raw string) Username {
	u, err := ParseUsername(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUsername(%q): %v", raw, err))
	}
	return u
}

// String returns the username with its registered casing.
func (u Username) String() string { return u.name }

// Key returns the case-folded form under which the username is unique.
// Two usernames are the same identity exactly when their keys are equal.
func (u Username) Key() string { return strings.ToLower(u.name) }

// IsZero reports whether the Username is the zero value (uninitialized).
func (u Username) IsZero() bool { return u.name == "" }

// MarshalText implements encoding.TextMarshaler.
func (u Username) MarshalText() ([]byte, error) {
	if u.name == "" {
		return nil, nil
	}
	return []byte(u.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset username).
func (u *Username) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = Username{}
		return nil
	}
	parsed, err := ParseUsername(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
