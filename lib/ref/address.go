// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxAddressLength bounds chain account addresses. Massa user addresses
// are around 52 characters; the bound leaves headroom for other address
// classes without admitting arbitrary blobs.
const maxAddressLength = 128

// Address is a validated chain account address (e.g.
// "AU12Cz4icLq4QcyJkjTAdYyHPDGAnxpyJoHYkqgB8FNgh1kDIAwc").
//
// The ledger treats addresses as opaque identity strings: no checksum or
// ed25519 structure is verified here. Validation only rejects values
// that would break derived identifiers or storage paths: empty strings,
// whitespace and control characters, ':' which delimits conversation
// IDs, and path separators since keyring files are named by address.
//
// Address is an immutable value type. The zero value is not valid; use
// IsZero to check.
type Address struct {
	addr string
}

// ParseAddress validates and wraps a raw account address string.
func ParseAddress(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	if len(raw) > maxAddressLength {
		return Address{}, fmt.Errorf("address is %d characters, maximum is %d", len(raw), maxAddressLength)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c <= ' ' || c == 0x7f {
			return Address{}, fmt.Errorf("address %q: invalid character at position %d", raw, i)
		}
		if c == ':' {
			return Address{}, fmt.Errorf("address %q: ':' is reserved as the conversation delimiter", raw)
		}
		if c == '/' || c == '\\' {
			return Address{}, fmt.Errorf("address %q: path separator at position %d", raw, i)
		}
	}
	return Address{addr: raw}, nil
}

// MustParseAddress is like ParseAddress but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseAddress(raw string) Address {
	a, err := ParseAddress(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseAddress(%q): %v", raw, err))
	}
	return a
}

// String returns the address string exactly as parsed.
func (a Address) String() string { return a.addr }

// IsZero reports whether the Address is the zero value (uninitialized).
func (a Address) IsZero() bool { return a.addr == "" }

// Less reports whether a orders before other in the byte-wise ordering
// used to derive conversation IDs.
func (a Address) Less(other Address) bool { return a.addr < other.addr }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (a Address) MarshalText() ([]byte, error) {
	if a.addr == "" {
		return nil, nil
	}
	return []byte(a.addr), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset address).
func (a *Address) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
