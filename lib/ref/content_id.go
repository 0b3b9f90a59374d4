// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxContentIDLength bounds content identifiers. IPFS CIDv1 strings are
// around 60 characters; the bound admits longer multihash encodings.
const maxContentIDLength = 256

// ContentID is a validated content-store identifier (e.g. an IPFS CID).
// The store assigns it at upload time; everything here treats it as an
// opaque retrieval handle. Validation only rejects empty values and
// characters that would corrupt URLs or log lines.
//
// ContentID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type ContentID struct {
	cid string
}

// ParseContentID validates and wraps a raw content identifier.
func ParseContentID(raw string) (ContentID, error) {
	if raw == "" {
		return ContentID{}, fmt.Errorf("empty content ID")
	}
	if len(raw) > maxContentIDLength {
		return ContentID{}, fmt.Errorf("content ID is %d characters, maximum is %d", len(raw), maxContentIDLength)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c <= ' ' || c == 0x7f || c == '/' || c == '?' || c == '#' {
			return ContentID{}, fmt.Errorf("content ID %q: invalid character at position %d", raw, i)
		}
	}
	return ContentID{cid: raw}, nil
}

// MustParseContentID is like ParseContentID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseContentID(raw string) ContentID {
	c, err := ParseContentID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseContentID(%q): %v", raw, err))
	}
	return c
}

// String returns the content identifier string.
func (c ContentID) String() string { return c.cid }

// IsZero reports whether the ContentID is the zero value.
func (c ContentID) IsZero() bool { return c.cid == "" }

// MarshalText implements encoding.TextMarshaler.
func (c ContentID) MarshalText() ([]byte, error) {
	if c.cid == "" {
		return nil, nil
	}
	return []byte(c.cid), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset content ID).
func (c *ContentID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = ContentID{}
		return nil
	}
	parsed, err := ParseContentID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
