// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// conversationPrefix marks derived conversation identifiers. The full
// form is "conv:<lower>:<higher>" where lower/higher are the two peer
// addresses in byte-wise ascending order.
const conversationPrefix = "conv:"

// ConversationID identifies the message sequence between exactly two
// addresses. It is derived from the pair, never minted: both peers (and
// any third party reading the ledger) compute the identical ID without
// coordination. Self-conversations (both peers equal) are valid.
//
// ConversationID is an immutable value type. The zero value is not
// valid; use IsZero to check.
type ConversationID struct {
	id string
}

// ConversationFor derives the conversation ID for the pair (a, b).
// The derivation is symmetric: ConversationFor(a, b) and
// ConversationFor(b, a) are equal. Panics if either address is the
// zero value, which is always a programming error.
func ConversationFor(a, b Address) ConversationID {
	if a.IsZero() || b.IsZero() {
		panic("ref.ConversationFor: zero address")
	}
	lower, higher := a.addr, b.addr
	if higher < lower {
		lower, higher = higher, lower
	}
	return ConversationID{id: conversationPrefix + lower + ":" + higher}
}

// ParseConversationID validates and wraps a stored conversation ID
// string. The value must carry the "conv:" prefix, contain exactly two
// valid addresses, and have them in canonical (sorted) order.
func ParseConversationID(raw string) (ConversationID, error) {
	rest, ok := strings.CutPrefix(raw, conversationPrefix)
	if !ok {
		return ConversationID{}, fmt.Errorf("conversation ID %q: missing %q prefix", raw, conversationPrefix)
	}
	lower, higher, ok := strings.Cut(rest, ":")
	if !ok {
		return ConversationID{}, fmt.Errorf("conversation ID %q: expected two ':'-separated addresses", raw)
	}
	if _, err := ParseAddress(lower); err != nil {
		return ConversationID{}, fmt.Errorf("conversation ID %q: first address: %w", raw, err)
	}
	if _, err := ParseAddress(higher); err != nil {
		return ConversationID{}, fmt.Errorf("conversation ID %q: second address: %w", raw, err)
	}
	if higher < lower {
		return ConversationID{}, fmt.Errorf("conversation ID %q: addresses are not in canonical order", raw)
	}
	return ConversationID{id: raw}, nil
}

// String returns the full conversation ID (e.g. "conv:AU1xx:AU1yy").
func (c ConversationID) String() string { return c.id }

// IsZero reports whether the ConversationID is the zero value.
func (c ConversationID) IsZero() bool { return c.id == "" }

// Peers returns the two participant addresses in canonical order.
// Panics on the zero value.
func (c ConversationID) Peers() (lower, higher Address) {
	if c.id == "" {
		panic("ref.ConversationID.Peers: zero conversation ID")
	}
	rest := strings.TrimPrefix(c.id, conversationPrefix)
	lowerRaw, higherRaw, _ := strings.Cut(rest, ":")
	return Address{addr: lowerRaw}, Address{addr: higherRaw}
}

// MarshalText implements encoding.TextMarshaler.
func (c ConversationID) MarshalText() ([]byte, error) {
	if c.id == "" {
		return nil, nil
	}
	return []byte(c.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (c *ConversationID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = ConversationID{}
		return nil
	}
	parsed, err := ParseConversationID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
