// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references for
// MassaChat entities: chain account addresses, usernames, conversation
// identifiers, and content identifiers.
//
// All constructors validate their inputs and return errors for invalid
// values. Once constructed, a ref is immutable. The zero value of every
// type is invalid; use IsZero to check.
//
// Conversation identifiers are derived, never stored as state: the same
// pair of addresses always yields the same ConversationID regardless of
// argument order. JSON marshaling uses the canonical string form via
// encoding.TextMarshaler.
package ref
