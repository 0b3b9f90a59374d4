// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger defines the chat contract surface of the chain ledger
// and its two implementations: an HTTP client speaking to a ledger
// gateway, and an in-process memory ledger for tests and the dev node.
//
// The ledger is the authority for everything except message bodies:
// profiles (address-keyed, username-unique), privacy settings, block
// edges, last-seen timestamps, and the per-conversation message
// sequences. A conversation's records are append-only with 1-based,
// gapless indices; the index order is the commitment order and the only
// ordering the client trusts.
//
// Writes finalize before they return: a nil error means the write is
// irreversibly committed, an error means it definitely did not commit.
// There is no in-flight state to observe. Absent records are emptiness,
// not errors: lookups return nil (or the documented default) when
// nothing is stored.
//
// Identity-bearing writes (profiles, privacy, blocks, last-seen) take
// the acting address as a parameter. Binding that address to a verified
// transaction signer is the contract's obligation behind the gateway;
// this package transports the claim, it cannot check it.
//
// Errors carry the gateway's error code in *CallError. IsRejected
// classifies permanent refusals (invalid parameters, username taken);
// IsTransient classifies unreachability and timeouts, where retrying
// the same call can succeed.
package ledger
