// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package pinstore adapts the content-addressed pinning service that
// holds sealed message payloads and profile media.
//
// The store is dumb on purpose: payloads go in, a content ID comes
// back, the payload comes out by ID. Everything pinned here is already
// sealed or public; the store never sees plaintext and is trusted only
// for availability, not integrity or confidentiality. The ledger is
// what binds a content ID into a conversation.
//
// Two implementations: Client speaks HTTP to a pinning service and its
// retrieval gateway; Memory holds payloads in process for tests and
// the dev node.
package pinstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

// Store is the content store surface the messenger uses.
//
// Put pins a payload and returns its content ID; the payload is
// retrievable by every participant once Put returns. Get retrieves a
// pinned payload; an ID nothing was pinned under fails with a
// NOT_FOUND *StoreError, unreachability with UNAVAILABLE.
type Store interface {
	Put(ctx context.Context, payload []byte) (ref.ContentID, error)
	Get(ctx context.Context, id ref.ContentID) ([]byte, error)
}

// Store error codes.
const (
	// CodeNotFound: no payload is pinned under the requested ID. This
	// is a definite answer from the store, not a failure to reach it.
	CodeNotFound = "NOT_FOUND"
	// CodeRejected: the store refused the payload (too large, quota).
	CodeRejected = "REJECTED"
	// CodeUnavailable: the store or gateway could not be reached or
	// did not answer in time. Retrying can succeed.
	CodeUnavailable = "UNAVAILABLE"
)

// StoreError represents a structured failure from the pinning service.
type StoreError struct {
	// Code is one of the Code* constants.
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"error"`
	// StatusCode is the HTTP status of the response, 0 for errors
	// raised locally.
	StatusCode int `json:"-"`

	cause error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pinstore: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pinstore: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *StoreError) Unwrap() error { return e.cause }

// IsStoreError checks whether err is a *StoreError with the given code.
func IsStoreError(err error, code string) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is the store's definite answer that
// nothing is pinned under the ID.
func IsNotFound(err error) bool {
	return IsStoreError(err, CodeNotFound)
}

// IsTransient reports whether err is transient I/O against the store,
// where retrying the identical call can succeed.
func IsTransient(err error) bool {
	return IsStoreError(err, CodeUnavailable)
}

// transientError wraps a transport failure as an UNAVAILABLE
// StoreError.
func transientError(message string, cause error) *StoreError {
	return &StoreError{
		Code:    CodeUnavailable,
		Message: message,
		cause:   cause,
	}
}
