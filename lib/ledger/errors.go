// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
)

// CallError represents a structured error from a ledger call. Callers
// can use errors.As to extract the structured information:
//
//	var callErr *ledger.CallError
//	if errors.As(err, &callErr) {
//	    if callErr.Code == ledger.CodeUsernameTaken { ... }
//	}
//
// or the IsRejected / IsTransient classifiers for the two families that
// matter to retry policy.
type CallError struct {
	// Code is the ledger error code (e.g. "USERNAME_TAKEN").
	Code string `json:"code"`
	// Message is the human-readable description from the gateway.
	Message string `json:"error"`
	// StatusCode is the HTTP status of the response, 0 for errors
	// raised locally (transport failures, memory ledger rejections).
	StatusCode int `json:"-"`

	cause error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ledger: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ledger: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *CallError) Unwrap() error { return e.cause }

// Ledger error codes.
const (
	// CodeRejected is a permanent refusal: the call was understood and
	// will never succeed as issued (e.g. appending for a blocked pair
	// on a gateway that enforces blocks).
	CodeRejected = "REJECTED"
	// CodeUsernameTaken rejects a profile registration whose username
	// is held by a different address.
	CodeUsernameTaken = "USERNAME_TAKEN"
	// CodeInvalidParam rejects malformed call parameters.
	CodeInvalidParam = "INVALID_PARAM"
	// CodeNotFound marks a lookup with no stored record. The Client
	// converts it to a nil result; it only surfaces as an error from
	// gateways on routes where emptiness is unexpected.
	CodeNotFound = "NOT_FOUND"
	// CodeUnavailable marks transient unreachability: the gateway or
	// chain could not be reached or did not answer in time. Retrying
	// the identical call can succeed.
	CodeUnavailable = "UNAVAILABLE"
)

// IsCallError checks whether err is a *CallError with the given code.
func IsCallError(err error, code string) bool {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Code == code
	}
	return false
}

// IsRejected reports whether err is a permanent refusal. Retrying the
// identical call cannot succeed; the inputs have to change.
func IsRejected(err error) bool {
	var callErr *CallError
	if !errors.As(err, &callErr) {
		return false
	}
	switch callErr.Code {
	case CodeRejected, CodeUsernameTaken, CodeInvalidParam:
		return true
	}
	return false
}

// IsTransient reports whether err is transient I/O: the call may never
// have reached the ledger, and retrying it as-is can succeed. Write
// finalization still holds: a transient error means the write did not
// commit.
func IsTransient(err error) bool {
	return IsCallError(err, CodeUnavailable)
}

// transientError wraps a transport failure as an UNAVAILABLE CallError
// so that one classification covers gateway-reported and locally
// detected unreachability.
func transientError(message string, cause error) *CallError {
	return &CallError{
		Code:    CodeUnavailable,
		Message: message,
		cause:   cause,
	}
}
