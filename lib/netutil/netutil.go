// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP I/O helpers.
//
// ReadResponse, DecodeResponse, and ErrorBody bound all response body
// reads at MaxResponseSize to keep a misbehaving or malicious gateway
// from exhausting memory. Both wire surfaces this client talks to (the
// ledger gateway and the content pinning service) return small JSON
// documents or sealed chat payloads; the bound is generous enough to
// never interfere with normal operation, including profile media.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on response body reads: 64 MB. Sealed
// message envelopes are a few kilobytes; avatars top out in the low
// megabytes.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes. Use
// instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON response body (up to MaxResponseSize
// bytes) and decodes it into v. Replaces the io.ReadAll + json.Unmarshal
// pattern.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored; a partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
