// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		LastIndex uint64 `json:"lastIndex"`
	}
	if err := DecodeResponse(strings.NewReader(`{"lastIndex":42}`), &decoded); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if decoded.LastIndex != 42 {
		t.Errorf("lastIndex = %d, want 42", decoded.LastIndex)
	}
}

func TestDecodeResponseRejectsMalformed(t *testing.T) {
	var decoded map[string]any
	if err := DecodeResponse(strings.NewReader(`{"truncated":`), &decoded); err == nil {
		t.Error("DecodeResponse should fail on malformed JSON")
	}
}

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("ReadResponse = %q, want %q", data, "payload")
	}
}

func TestErrorBodySwallowsReadErrors(t *testing.T) {
	if got := ErrorBody(strings.NewReader("oops")); got != "oops" {
		t.Errorf("ErrorBody = %q, want %q", got, "oops")
	}
}
