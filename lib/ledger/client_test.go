// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{GatewayURL: "http://localhost:33037"})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{GatewayURL: "://invalid"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestClientAppendMessage(t *testing.T) {
	conversation := ref.ConversationFor(alice, bob)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v1/ledger/add_message" {
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		if request.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", request.Method)
		}

		var params map[string]any
		if err := json.NewDecoder(request.Body).Decode(&params); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if params["conversationId"] != conversation.String() {
			t.Errorf("conversationId = %v, want %s", params["conversationId"], conversation)
		}
		if params["cid"] != "QmSealed1" {
			t.Errorf("cid = %v, want QmSealed1", params["cid"])
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(AppendReceipt{Index: 7, Timestamp: 1_700_000_000_123})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{GatewayURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	receipt, err := client.AppendMessage(context.Background(), conversation, ref.MustParseContentID("QmSealed1"))
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if receipt.Index != 7 || receipt.Timestamp != 1_700_000_000_123 {
		t.Errorf("receipt = %+v, want index 7, timestamp 1700000000123", receipt)
	}
}

func TestClientDecodesGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusConflict)
		json.NewEncoder(writer).Encode(CallError{
			Code:    CodeUsernameTaken,
			Message: "username alice is registered to another address",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{GatewayURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.RegisterProfile(context.Background(), Profile{
		Address:  bob,
		Username: ref.MustParseUsername("alice"),
	})
	if !IsCallError(err, CodeUsernameTaken) {
		t.Fatalf("err = %v, want USERNAME_TAKEN CallError", err)
	}
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatal("error should unwrap to *CallError")
	}
	if callErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d, want %d", callErr.StatusCode, http.StatusConflict)
	}
	if !IsRejected(err) {
		t.Error("USERNAME_TAKEN should classify as rejected")
	}
	if IsTransient(err) {
		t.Error("USERNAME_TAKEN should not classify as transient")
	}
}

func TestClientNotFoundIsEmptiness(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusNotFound)
		json.NewEncoder(writer).Encode(CallError{Code: CodeNotFound, Message: "no such record"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{GatewayURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	profile, err := client.ProfileByAddress(ctx, alice)
	if err != nil || profile != nil {
		t.Errorf("ProfileByAddress = (%+v, %v), want (nil, nil)", profile, err)
	}
	record, err := client.Message(ctx, ref.ConversationFor(alice, bob), 3)
	if err != nil || record != nil {
		t.Errorf("Message = (%+v, %v), want (nil, nil)", record, err)
	}
	settings, err := client.Privacy(ctx, alice)
	if err != nil || settings != DefaultPrivacy() {
		t.Errorf("Privacy = (%+v, %v), want defaults", settings, err)
	}
	seen, err := client.LastSeen(ctx, alice)
	if err != nil || seen != 0 {
		t.Errorf("LastSeen = (%d, %v), want (0, nil)", seen, err)
	}
}

func TestClientTransportFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse all connections

	client, err := NewClient(ClientConfig{GatewayURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.LastIndex(context.Background(), ref.ConversationFor(alice, bob))
	if err == nil {
		t.Fatal("expected error from unreachable gateway")
	}
	if !IsTransient(err) {
		t.Errorf("transport failure should be transient, got: %v", err)
	}
	if IsRejected(err) {
		t.Error("transport failure should not classify as rejected")
	}
}

func TestClientNonJSONErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		writer.Write([]byte("<html>502 Bad Gateway</html>"))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{GatewayURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.LastIndex(context.Background(), ref.ConversationFor(alice, bob))
	if !IsTransient(err) {
		t.Errorf("reverse-proxy error page should be transient, got: %v", err)
	}
}
