// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// Request body bounds. Ledger calls carry small JSON parameter maps;
// pins carry sealed envelopes and profile media.
const (
	maxCallBodySize = 64 * 1024
	maxPinBodySize  = 16 << 20
)

// Handler serves the ledger gateway routes and the pinning service
// routes from in-process state. It implements http.Handler; tests
// mount it on an httptest.Server, the dev node binary on a TCP
// listener.
type Handler struct {
	ledger *ledger.Memory
	store  *pinstore.Memory
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewHandler creates a handler over the given in-memory ledger and
// store. Nil arguments get fresh empty instances; passing them in lets
// tests seed state and inject a fake clock.
func NewHandler(ledgerMemory *ledger.Memory, store *pinstore.Memory, logger *slog.Logger) *Handler {
	if ledgerMemory == nil {
		ledgerMemory = ledger.NewMemory(nil)
	}
	if store == nil {
		store = pinstore.NewMemory()
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		ledger: ledgerMemory,
		store:  store,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ledger/{method}", h.handleLedgerCall)
	mux.HandleFunc("POST /v1/pins", h.handlePin)
	mux.HandleFunc("GET /v1/content/{cid}", h.handleContent)
	mux.HandleFunc("GET /health", h.handleHealth)
	h.mux = mux
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// handleLedgerCall runs one contract method. The method name comes
// from the URL path, parameters arrive as the JSON body, and failures
// leave as {"code","error"} bodies with a status implied by the code.
func (h *Handler) handleLedgerCall(w http.ResponseWriter, r *http.Request) {
	method := r.PathValue("method")

	r.Body = http.MaxBytesReader(w, r.Body, maxCallBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeLedgerError(w, method, &ledger.CallError{
				Code:    ledger.CodeInvalidParam,
				Message: fmt.Sprintf("%s params exceed %d bytes", method, maxCallBodySize),
			})
			return
		}
		h.writeLedgerError(w, method, &ledger.CallError{
			Code:    ledger.CodeUnavailable,
			Message: fmt.Sprintf("reading %s params: %v", method, err),
		})
		return
	}

	result, err := h.callLedger(r.Context(), method, body)
	if err != nil {
		h.writeLedgerError(w, method, err)
		return
	}

	h.logger.Debug("ledger call", "method", method)
	h.writeJSON(w, result)
}

// callLedger decodes the method's parameters and runs it against the
// in-memory ledger. Lookups the Ledger interface reports as nil leave
// here as NOT_FOUND errors: the wire protocol expresses emptiness as
// an error body, and the client turns it back into nil.
func (h *Handler) callLedger(ctx context.Context, method string, body []byte) (any, error) {
	switch method {
	case "register_profile":
		var profile ledger.Profile
		if err := unmarshalParams(method, body, &profile); err != nil {
			return nil, err
		}
		return h.ledger.RegisterProfile(ctx, profile)

	case "get_profile_by_address":
		var params struct {
			Address ref.Address `json:"address"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		profile, err := h.ledger.ProfileByAddress(ctx, params.Address)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, notFound("no profile registered at " + params.Address.String())
		}
		return profile, nil

	case "get_profile_by_username":
		var params struct {
			Username ref.Username `json:"username"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		profile, err := h.ledger.ProfileByUsername(ctx, params.Username)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, notFound("username " + params.Username.String() + " is not registered")
		}
		return profile, nil

	case "set_privacy":
		var params struct {
			Address ref.Address `json:"address"`
			ledger.PrivacySettings
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		if err := h.ledger.SetPrivacy(ctx, params.Address, params.PrivacySettings); err != nil {
			return nil, err
		}
		return struct{}{}, nil

	case "get_privacy":
		var params struct {
			Address ref.Address `json:"address"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		return h.ledger.Privacy(ctx, params.Address)

	case "set_blocked":
		var params struct {
			Address ref.Address `json:"address"`
			Peer    ref.Address `json:"peer"`
			Blocked bool        `json:"blocked"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		if err := h.ledger.SetBlocked(ctx, params.Address, params.Peer, params.Blocked); err != nil {
			return nil, err
		}
		return struct{}{}, nil

	case "is_blocked":
		var params struct {
			Address ref.Address `json:"address"`
			Peer    ref.Address `json:"peer"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		blocked, err := h.ledger.IsBlocked(ctx, params.Address, params.Peer)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"blocked": blocked}, nil

	case "touch_last_seen":
		var params struct {
			Address ref.Address `json:"address"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		if err := h.ledger.TouchLastSeen(ctx, params.Address); err != nil {
			return nil, err
		}
		return struct{}{}, nil

	case "get_last_seen":
		var params struct {
			Address ref.Address `json:"address"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		lastSeen, err := h.ledger.LastSeen(ctx, params.Address)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"lastSeen": lastSeen}, nil

	case "add_message":
		var params struct {
			Conversation ref.ConversationID `json:"conversationId"`
			CID          ref.ContentID      `json:"cid"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		return h.ledger.AppendMessage(ctx, params.Conversation, params.CID)

	case "get_message":
		var params struct {
			Conversation ref.ConversationID `json:"conversationId"`
			Index        uint64             `json:"index"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		record, err := h.ledger.Message(ctx, params.Conversation, params.Index)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, notFound(fmt.Sprintf("conversation %s has no message at index %d", params.Conversation, params.Index))
		}
		return record, nil

	case "get_last_index":
		var params struct {
			Conversation ref.ConversationID `json:"conversationId"`
		}
		if err := unmarshalParams(method, body, &params); err != nil {
			return nil, err
		}
		lastIndex, err := h.ledger.LastIndex(ctx, params.Conversation)
		if err != nil {
			return nil, err
		}
		return map[string]uint64{"lastIndex": lastIndex}, nil
	}

	return nil, &ledger.CallError{
		Code:    ledger.CodeInvalidParam,
		Message: fmt.Sprintf("unknown ledger method %q", method),
	}
}

// pinnedResponse is the pinning service's answer to an upload.
type pinnedResponse struct {
	ContentID    ref.ContentID `json:"contentId"`
	RetrievalURL string        `json:"retrievalUrl"`
}

// handlePin pins an uploaded payload and answers with its content ID
// and a retrieval URL pointing back at this node's content route.
func (h *Handler) handlePin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPinBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, pinstore.CodeRejected,
				fmt.Sprintf("payload exceeds %d bytes", maxPinBodySize))
			return
		}
		h.writeError(w, http.StatusServiceUnavailable, pinstore.CodeUnavailable,
			fmt.Sprintf("reading payload: %v", err))
		return
	}
	if len(payload) == 0 {
		h.writeError(w, http.StatusBadRequest, pinstore.CodeRejected, "empty payload")
		return
	}

	id, err := h.store.Put(r.Context(), payload)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, pinstore.CodeUnavailable, err.Error())
		return
	}

	h.logger.Debug("pinned payload", "content_id", id, "bytes", len(payload))
	h.writeJSON(w, pinnedResponse{
		ContentID:    id,
		RetrievalURL: "http://" + r.Host + "/v1/content/" + id.String(),
	})
}

// handleContent serves a pinned payload by content ID.
func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	id, err := ref.ParseContentID(r.PathValue("cid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, pinstore.CodeRejected,
			fmt.Sprintf("invalid content ID: %v", err))
		return
	}

	payload, err := h.store.Get(r.Context(), id)
	if err != nil {
		if pinstore.IsNotFound(err) {
			h.writeError(w, http.StatusNotFound, pinstore.CodeNotFound,
				"no payload pinned under "+id.String())
			return
		}
		h.writeError(w, http.StatusServiceUnavailable, pinstore.CodeUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(payload); err != nil {
		h.logger.Warn("writing payload response", "error", err, "content_id", id)
	}
}

// writeLedgerError sends a contract error as the structured wire body.
// Errors without a ledger code are reported as UNAVAILABLE so clients
// classify them as transient.
func (h *Handler) writeLedgerError(w http.ResponseWriter, method string, err error) {
	var callErr *ledger.CallError
	if !errors.As(err, &callErr) {
		callErr = &ledger.CallError{Code: ledger.CodeUnavailable, Message: err.Error()}
	}
	h.logger.Debug("ledger call failed",
		"method", method,
		"code", callErr.Code,
		"error", callErr.Message,
	)
	h.writeError(w, ledgerStatus(callErr.Code), callErr.Code, callErr.Message)
}

// ledgerStatus maps contract error codes onto HTTP statuses. Clients
// recover the code from the body; the status is for log lines and curl.
func ledgerStatus(code string) int {
	switch code {
	case ledger.CodeInvalidParam:
		return http.StatusBadRequest
	case ledger.CodeNotFound:
		return http.StatusNotFound
	case ledger.CodeUsernameTaken:
		return http.StatusConflict
	case ledger.CodeRejected:
		return http.StatusForbidden
	case ledger.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes the structured {"code","error"} wire error body.
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"code": code, "error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Warn("writing JSON error response", "error", err, "status", statusCode)
	}
}

// writeJSON encodes value as JSON into w, setting the Content-Type
// header. If encoding fails (typically because the client went away),
// the error is logged; there is no corrective response to send.
func (h *Handler) writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Warn("writing JSON response", "error", err)
	}
}

// unmarshalParams decodes a method's JSON parameters. Malformed JSON
// and invalid identifier values both reject with INVALID_PARAM.
func unmarshalParams(method string, body []byte, into any) error {
	if err := json.Unmarshal(body, into); err != nil {
		return &ledger.CallError{
			Code:    ledger.CodeInvalidParam,
			Message: fmt.Sprintf("invalid %s params: %v", method, err),
		}
	}
	return nil
}

func notFound(message string) *ledger.CallError {
	return &ledger.CallError{Code: ledger.CodeNotFound, Message: message}
}
