// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anikeaty08/MassaChat/lib/netutil"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// GatewayURL is the base URL of the ledger gateway
	// (e.g. "http://localhost:33037").
	GatewayURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client calls the chat contract through a ledger gateway. Every
// contract method is one POST to /v1/ledger/<method> with JSON
// parameters; the gateway submits writes to the chain and answers
// reads from finalized state.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Ledger = (*Client)(nil)

// NewClient creates a ledger gateway client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.GatewayURL == "" {
		return nil, fmt.Errorf("ledger: GatewayURL is required")
	}
	// Validate the URL structure. The string form (with trailing slash
	// stripped) is stored and request URLs are built by concatenation,
	// avoiding double-encoding through url.URL.String().
	if _, err := url.Parse(config.GatewayURL); err != nil {
		return nil, fmt.Errorf("ledger: invalid GatewayURL %q: %w", config.GatewayURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.GatewayURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's pool. Call after a network disruption to force fresh TCP
// connections instead of reusing a poisoned pooled connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// RegisterProfile implements Ledger.
func (c *Client) RegisterProfile(ctx context.Context, profile Profile) (*Profile, error) {
	params := map[string]any{
		"address":     profile.Address,
		"username":    profile.Username,
		"displayName": profile.DisplayName,
		"bio":         profile.Bio,
	}
	if !profile.AvatarContentID.IsZero() {
		params["avatarContentId"] = profile.AvatarContentID
	}

	var stored Profile
	if err := c.call(ctx, "register_profile", params, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ProfileByAddress implements Ledger.
func (c *Client) ProfileByAddress(ctx context.Context, address ref.Address) (*Profile, error) {
	var profile Profile
	err := c.call(ctx, "get_profile_by_address", map[string]any{"address": address}, &profile)
	if IsCallError(err, CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByUsername implements Ledger.
func (c *Client) ProfileByUsername(ctx context.Context, username ref.Username) (*Profile, error) {
	var profile Profile
	err := c.call(ctx, "get_profile_by_username", map[string]any{"username": username}, &profile)
	if IsCallError(err, CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetPrivacy implements Ledger.
func (c *Client) SetPrivacy(ctx context.Context, owner ref.Address, settings PrivacySettings) error {
	params := map[string]any{
		"address":          owner,
		"showLastSeen":     settings.ShowLastSeen,
		"showProfilePhoto": settings.ShowProfilePhoto,
		"showBio":          settings.ShowBio,
	}
	return c.call(ctx, "set_privacy", params, nil)
}

// Privacy implements Ledger.
func (c *Client) Privacy(ctx context.Context, owner ref.Address) (PrivacySettings, error) {
	var settings PrivacySettings
	err := c.call(ctx, "get_privacy", map[string]any{"address": owner}, &settings)
	if IsCallError(err, CodeNotFound) {
		return DefaultPrivacy(), nil
	}
	if err != nil {
		return PrivacySettings{}, err
	}
	return settings, nil
}

// SetBlocked implements Ledger.
func (c *Client) SetBlocked(ctx context.Context, owner, peer ref.Address, blocked bool) error {
	params := map[string]any{
		"address": owner,
		"peer":    peer,
		"blocked": blocked,
	}
	return c.call(ctx, "set_blocked", params, nil)
}

// IsBlocked implements Ledger.
func (c *Client) IsBlocked(ctx context.Context, owner, peer ref.Address) (bool, error) {
	var result struct {
		Blocked bool `json:"blocked"`
	}
	params := map[string]any{"address": owner, "peer": peer}
	if err := c.call(ctx, "is_blocked", params, &result); err != nil {
		return false, err
	}
	return result.Blocked, nil
}

// TouchLastSeen implements Ledger.
func (c *Client) TouchLastSeen(ctx context.Context, owner ref.Address) error {
	return c.call(ctx, "touch_last_seen", map[string]any{"address": owner}, nil)
}

// LastSeen implements Ledger.
func (c *Client) LastSeen(ctx context.Context, owner ref.Address) (int64, error) {
	var result struct {
		LastSeen int64 `json:"lastSeen"`
	}
	err := c.call(ctx, "get_last_seen", map[string]any{"address": owner}, &result)
	if IsCallError(err, CodeNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.LastSeen, nil
}

// AppendMessage implements Ledger.
func (c *Client) AppendMessage(ctx context.Context, conversation ref.ConversationID, cid ref.ContentID) (*AppendReceipt, error) {
	params := map[string]any{
		"conversationId": conversation,
		"cid":            cid,
	}
	var receipt AppendReceipt
	if err := c.call(ctx, "add_message", params, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Message implements Ledger.
func (c *Client) Message(ctx context.Context, conversation ref.ConversationID, index uint64) (*MessageRecord, error) {
	params := map[string]any{
		"conversationId": conversation,
		"index":          index,
	}
	var record MessageRecord
	err := c.call(ctx, "get_message", params, &record)
	if IsCallError(err, CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LastIndex implements Ledger.
func (c *Client) LastIndex(ctx context.Context, conversation ref.ConversationID) (uint64, error) {
	var result struct {
		LastIndex uint64 `json:"lastIndex"`
	}
	params := map[string]any{"conversationId": conversation}
	if err := c.call(ctx, "get_last_index", params, &result); err != nil {
		return 0, err
	}
	return result.LastIndex, nil
}

// call performs one contract method call. Gateway errors arrive as
// non-2xx responses with a {"code","error"} body and come back as
// *CallError; transport failures come back as *CallError with
// CodeUnavailable. A nil result discards the response body.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("ledger: encoding %s params: %w", method, err)
	}

	requestURL := c.baseURL + "/v1/ledger/" + method
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("ledger: creating %s request: %w", method, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return transientError(fmt.Sprintf("calling %s", method), err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return transientError(fmt.Sprintf("reading %s response", method), err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var callErr CallError
		if jsonErr := json.Unmarshal(body, &callErr); jsonErr != nil || callErr.Code == "" {
			// A non-JSON error body means the gateway itself is broken
			// or absent (reverse proxy error page). Treat as transient.
			return transientError(
				fmt.Sprintf("%s returned HTTP %d: %s", method, response.StatusCode, string(body)),
				nil,
			)
		}
		callErr.StatusCode = response.StatusCode
		return &callErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("ledger: parsing %s response: %w", method, err)
	}
	return nil
}
