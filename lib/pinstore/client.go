// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package pinstore

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
	// PinURL is the base URL of the pinning service API
	// (e.g. "http://localhost:33038").
	PinURL string
	// GatewayURL is the base URL payloads are retrieved from. Content
	// IDs are appended as a single path segment. If empty, PinURL is
	// used with the "/v1/content" prefix, which matches the dev node.
	GatewayURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client pins and retrieves payloads over HTTP. Uploads go to the
// pinning service; downloads come from the retrieval gateway, which
// may be a different host (public IPFS gateways serve any pinned
// content).
//
// Client is safe for concurrent use.
type Client struct {
	pinURL     string
	gatewayURL string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Store = (*Client)(nil)

// NewClient creates a pinning service client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.PinURL == "" {
		return nil, fmt.Errorf("pinstore: PinURL is required")
	}
	if _, err := url.Parse(config.PinURL); err != nil {
		return nil, fmt.Errorf("pinstore: invalid PinURL %q: %w", config.PinURL, err)
	}

	gatewayURL := config.GatewayURL
	if gatewayURL == "" {
		gatewayURL = strings.TrimRight(config.PinURL, "/") + "/v1/content"
	}
	if _, err := url.Parse(gatewayURL); err != nil {
		return nil, fmt.Errorf("pinstore: invalid GatewayURL %q: %w", gatewayURL, err)
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
		pinURL:     strings.TrimRight(config.PinURL, "/"),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// pinResponse is the pinning service's answer to an upload.
type pinResponse struct {
	ContentID    ref.ContentID `json:"contentId"`
	RetrievalURL string        `json:"retrievalUrl"`
}

// Put implements Store.
func (c *Client) Put(ctx context.Context, payload []byte) (ref.ContentID, error) {
	if len(payload) == 0 {
		return ref.ContentID{}, fmt.Errorf("pinstore: empty payload")
	}

	requestURL := c.pinURL + "/v1/pins"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return ref.ContentID{}, fmt.Errorf("pinstore: creating pin request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return ref.ContentID{}, transientError("pinning payload", err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return ref.ContentID{}, transientError("reading pin response", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return ref.ContentID{}, decodeError(response.StatusCode, body, "pin")
	}

	var pinned pinResponse
	if err := json.Unmarshal(body, &pinned); err != nil {
		return ref.ContentID{}, fmt.Errorf("pinstore: parsing pin response: %w", err)
	}
	if pinned.ContentID.IsZero() {
		return ref.ContentID{}, fmt.Errorf("pinstore: pin response carries no content ID")
	}

	c.logger.Debug("pinned payload",
		"content_id", pinned.ContentID,
		"bytes", len(payload),
	)
	return pinned.ContentID, nil
}

// Get implements Store.
func (c *Client) Get(ctx context.Context, id ref.ContentID) ([]byte, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("pinstore: zero content ID")
	}

	requestURL := c.gatewayURL + "/" + id.String()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pinstore: creating retrieval request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, transientError("retrieving "+id.String(), err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, transientError("reading retrieval response", err)
	}
	if response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusGone {
		return nil, &StoreError{
			Code:       CodeNotFound,
			Message:    "no payload pinned under " + id.String(),
			StatusCode: response.StatusCode,
		}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, decodeError(response.StatusCode, body, "retrieval")
	}
	return body, nil
}

// decodeError turns a non-2xx response into a StoreError. Gateways
// that answer with the structured {"code","error"} body keep their
// code; anything else (proxy error pages) is treated as transient.
func decodeError(statusCode int, body []byte, operation string) error {
	var storeErr StoreError
	if err := json.Unmarshal(body, &storeErr); err == nil && storeErr.Code != "" {
		storeErr.StatusCode = statusCode
		return &storeErr
	}
	return transientError(
		fmt.Sprintf("%s returned HTTP %d: %s", operation, statusCode, string(body)),
		nil,
	)
}
