// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package pinstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

// contentKey is the keyed-hash domain for content IDs, distinct from
// every other keyed-hash domain in the codebase. Keys are the domain
// name padded with zeros to 32 bytes.
var contentKey = makeDomainKey("massachat.content")

func makeDomainKey(domain string) [32]byte {
	if len(domain) > 32 {
		panic(fmt.Sprintf("pinstore: domain string %q exceeds 32 bytes", domain))
	}
	var key [32]byte
	copy(key[:], domain)
	return key
}

// contentID derives the content ID for a payload: a keyed BLAKE3
// digest, hex-encoded with a "dev" prefix so dev-node IDs are
// recognizable next to real pinning-service CIDs.
func contentID(payload []byte) ref.ContentID {
	hasher, err := blake3.NewKeyed(contentKey[:])
	if err != nil {
		// NewKeyed fails only on a key that is not 32 bytes.
		panic(fmt.Sprintf("pinstore: creating keyed hasher: %v", err))
	}
	hasher.Write(payload)
	digest := hasher.Sum(nil)
	return ref.MustParseContentID("dev" + hex.EncodeToString(digest))
}

// Memory is an in-memory Store for tests and the dev node. Content is
// addressed by a keyed BLAKE3 digest of the payload, so identical
// payloads collapse to a single pin.
//
// Memory is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	payloads map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{payloads: make(map[string][]byte)}
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, payload []byte) (ref.ContentID, error) {
	if len(payload) == 0 {
		return ref.ContentID{}, fmt.Errorf("pinstore: empty payload")
	}
	id := contentID(payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payloads[id.String()]; !exists {
		stored := make([]byte, len(payload))
		copy(stored, payload)
		m.payloads[id.String()] = stored
	}
	return id, nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, id ref.ContentID) ([]byte, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("pinstore: zero content ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.payloads[id.String()]
	if !exists {
		return nil, &StoreError{
			Code:    CodeNotFound,
			Message: "no payload pinned under " + id.String(),
		}
	}
	payload := make([]byte, len(stored))
	copy(payload, stored)
	return payload, nil
}

// Len reports the number of distinct payloads pinned.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}
