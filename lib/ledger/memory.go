// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"sync"

	"github.com/anikeaty08/MassaChat/lib/clock"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// Memory is an in-process Ledger holding the full contract data model.
// It backs the dev node and the test suite.
//
// All operations serialize under a single mutex. That is stricter than
// the contract requires (only per-conversation appends must serialize)
// but keeps every cross-record invariant (username uniqueness, monotonic
// last-seen, gapless indices) trivially true under concurrency.
type Memory struct {
	mu    sync.Mutex
	clock clock.Clock

	profiles      map[string]Profile         // address → profile
	usernames     map[string]string          // username key → address
	privacy       map[string]PrivacySettings // address → settings
	blocks        map[blockEdge]bool
	lastSeen      map[string]int64           // address → unix millis
	conversations map[string][]MessageRecord // conversation → records, index i at [i-1]
}

type blockEdge struct {
	owner, peer string
}

var _ Ledger = (*Memory)(nil)

// NewMemory returns an empty memory ledger stamping writes with clk.
// A nil clk falls back to the real clock.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.Real()
	}
	return &Memory{
		clock:         clk,
		profiles:      make(map[string]Profile),
		usernames:     make(map[string]string),
		privacy:       make(map[string]PrivacySettings),
		blocks:        make(map[blockEdge]bool),
		lastSeen:      make(map[string]int64),
		conversations: make(map[string][]MessageRecord),
	}
}

// RegisterProfile implements Ledger.
func (m *Memory) RegisterProfile(ctx context.Context, profile Profile) (*Profile, error) {
	if profile.Address.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "profile address is required"}
	}
	if profile.Username.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "profile username is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	address := profile.Address.String()
	usernameKey := profile.Username.Key()

	if holder, taken := m.usernames[usernameKey]; taken && holder != address {
		return nil, &CallError{
			Code:    CodeUsernameTaken,
			Message: "username " + profile.Username.String() + " is registered to another address",
		}
	}

	now := m.clock.Now().UnixMilli()
	stored := profile
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if existing, ok := m.profiles[address]; ok {
		// Update: creation time survives, the old username is released.
		stored.CreatedAt = existing.CreatedAt
		if oldKey := existing.Username.Key(); oldKey != usernameKey {
			delete(m.usernames, oldKey)
		}
	}

	m.profiles[address] = stored
	m.usernames[usernameKey] = address
	result := stored
	return &result, nil
}

// ProfileByAddress implements Ledger.
func (m *Memory) ProfileByAddress(ctx context.Context, address ref.Address) (*Profile, error) {
	if address.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "address is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.profiles[address.String()]
	if !ok {
		return nil, nil
	}
	result := profile
	return &result, nil
}

// ProfileByUsername implements Ledger.
func (m *Memory) ProfileByUsername(ctx context.Context, username ref.Username) (*Profile, error) {
	if username.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "username is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	address, ok := m.usernames[username.Key()]
	if !ok {
		return nil, nil
	}
	profile := m.profiles[address]
	result := profile
	return &result, nil
}

// SetPrivacy implements Ledger.
func (m *Memory) SetPrivacy(ctx context.Context, owner ref.Address, settings PrivacySettings) error {
	if owner.IsZero() {
		return &CallError{Code: CodeInvalidParam, Message: "owner address is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.privacy[owner.String()] = settings
	return nil
}

// Privacy implements Ledger.
func (m *Memory) Privacy(ctx context.Context, owner ref.Address) (PrivacySettings, error) {
	if owner.IsZero() {
		return PrivacySettings{}, &CallError{Code: CodeInvalidParam, Message: "owner address is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	settings, ok := m.privacy[owner.String()]
	if !ok {
		return DefaultPrivacy(), nil
	}
	return settings, nil
}

// SetBlocked implements Ledger.
func (m *Memory) SetBlocked(ctx context.Context, owner, peer ref.Address, blocked bool) error {
	if owner.IsZero() || peer.IsZero() {
		return &CallError{Code: CodeInvalidParam, Message: "owner and peer addresses are required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	edge := blockEdge{owner: owner.String(), peer: peer.String()}
	if blocked {
		m.blocks[edge] = true
	} else {
		delete(m.blocks, edge)
	}
	return nil
}

// IsBlocked implements Ledger.
func (m *Memory) IsBlocked(ctx context.Context, owner, peer ref.Address) (bool, error) {
	if owner.IsZero() || peer.IsZero() {
		return false, &CallError{Code: CodeInvalidParam, Message: "owner and peer addresses are required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.blocks[blockEdge{owner: owner.String(), peer: peer.String()}], nil
}

// TouchLastSeen implements Ledger.
func (m *Memory) TouchLastSeen(ctx context.Context, owner ref.Address) error {
	if owner.IsZero() {
		return &CallError{Code: CodeInvalidParam, Message: "owner address is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UnixMilli()
	if now > m.lastSeen[owner.String()] {
		m.lastSeen[owner.String()] = now
	}
	return nil
}

// LastSeen implements Ledger.
func (m *Memory) LastSeen(ctx context.Context, owner ref.Address) (int64, error) {
	if owner.IsZero() {
		return 0, &CallError{Code: CodeInvalidParam, Message: "owner address is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastSeen[owner.String()], nil
}

// AppendMessage implements Ledger.
func (m *Memory) AppendMessage(ctx context.Context, conversation ref.ConversationID, cid ref.ContentID) (*AppendReceipt, error) {
	if conversation.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "conversation ID is required"}
	}
	if cid.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "content ID is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := conversation.String()
	record := MessageRecord{
		CID:       cid,
		Timestamp: m.clock.Now().UnixMilli(),
	}
	m.conversations[key] = append(m.conversations[key], record)

	return &AppendReceipt{
		Index:     uint64(len(m.conversations[key])),
		Timestamp: record.Timestamp,
	}, nil
}

// Message implements Ledger.
func (m *Memory) Message(ctx context.Context, conversation ref.ConversationID, index uint64) (*MessageRecord, error) {
	if conversation.IsZero() {
		return nil, &CallError{Code: CodeInvalidParam, Message: "conversation ID is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.conversations[conversation.String()]
	if index < 1 || index > uint64(len(records)) {
		return nil, nil
	}
	record := records[index-1]
	return &record, nil
}

// LastIndex implements Ledger.
func (m *Memory) LastIndex(ctx context.Context, conversation ref.ConversationID) (uint64, error) {
	if conversation.IsZero() {
		return 0, &CallError{Code: CodeInvalidParam, Message: "conversation ID is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return uint64(len(m.conversations[conversation.String()])), nil
}
