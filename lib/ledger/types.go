// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

// Profile is a chat profile record, keyed by chain address. The JSON
// field names are the wire contract shared with the contract storage
// and every other client. Timestamps are unix milliseconds, assigned by
// the ledger at write time.
type Profile struct {
	Address         ref.Address   `json:"address"`
	Username        ref.Username  `json:"username"`
	DisplayName     string        `json:"displayName"`
	AvatarContentID ref.ContentID `json:"avatarContentId,omitempty"`
	Bio             string        `json:"bio,omitempty"`
	CreatedAt       int64         `json:"createdAt"`
	UpdatedAt       int64         `json:"updatedAt"`
}

// PrivacySettings are per-profile display preferences. They gate what
// other clients render, not what the ledger stores: the data remains
// publicly readable on chain, and honest clients honor the flags.
type PrivacySettings struct {
	ShowLastSeen     bool `json:"showLastSeen"`
	ShowProfilePhoto bool `json:"showProfilePhoto"`
	ShowBio          bool `json:"showBio"`
}

// DefaultPrivacy is the setting for profiles that never stored one:
// everything visible.
func DefaultPrivacy() PrivacySettings {
	return PrivacySettings{ShowLastSeen: true, ShowProfilePhoto: true, ShowBio: true}
}

// MessageRecord is one anchored message: the content ID of the sealed
// payload in the content store, and the ledger-assigned anchor
// timestamp in unix milliseconds. The record deliberately contains no
// sender, recipient, or body; the conversation ID locates it and the
// sealed payload carries the rest.
type MessageRecord struct {
	CID       ref.ContentID `json:"cid"`
	Timestamp int64         `json:"timestamp"`
}

// AppendReceipt reports a finalized message append: the 1-based index
// the record was assigned and the anchor timestamp the ledger stamped.
type AppendReceipt struct {
	Index     uint64 `json:"index"`
	Timestamp int64  `json:"timestamp"`
}

// Ledger is the chat contract's fixed method surface. Implementations:
// Client (HTTP gateway) and Memory (in-process).
//
// All write methods finalize before returning. Lookups return nil for
// absent profiles and message records, zero for an unused conversation
// or never-seen address, and DefaultPrivacy for unset privacy.
type Ledger interface {
	// RegisterProfile creates or updates the profile stored at
	// profile.Address. Usernames are unique case-insensitively across
	// addresses: registering a username held by a different address
	// fails with USERNAME_TAKEN and changes nothing. An update
	// preserves CreatedAt, refreshes UpdatedAt, and releases the
	// previously held username. Returns the stored record.
	RegisterProfile(ctx context.Context, profile Profile) (*Profile, error)

	// ProfileByAddress returns the profile stored at the address, or
	// nil if none is registered.
	ProfileByAddress(ctx context.Context, address ref.Address) (*Profile, error)

	// ProfileByUsername resolves a username (case-insensitively) to
	// the profile holding it, or nil if unregistered.
	ProfileByUsername(ctx context.Context, username ref.Username) (*Profile, error)

	// SetPrivacy stores the owner's privacy settings.
	SetPrivacy(ctx context.Context, owner ref.Address, settings PrivacySettings) error

	// Privacy returns the owner's stored settings, or DefaultPrivacy
	// if none were ever stored.
	Privacy(ctx context.Context, owner ref.Address) (PrivacySettings, error)

	// SetBlocked sets or clears the directed block edge owner→peer.
	// Blocking is directional: it says nothing about peer→owner.
	SetBlocked(ctx context.Context, owner, peer ref.Address, blocked bool) error

	// IsBlocked reports whether owner has blocked peer.
	IsBlocked(ctx context.Context, owner, peer ref.Address) (bool, error)

	// TouchLastSeen updates the owner's last-seen timestamp to the
	// ledger's current time. The stored value never moves backward.
	TouchLastSeen(ctx context.Context, owner ref.Address) error

	// LastSeen returns the owner's last-seen timestamp in unix
	// milliseconds, or 0 if the address was never seen.
	LastSeen(ctx context.Context, owner ref.Address) (int64, error)

	// AppendMessage appends a message record to the conversation and
	// assigns it the next index. Indices are 1-based and gapless:
	// concurrent appends serialize, each new record's index is exactly
	// the previous last index plus one.
	AppendMessage(ctx context.Context, conversation ref.ConversationID, cid ref.ContentID) (*AppendReceipt, error)

	// Message returns the record at the 1-based index, or nil if the
	// index is outside 1..LastIndex.
	Message(ctx context.Context, conversation ref.ConversationID, index uint64) (*MessageRecord, error)

	// LastIndex returns the highest assigned index in the
	// conversation, or 0 if it has no messages.
	LastIndex(ctx context.Context, conversation ref.ConversationID) (uint64, error)
}
