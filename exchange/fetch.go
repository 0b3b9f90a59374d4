// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"fmt"

	"github.com/anikeaty08/MassaChat/lib/cache"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
)

// Marker flags a conversation slot whose plaintext could not be
// produced. The slot still occupies its index so both sides of a
// conversation agree on message count and order.
type Marker string

const (
	// MarkerNone is a readable message.
	MarkerNone Marker = ""

	// MarkerUndecryptable is an anchored payload that was retrieved
	// but does not parse or does not authenticate for this session's
	// key.
	MarkerUndecryptable Marker = "undecryptable"

	// MarkerUnavailable is an anchored content ID the pin store no
	// longer serves. The slot is retried on the next fetch.
	MarkerUnavailable Marker = "unavailable"
)

// Message is one slot of a fetched conversation.
type Message struct {
	// Index is the ledger-assigned position, 1-based. Index order is
	// the conversation's display order.
	Index uint64

	// CID is the content ID of the sealed payload.
	CID ref.ContentID

	// Body is the decrypted plaintext. Empty when Marker is set.
	Body string

	// Sender is the authenticated sealing key of the message author.
	// Zero when Marker is set.
	Sender sealbox.PublicKey

	// Outgoing reports whether this session's own key sealed the
	// message.
	Outgoing bool

	// SentAt is the sender-asserted creation timestamp from the
	// envelope, unix milliseconds. Display only; it is not
	// authenticated against the ledger and must never order messages.
	SentAt int64

	// AnchoredAt is the ledger's anchor timestamp, unix milliseconds.
	AnchoredAt int64

	// Marker is MarkerNone for a readable message, otherwise the
	// reason no plaintext is available.
	Marker Marker
}

// Fetch reconstructs the conversation with peer from the ledger: every
// anchored index from 1 through the current last index, in index
// order. Slots whose payload cannot be read come back as marker
// messages rather than disappearing, so the count and positions match
// what the peer sees.
//
// When the session has a cache, envelopes already on disk are reused
// and only new or previously unavailable indices touch the store. The
// result is the same either way.
//
// A ledger or store failure aborts the fetch with no partial result;
// the next call starts over.
func (m *Messenger) Fetch(ctx context.Context, peer Peer) ([]Message, error) {
	if peer.Address.IsZero() {
		return nil, fmt.Errorf("exchange: peer address is required")
	}
	conversation := ref.ConversationFor(m.self, peer.Address)

	callCtx, cancel := m.callContext(ctx)
	lastIndex, err := m.ledger.LastIndex(callCtx, conversation)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("exchange: reading conversation length: %w", err)
	}
	if lastIndex == 0 {
		return nil, nil
	}

	cached := m.loadCached(conversation)

	messages := make([]Message, 0, lastIndex)
	entries := make([]cache.Entry, 0, lastIndex)
	for index := uint64(1); index <= lastIndex; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry, ok := cached[index]; ok {
			messages = append(messages, m.openEntry(peer, entry))
			entries = append(entries, entry)
			continue
		}

		callCtx, cancel := m.callContext(ctx)
		record, err := m.ledger.Message(callCtx, conversation, index)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("exchange: reading message record %d: %w", index, err)
		}
		if record == nil {
			// A hole in the index range. The ledger assigns indices
			// contiguously, so this does not happen against a honest
			// chain; skip the slot rather than fail the whole fetch.
			m.logger.Warn("conversation index hole",
				"conversation", conversation,
				"index", index,
			)
			continue
		}

		callCtx, cancel = m.callContext(ctx)
		payload, err := m.store.Get(callCtx, record.CID)
		cancel()
		if err != nil {
			if pinstore.IsNotFound(err) {
				// The anchor outlived the pin. Keep the slot so the
				// count still matches the peer's view, and leave it
				// out of the cache so a later fetch retries the
				// store.
				messages = append(messages, Message{
					Index:      index,
					CID:        record.CID,
					AnchoredAt: record.Timestamp,
					Marker:     MarkerUnavailable,
				})
				continue
			}
			return nil, fmt.Errorf("exchange: retrieving payload %s: %w", record.CID, err)
		}

		entry := cache.Entry{
			Index:     index,
			CID:       record.CID,
			Timestamp: record.Timestamp,
			Envelope:  payload,
		}
		messages = append(messages, m.openEntry(peer, entry))
		entries = append(entries, entry)
	}

	m.storeCached(&cache.Snapshot{
		Conversation: conversation,
		LastIndex:    lastIndex,
		Entries:      entries,
	})
	return messages, nil
}

// openEntry turns one retrieved envelope into a Message. Envelopes are
// stored sealed, so decryption runs on every fetch, cached or not;
// plaintext never reaches disk.
//
// An envelope this session sealed itself cannot open under its own
// embedded sender key (the box secret is shared with the recipient,
// not with the sender's own public key), so outgoing messages open
// against the peer's key instead.
func (m *Messenger) openEntry(peer Peer, entry cache.Entry) Message {
	message := Message{
		Index:      entry.Index,
		CID:        entry.CID,
		AnchoredAt: entry.Timestamp,
	}

	envelope, err := sealbox.ParseEnvelope(entry.Envelope)
	if err != nil {
		message.Marker = MarkerUndecryptable
		return message
	}

	sender, err := envelope.Sender()
	if err != nil {
		message.Marker = MarkerUndecryptable
		return message
	}

	var plaintext []byte
	if sender == m.keypair.Public {
		if peer.PublicKey.IsZero() {
			message.Marker = MarkerUndecryptable
			return message
		}
		plaintext, err = envelope.OpenFrom(peer.PublicKey, m.keypair.Secret)
		if err != nil {
			message.Marker = MarkerUndecryptable
			return message
		}
		message.Outgoing = true
	} else {
		plaintext, sender, err = envelope.Open(m.keypair.Secret)
		if err != nil {
			message.Marker = MarkerUndecryptable
			return message
		}
	}

	message.Body = string(plaintext)
	message.Sender = sender
	message.SentAt = envelope.CreatedAt
	return message
}

// loadCached returns the cached entries for a conversation keyed by
// index, or nil. Cache trouble is logged and otherwise invisible; a
// fetch never fails on the cache.
func (m *Messenger) loadCached(conversation ref.ConversationID) map[uint64]cache.Entry {
	if m.cache == nil {
		return nil
	}
	snapshot, err := m.cache.Load(conversation)
	if err != nil {
		m.logger.Warn("conversation cache unreadable",
			"conversation", conversation,
			"error", err,
		)
		return nil
	}
	if snapshot == nil {
		return nil
	}
	cached := make(map[uint64]cache.Entry, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		cached[entry.Index] = entry
	}
	return cached
}

func (m *Messenger) storeCached(snapshot *cache.Snapshot) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Store(snapshot); err != nil {
		m.logger.Warn("conversation cache write failed",
			"conversation", snapshot.Conversation,
			"error", err,
		)
	}
}
