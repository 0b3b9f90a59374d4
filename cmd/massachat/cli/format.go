// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"time"

	"github.com/anikeaty08/MassaChat/exchange"
	"github.com/anikeaty08/MassaChat/lib/chatui"
	"github.com/anikeaty08/MassaChat/lib/contacts"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// ShortAddress abbreviates a chain address for display labels.
func ShortAddress(address ref.Address) string {
	s := address.String()
	if len(s) <= 14 {
		return s
	}
	return s[:12] + ".."
}

// PeerLabel returns the display label for a peer: the contact
// nickname when one is known, the abbreviated address otherwise.
func PeerLabel(book *contacts.Book, address ref.Address) string {
	if contact, ok := book.ByAddress(address); ok && contact.Nickname != "" {
		return contact.Nickname
	}
	return ShortAddress(address)
}

// EntryForMessage converts one fetched message into a transcript
// entry. Incoming messages are labeled with peerLabel, outgoing ones
// with "me". Slots without plaintext become note entries so the
// transcript keeps the ledger's count and order.
func EntryForMessage(message exchange.Message, peerLabel string) chatui.TranscriptEntry {
	entry := chatui.TranscriptEntry{Sender: peerLabel}
	if message.Outgoing {
		entry.Sender = "me"
		entry.Self = true
	}

	switch message.Marker {
	case exchange.MarkerUndecryptable:
		entry.Note = "message could not be decrypted"
	case exchange.MarkerUnavailable:
		entry.Note = "content unavailable, retried on the next fetch"
	default:
		entry.Body = message.Body
	}

	// The envelope timestamp is the writing time as the sender
	// asserts it; the anchor time stands in for marker slots, which
	// have no readable envelope.
	at := message.SentAt
	if at == 0 {
		at = message.AnchoredAt
	}
	if at != 0 {
		entry.At = time.UnixMilli(at)
	}

	return entry
}
