// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package sealbox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anikeaty08/MassaChat/lib/secret"
)

// Envelope is the sealed payload document pinned to the content store.
// Everything in it is public: possession of the document reveals who
// sealed it (senderPub) and when they claim to have done so, but not
// the message body.
//
// The JSON field names are the wire contract shared with every other
// client implementation:
//
//	{"nonce": "...", "box": "...", "senderPub": "...", "createdAt": 1700000000000}
//
// nonce, box, and senderPub are standard base64. createdAt is unix
// milliseconds, asserted by the sender and not authenticated; treat it
// as display metadata, never as an ordering input. Ordering comes from
// the ledger's message indices.
type Envelope struct {
	Nonce     string `json:"nonce"`
	Box       string `json:"box"`
	SenderPub string `json:"senderPub"`
	CreatedAt int64  `json:"createdAt"`
}

// NewEnvelope wraps a sealed payload and its sender key into the wire
// document, stamping the sender-asserted creation time.
func NewEnvelope(sealed *Sealed, sender PublicKey, createdAt time.Time) *Envelope {
	return &Envelope{
		Nonce:     base64.StdEncoding.EncodeToString(sealed.Nonce[:]),
		Box:       base64.StdEncoding.EncodeToString(sealed.Box),
		SenderPub: sender.String(),
		CreatedAt: createdAt.UnixMilli(),
	}
}

// ParseEnvelope decodes and validates an envelope document fetched from
// the content store. Structural problems (bad JSON, wrong base64, wrong
// nonce or key length, a box too short to authenticate) are reported as
// errors; they mean the document is not a sealed chat payload at all.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("sealbox: parsing envelope: %w", err)
	}
	if _, _, err := envelope.sealed(); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Encode renders the envelope as its canonical JSON document.
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("sealbox: encoding envelope: %w", err)
	}
	return data, nil
}

// Sender returns the embedded sender public key.
func (e *Envelope) Sender() (PublicKey, error) {
	key, err := ParsePublicKey(e.SenderPub)
	if err != nil {
		return PublicKey{}, fmt.Errorf("sealbox: envelope sender key: %w", err)
	}
	return key, nil
}

// Open authenticates and decrypts the envelope with the recipient's
// secret key, using the sender key embedded in the document. Returns
// the plaintext and the sender key that authenticated it.
// Authentication failure returns ErrOpenFailed; structural corruption
// returns a descriptive error.
func (e *Envelope) Open(recipientSecret *secret.Buffer) ([]byte, PublicKey, error) {
	sealed, sender, err := e.sealed()
	if err != nil {
		return nil, PublicKey{}, err
	}
	plaintext, err := Open(sealed, sender, recipientSecret)
	if err != nil {
		return nil, PublicKey{}, err
	}
	return plaintext, sender, nil
}

// OpenFrom authenticates and decrypts the envelope against an
// explicitly supplied counterparty key instead of the embedded sender
// key. The box shared secret is symmetric, so the sealer's own copy of
// a message opens under (recipient public, sealer secret), never under
// the sender key the document embeds; a client reading back a message
// it sealed itself must open it this way.
func (e *Envelope) OpenFrom(counterparty PublicKey, ownSecret *secret.Buffer) ([]byte, error) {
	sealed, _, err := e.sealed()
	if err != nil {
		return nil, err
	}
	return Open(sealed, counterparty, ownSecret)
}

// sealed decodes the binary fields out of the document.
func (e *Envelope) sealed() (*Sealed, PublicKey, error) {
	nonceRaw, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil {
		return nil, PublicKey{}, fmt.Errorf("sealbox: envelope nonce: %w", err)
	}
	if len(nonceRaw) != NonceSize {
		return nil, PublicKey{}, fmt.Errorf("sealbox: envelope nonce is %d bytes, want %d", len(nonceRaw), NonceSize)
	}

	boxRaw, err := base64.StdEncoding.DecodeString(e.Box)
	if err != nil {
		return nil, PublicKey{}, fmt.Errorf("sealbox: envelope box: %w", err)
	}
	if len(boxRaw) < Overhead {
		return nil, PublicKey{}, fmt.Errorf("sealbox: envelope box is %d bytes, below the %d-byte authenticator", len(boxRaw), Overhead)
	}

	sender, err := e.Sender()
	if err != nil {
		return nil, PublicKey{}, err
	}

	sealed := &Sealed{Box: boxRaw}
	copy(sealed.Nonce[:], nonceRaw)
	return sealed, sender, nil
}
