// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealbox seals and opens chat messages with NaCl box
// authenticated public-key encryption (curve25519 key agreement,
// XSalsa20-Poly1305 sealing). It wraps golang.org/x/crypto/nacl/box
// into the operations the messenger needs: generate keypairs, seal a
// plaintext from a sender to a recipient, open a sealed payload on the
// other side.
//
// Opening authenticates as well as decrypts: only the holder of the
// recipient's secret key can read the message, and a successful open
// proves it was sealed by the holder of the sender's secret key.
// Tampered ciphertext, a wrong key, or a mismatched nonce all fail
// identically with ErrOpenFailed.
//
// Secret keys live in secret.Buffer values (mmap-backed, locked against
// swap, zeroed on close). Public keys and nonces are plain values, safe
// to publish; the sealed payload document that travels over the content
// store is defined in envelope.go.
package sealbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/anikeaty08/MassaChat/lib/secret"
)

const (
	// KeySize is the byte length of curve25519 public and secret keys.
	KeySize = 32

	// NonceSize is the byte length of a box nonce. A fresh random nonce
	// is drawn for every seal; with 192 bits of nonce, random collision
	// under one keypair is out of reach.
	NonceSize = 24

	// Overhead is the number of bytes the Poly1305 authenticator adds
	// to every sealed box.
	Overhead = box.Overhead
)

// ErrOpenFailed is returned when a sealed payload does not authenticate:
// wrong recipient key, wrong claimed sender, or tampered ciphertext.
// The cases are deliberately indistinguishable.
var ErrOpenFailed = errors.New("sealbox: message authentication failed")

// PublicKey is a curve25519 public key. Safe to publish; the wire and
// storage form is standard base64.
type PublicKey [KeySize]byte

// ParsePublicKey decodes a base64 public key string.
func ParsePublicKey(encoded string) (PublicKey, error) {
	var key PublicKey
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return PublicKey{}, fmt.Errorf("sealbox: decoding public key: %w", err)
	}
	if len(raw) != KeySize {
		return PublicKey{}, fmt.Errorf("sealbox: public key is %d bytes, want %d", len(raw), KeySize)
	}
	copy(key[:], raw)
	return key, nil
}

// String returns the base64 form of the key.
func (k PublicKey) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// IsZero reports whether the key is the all-zero value, which no
// honest key generation produces.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// MarshalText implements encoding.TextMarshaler (base64 form).
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PublicKey) UnmarshalText(data []byte) error {
	parsed, err := ParsePublicKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Keypair holds a curve25519 keypair. The secret half is stored in a
// secret.Buffer and must never be logged, written to disk in plaintext,
// or passed on a command line; the keyring package owns its encrypted
// persistence.
//
// The caller must call Close when the keypair is no longer needed.
type Keypair struct {
	Public PublicKey

	// Secret is the 32-byte secret scalar in mmap memory outside the
	// Go heap.
	Secret *secret.Buffer
}

// Close releases the secret key memory (zeros, unlocks, unmaps).
// Idempotent.
func (k *Keypair) Close() error {
	if k.Secret != nil {
		return k.Secret.Close()
	}
	return nil
}

// GenerateKeypair generates a new keypair from crypto/rand. The secret
// half is moved into mmap-backed memory immediately.
//
// The caller must call Close on the returned Keypair when done.
func GenerateKeypair() (*Keypair, error) {
	publicKey, secretKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("sealbox: generating keypair: %w", err)
	}

	secretBuffer, err := secret.NewFromBytes(secretKey[:])
	if err != nil {
		return nil, fmt.Errorf("sealbox: protecting secret key: %w", err)
	}

	return &Keypair{
		Public: PublicKey(*publicKey),
		Secret: secretBuffer,
	}, nil
}

// NewKeypairFromSecret reconstructs a keypair from a raw 32-byte secret
// key, deriving the public half. The source bytes are moved into
// protected memory and zeroed in place. Used by the keyring when
// loading a stored identity.
func NewKeypairFromSecret(secretKey []byte) (*Keypair, error) {
	if len(secretKey) != KeySize {
		return nil, fmt.Errorf("sealbox: secret key is %d bytes, want %d", len(secretKey), KeySize)
	}

	publicKey, err := curve25519.X25519(secretKey, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("sealbox: deriving public key: %w", err)
	}

	secretBuffer, err := secret.NewFromBytes(secretKey)
	if err != nil {
		return nil, fmt.Errorf("sealbox: protecting secret key: %w", err)
	}

	var public PublicKey
	copy(public[:], publicKey)
	return &Keypair{
		Public: public,
		Secret: secretBuffer,
	}, nil
}

// Sealed is a sealed payload in its binary form: the nonce the box was
// sealed under and the ciphertext with its authenticator. Neither field
// is secret.
type Sealed struct {
	Nonce [NonceSize]byte
	Box   []byte
}

// Seal encrypts and authenticates plaintext from the sender to the
// recipient under a fresh random nonce. Empty plaintext and malformed
// keys are programmer errors and fail fast.
func Seal(plaintext []byte, senderSecret *secret.Buffer, recipientPublic PublicKey) (*Sealed, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealbox: empty plaintext")
	}
	if recipientPublic.IsZero() {
		return nil, fmt.Errorf("sealbox: zero recipient public key")
	}

	secretKey, err := senderSecret.Key32()
	if err != nil {
		return nil, fmt.Errorf("sealbox: sender secret key: %w", err)
	}

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("sealbox: drawing nonce: %w", err)
	}

	recipientKey := [KeySize]byte(recipientPublic)
	sealed := box.Seal(nil, plaintext, &nonce, &recipientKey, secretKey)
	return &Sealed{Nonce: nonce, Box: sealed}, nil
}

// Open authenticates and decrypts a sealed payload. The claimed sender
// public key and the recipient's secret key must match the pair the
// payload was sealed under; any mismatch or tampering returns
// ErrOpenFailed. Open never panics on malformed input.
func Open(sealed *Sealed, senderPublic PublicKey, recipientSecret *secret.Buffer) ([]byte, error) {
	if sealed == nil || len(sealed.Box) < Overhead {
		return nil, ErrOpenFailed
	}

	secretKey, err := recipientSecret.Key32()
	if err != nil {
		return nil, fmt.Errorf("sealbox: recipient secret key: %w", err)
	}

	senderKey := [KeySize]byte(senderPublic)
	plaintext, ok := box.Open(nil, sealed.Box, &sealed.Nonce, &senderKey, secretKey)
	if !ok {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}
