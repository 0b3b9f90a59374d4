// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package exchange orchestrates end-to-end message flow between the
// sealing engine, the pin store, and the chain ledger.
//
// A Messenger is an explicit session object: one per connected
// account, constructed with the account's address and keypair plus the
// ledger and store adapters, closed on disconnect. Send drives an
// outgoing message through seal, pin, and anchor; Fetch reconstructs a
// conversation from the ledger's index surface; Watch follows a
// conversation's tail by polling.
//
// The package does not retry. A transient failure surfaces to the
// caller, who owns retry policy; a rejected call (block relation,
// validation) is terminal for the attempt.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anikeaty08/MassaChat/lib/cache"
	"github.com/anikeaty08/MassaChat/lib/clock"
	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
)

// Default timings, matching the config file defaults.
const (
	// DefaultCallTimeout bounds each ledger and store call issued
	// during a send, fetch, or watch poll.
	DefaultCallTimeout = 10 * time.Second

	// DefaultPollInterval is the watcher's poll cadence.
	DefaultPollInterval = 2 * time.Second
)

// ErrBlocked is returned by Send when the recipient's block list
// denies messages from this sender. The check runs before sealing, so
// a blocked send does no store or ledger writes.
var ErrBlocked = errors.New("exchange: recipient has blocked sender")

// Peer identifies a conversation counterparty: the chain address the
// conversation is keyed by, and the public key obtained out of band
// (contact book) that messages are sealed to.
type Peer struct {
	Address   ref.Address
	PublicKey sealbox.PublicKey
}

// Config holds configuration for NewMessenger.
type Config struct {
	// Self is the chain address this session acts as. Required.
	Self ref.Address

	// Keypair is the session's sealing keypair. The Messenger takes
	// ownership: Close zeroes and releases the secret half. Required.
	Keypair *sealbox.Keypair

	// Ledger anchors messages and serves conversation records.
	// Required.
	Ledger ledger.Ledger

	// Store pins and retrieves sealed envelopes. Required.
	Store pinstore.Store

	// Clock supplies envelope timestamps and watcher timing. If nil,
	// the real clock is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// CallTimeout bounds each ledger and store call. If zero,
	// DefaultCallTimeout.
	CallTimeout time.Duration

	// Cache, when non-nil, persists fetched envelopes per conversation
	// so a later Fetch re-downloads only new indices. Optional; fetch
	// results are identical with or without it.
	Cache *cache.Cache
}

// Messenger is one account's messaging session.
//
// The methods are safe for concurrent use; the underlying adapters
// serialize or parallelize their own calls.
type Messenger struct {
	self        ref.Address
	keypair     *sealbox.Keypair
	ledger      ledger.Ledger
	store       pinstore.Store
	clock       clock.Clock
	logger      *slog.Logger
	callTimeout time.Duration
	cache       *cache.Cache
}

// NewMessenger validates the configuration and creates a session.
func NewMessenger(config Config) (*Messenger, error) {
	if config.Self.IsZero() {
		return nil, fmt.Errorf("exchange: Config.Self is required")
	}
	if config.Keypair == nil {
		return nil, fmt.Errorf("exchange: Config.Keypair is required")
	}
	if config.Ledger == nil {
		return nil, fmt.Errorf("exchange: Config.Ledger is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("exchange: Config.Store is required")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	callTimeout := config.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &Messenger{
		self:        config.Self,
		keypair:     config.Keypair,
		ledger:      config.Ledger,
		store:       config.Store,
		clock:       clk,
		logger:      logger,
		callTimeout: callTimeout,
		cache:       config.Cache,
	}, nil
}

// Self returns the session's chain address.
func (m *Messenger) Self() ref.Address { return m.self }

// PublicKey returns the session's sealing public key.
func (m *Messenger) PublicKey() sealbox.PublicKey { return m.keypair.Public }

// Close releases the session's key material. The Messenger must not
// be used afterwards.
func (m *Messenger) Close() error {
	return m.keypair.Close()
}

// callContext bounds one adapter call.
func (m *Messenger) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.callTimeout)
}

// Stage names a step of the send pipeline.
type Stage string

// Send pipeline stages, in order.
const (
	StageComposing Stage = "composing"
	StageSealing   Stage = "sealing"
	StageUploading Stage = "uploading"
	StageAnchoring Stage = "anchoring"
)

// SendState is the terminal state of a send attempt.
type SendState string

const (
	SendDelivered SendState = "delivered"
	SendFailed    SendState = "failed"
)

// Receipt reports the outcome of one send attempt.
type Receipt struct {
	// State is the terminal state.
	State SendState

	// Stage is the pipeline stage reached: StageAnchoring for a
	// delivered message, the failing stage otherwise.
	Stage Stage

	// Index is the ledger index the message was anchored at. The
	// index order is the conversation's authoritative display order.
	// Zero until delivered.
	Index uint64

	// CID is the content ID of the pinned envelope. Zero until the
	// upload finished.
	CID ref.ContentID

	// SealedAt is the sender-asserted creation time stamped into the
	// envelope, unix milliseconds. Zero until sealing finished.
	SealedAt int64

	// AnchoredAt is the ledger's anchor timestamp, unix milliseconds.
	// Zero until delivered.
	AnchoredAt int64
}

// Send drives one outgoing message through the pipeline: compose,
// seal to the recipient's public key, pin the sealed envelope, anchor
// its content ID on the ledger. The returned receipt reports the
// terminal state and the stage reached; on failure the error carries
// the cause and the receipt says how far the attempt got.
//
// An upload failure leaves no ledger write. Caller cancellation is
// honored between stages and during the upload; once the anchoring
// call has been issued it runs to completion regardless of ctx, under
// the configured call timeout. An anchoring error means that attempt
// definitely did not finalize.
func (m *Messenger) Send(ctx context.Context, to Peer, plaintext string) (*Receipt, error) {
	receipt := &Receipt{State: SendFailed, Stage: StageComposing}

	if plaintext == "" {
		return receipt, fmt.Errorf("exchange: empty message")
	}
	if to.Address.IsZero() {
		return receipt, fmt.Errorf("exchange: recipient address is required")
	}
	if to.PublicKey.IsZero() {
		return receipt, fmt.Errorf("exchange: recipient public key is required")
	}

	// The recipient's block list denies the send before any sealing
	// or network writes. Fail closed: if the relation cannot be read,
	// the send does not proceed.
	callCtx, cancel := m.callContext(ctx)
	blocked, err := m.ledger.IsBlocked(callCtx, to.Address, m.self)
	cancel()
	if err != nil {
		return receipt, fmt.Errorf("exchange: checking block relation: %w", err)
	}
	if blocked {
		return receipt, fmt.Errorf("exchange: send to %s: %w", to.Address, ErrBlocked)
	}
	if err := ctx.Err(); err != nil {
		return receipt, err
	}

	receipt.Stage = StageSealing
	sealedAt := m.clock.Now()
	sealed, err := sealbox.Seal([]byte(plaintext), m.keypair.Secret, to.PublicKey)
	if err != nil {
		return receipt, fmt.Errorf("exchange: sealing message: %w", err)
	}
	payload, err := sealbox.NewEnvelope(sealed, m.keypair.Public, sealedAt).Encode()
	if err != nil {
		return receipt, fmt.Errorf("exchange: encoding envelope: %w", err)
	}
	receipt.SealedAt = sealedAt.UnixMilli()
	if err := ctx.Err(); err != nil {
		return receipt, err
	}

	receipt.Stage = StageUploading
	callCtx, cancel = m.callContext(ctx)
	cid, err := m.store.Put(callCtx, payload)
	cancel()
	if err != nil {
		return receipt, fmt.Errorf("exchange: pinning sealed payload: %w", err)
	}
	receipt.CID = cid
	if err := ctx.Err(); err != nil {
		// The pinned envelope stays behind unanchored; it is sealed
		// and content-addressed, so an orphan is harmless.
		return receipt, err
	}

	receipt.Stage = StageAnchoring
	conversation := ref.ConversationFor(m.self, to.Address)
	anchorCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.callTimeout)
	defer cancel()
	ack, err := m.ledger.AppendMessage(anchorCtx, conversation, cid)
	if err != nil {
		return receipt, fmt.Errorf("exchange: anchoring message: %w", err)
	}

	receipt.State = SendDelivered
	receipt.Index = ack.Index
	receipt.AnchoredAt = ack.Timestamp
	m.logger.Debug("message delivered",
		"conversation", conversation,
		"index", ack.Index,
		"cid", cid,
	)

	// A delivered send counts as session activity. The touch is best
	// effort; its failure does not change the receipt.
	touchCtx, touchCancel := context.WithTimeout(context.WithoutCancel(ctx), m.callTimeout)
	if err := m.ledger.TouchLastSeen(touchCtx, m.self); err != nil {
		m.logger.Warn("last-seen touch failed", "error", err)
	}
	touchCancel()
	return receipt, nil
}
