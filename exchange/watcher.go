// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/anikeaty08/MassaChat/lib/cache"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// maxPollFailures is the number of consecutive poll failures allowed
// before the watcher stops with an error. A transient ledger or store
// hiccup is absorbed; a dead endpoint is surfaced.
const maxPollFailures = 5

// WatchConfig configures Watch.
type WatchConfig struct {
	// Peer is the conversation counterparty. The address is required;
	// the public key lets the watcher read back messages this session
	// sealed itself.
	Peer Peer

	// AfterIndex is the ledger index to resume from: only messages
	// with a higher index are delivered. Zero delivers the full
	// history first.
	AfterIndex uint64

	// Interval is the poll cadence. If zero, DefaultPollInterval.
	Interval time.Duration
}

// Watcher follows one conversation's tail by polling the ledger's last
// index and delivering every newly anchored message, in index order,
// on the Messages channel. Unreadable slots arrive as marker messages,
// the same as Fetch produces them.
//
// The channel is unbuffered: delivery blocks until the consumer
// receives, which is the watcher's backpressure. Stop or cancellation
// of the Watch context ends the loop and closes the channel.
type Watcher struct {
	messenger    *Messenger
	peer         Peer
	conversation ref.ConversationID

	out    chan Message
	done   chan struct{}
	cancel context.CancelFunc

	// err is set by the run goroutine before done closes.
	err error
}

// Watch starts following the conversation with config.Peer. The
// returned watcher runs until ctx is cancelled, Stop is called, or
// polling fails maxPollFailures times in a row.
func (m *Messenger) Watch(ctx context.Context, config WatchConfig) (*Watcher, error) {
	if config.Peer.Address.IsZero() {
		return nil, fmt.Errorf("exchange: WatchConfig.Peer.Address is required")
	}
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	watchCtx, cancel := context.WithCancel(ctx)
	watcher := &Watcher{
		messenger:    m,
		peer:         config.Peer,
		conversation: ref.ConversationFor(m.self, config.Peer.Address),
		out:          make(chan Message),
		done:         make(chan struct{}),
		cancel:       cancel,
	}
	go watcher.run(watchCtx, config.AfterIndex, interval)
	return watcher, nil
}

// Messages returns the delivery channel. It closes when the watcher
// stops for any reason; check Err afterwards to distinguish a clean
// stop from a poll failure.
func (w *Watcher) Messages() <-chan Message {
	return w.out
}

// Stop cancels the watcher and blocks until the poll loop has exited
// and the Messages channel is closed. Idempotent.
func (w *Watcher) Stop() {
	w.cancel()
	<-w.done
}

// Err blocks until the watcher has stopped, then reports why: nil for
// a clean stop (context cancelled or Stop called), otherwise the error
// that ended polling.
func (w *Watcher) Err() error {
	<-w.done
	return w.err
}

// run polls immediately, then on every tick. The delivery cursor
// advances only past slots that were actually delivered (or skipped as
// holes), so a failed poll resumes where it left off without
// redelivering.
func (w *Watcher) run(ctx context.Context, after uint64, interval time.Duration) {
	defer close(w.done)
	defer close(w.out)

	ticker := w.messenger.clock.NewTicker(interval)
	defer ticker.Stop()

	var failures int
	for {
		next, err := w.poll(ctx, after)
		after = next
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures >= maxPollFailures {
				w.err = fmt.Errorf("exchange: conversation poll failed %d consecutive times: %w", failures, err)
				return
			}
			w.messenger.logger.Debug("conversation poll error, retrying",
				"conversation", w.conversation,
				"attempt", failures,
				"max_attempts", maxPollFailures,
				"error", err,
			)
		} else {
			failures = 0
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// poll delivers every anchored message after the cursor and returns
// the new cursor. On error the returned cursor covers what was
// delivered before the failure.
func (w *Watcher) poll(ctx context.Context, after uint64) (uint64, error) {
	m := w.messenger

	callCtx, cancel := m.callContext(ctx)
	lastIndex, err := m.ledger.LastIndex(callCtx, w.conversation)
	cancel()
	if err != nil {
		return after, fmt.Errorf("reading conversation length: %w", err)
	}

	for index := after + 1; index <= lastIndex; index++ {
		callCtx, cancel := m.callContext(ctx)
		record, err := m.ledger.Message(callCtx, w.conversation, index)
		cancel()
		if err != nil {
			return after, fmt.Errorf("reading message record %d: %w", index, err)
		}
		if record == nil {
			m.logger.Warn("conversation index hole",
				"conversation", w.conversation,
				"index", index,
			)
			after = index
			continue
		}

		callCtx, cancel = m.callContext(ctx)
		payload, err := m.store.Get(callCtx, record.CID)
		cancel()

		var message Message
		switch {
		case err == nil:
			message = m.openEntry(w.peer, cache.Entry{
				Index:     index,
				CID:       record.CID,
				Timestamp: record.Timestamp,
				Envelope:  payload,
			})
		case pinstore.IsNotFound(err):
			message = Message{
				Index:      index,
				CID:        record.CID,
				AnchoredAt: record.Timestamp,
				Marker:     MarkerUnavailable,
			}
		default:
			return after, fmt.Errorf("retrieving payload %s: %w", record.CID, err)
		}

		select {
		case w.out <- message:
		case <-ctx.Done():
			return after, ctx.Err()
		}
		after = index
	}
	return after, nil
}
