// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anikeaty08/MassaChat/lib/clock"
	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
	"github.com/anikeaty08/MassaChat/lib/testutil"
)

const receiveTimeout = 5 * time.Second

func TestWatchValidation(t *testing.T) {
	env := newTestEnv(t)
	bobSession := env.messenger(t, bob)

	if _, err := bobSession.Watch(context.Background(), WatchConfig{}); err == nil {
		t.Error("Watch accepted a zero peer address")
	}
}

func TestWatchDeliversHistoryThenTail(t *testing.T) {
	env := newTestEnv(t)
	aliceSession := env.messenger(t, alice)
	bobSession := env.messenger(t, bob)
	ctx := context.Background()

	if _, err := aliceSession.Send(ctx, peerOf(bobSession), "one"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := aliceSession.Send(ctx, peerOf(bobSession), "two"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	watcher, err := bobSession.Watch(ctx, WatchConfig{
		Peer:     peerOf(aliceSession),
		Interval: time.Second,
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer watcher.Stop()

	// The first poll runs immediately: the existing history arrives
	// without any clock movement.
	first := testutil.RequireReceive(t, watcher.Messages(), receiveTimeout, "first history message")
	second := testutil.RequireReceive(t, watcher.Messages(), receiveTimeout, "second history message")
	if first.Index != 1 || first.Body != "one" {
		t.Errorf("first = (%d, %q), want (1, %q)", first.Index, first.Body, "one")
	}
	if second.Index != 2 || second.Body != "two" {
		t.Errorf("second = (%d, %q), want (2, %q)", second.Index, second.Body, "two")
	}
	if first.Outgoing || second.Outgoing {
		t.Error("alice's messages flagged outgoing on bob's side")
	}

	// A message anchored later arrives on the next tick.
	if _, err := aliceSession.Send(ctx, peerOf(bobSession), "three"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	env.clock.Advance(time.Second)
	third := testutil.RequireReceive(t, watcher.Messages(), receiveTimeout, "tail message")
	if third.Index != 3 || third.Body != "three" {
		t.Errorf("third = (%d, %q), want (3, %q)", third.Index, third.Body, "three")
	}

	watcher.Stop()
	if err := watcher.Err(); err != nil {
		t.Errorf("Err after Stop = %v, want nil", err)
	}
}

func TestWatchAfterIndexSkipsHistory(t *testing.T) {
	env := newTestEnv(t)
	aliceSession := env.messenger(t, alice)
	bobSession := env.messenger(t, bob)
	ctx := context.Background()

	for _, body := range []string{"old", "older", "new"} {
		if _, err := aliceSession.Send(ctx, peerOf(bobSession), body); err != nil {
			t.Fatalf("Send %q: %v", body, err)
		}
	}

	watcher, err := bobSession.Watch(ctx, WatchConfig{
		Peer:       peerOf(aliceSession),
		AfterIndex: 2,
		Interval:   time.Second,
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	only := testutil.RequireReceive(t, watcher.Messages(), receiveTimeout, "message after the resume index")
	if only.Index != 3 || only.Body != "new" {
		t.Errorf("delivered = (%d, %q), want (3, %q)", only.Index, only.Body, "new")
	}

	watcher.Stop()
	if extra, ok := <-watcher.Messages(); ok {
		t.Errorf("unexpected extra delivery: %+v", extra)
	}
}

func TestWatchStopClosesChannel(t *testing.T) {
	env := newTestEnv(t)
	aliceSession := env.messenger(t, alice)
	bobSession := env.messenger(t, bob)

	watcher, err := bobSession.Watch(context.Background(), WatchConfig{Peer: peerOf(aliceSession)})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	watcher.Stop()
	watcher.Stop() // idempotent

	if _, ok := <-watcher.Messages(); ok {
		t.Error("Messages channel still open after Stop")
	}
	if err := watcher.Err(); err != nil {
		t.Errorf("Err after clean stop = %v, want nil", err)
	}
}

func TestWatchParentContextCancel(t *testing.T) {
	env := newTestEnv(t)
	aliceSession := env.messenger(t, alice)
	bobSession := env.messenger(t, bob)

	ctx, cancel := context.WithCancel(context.Background())
	watcher, err := bobSession.Watch(ctx, WatchConfig{Peer: peerOf(aliceSession)})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	cancel()

	if err := watcher.Err(); err != nil {
		t.Errorf("Err after context cancel = %v, want nil", err)
	}
	if _, ok := <-watcher.Messages(); ok {
		t.Error("Messages channel still open after context cancel")
	}
}

// unavailableLedger fails every LastIndex call with a transient error.
type unavailableLedger struct {
	ledger.Ledger
}

func (l *unavailableLedger) LastIndex(ctx context.Context, conversation ref.ConversationID) (uint64, error) {
	return 0, &ledger.CallError{Code: ledger.CodeUnavailable, Message: "gateway down"}
}

func TestWatchStopsAfterConsecutiveFailures(t *testing.T) {
	env := newTestEnv(t)
	aliceSession := env.messenger(t, alice)

	// A real clock with a short interval: the failure cap needs the
	// ticker to actually fire repeatedly, and dropped fake ticks would
	// stall the loop.
	keypair, err := sealbox.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	bobSession, err := NewMessenger(Config{
		Self:    bob,
		Keypair: keypair,
		Ledger:  &unavailableLedger{Ledger: env.ledger},
		Store:   env.store,
		Clock:   clock.Real(),
	})
	if err != nil {
		t.Fatalf("NewMessenger: %v", err)
	}
	defer bobSession.Close()

	watcher, err := bobSession.Watch(context.Background(), WatchConfig{
		Peer:     peerOf(aliceSession),
		Interval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	watchErr := watcher.Err()
	if watchErr == nil {
		t.Fatal("watcher kept running against a dead ledger")
	}
	if !strings.Contains(watchErr.Error(), "5 consecutive times") {
		t.Errorf("Err = %q, want the consecutive-failure count", watchErr)
	}
	if !ledger.IsTransient(watchErr) {
		t.Errorf("Err = %v, want the transient cause preserved", watchErr)
	}
	if _, ok := <-watcher.Messages(); ok {
		t.Error("Messages channel still open after failure stop")
	}
}

// flakyLedger fails the first failures LastIndex calls, then recovers.
// Only the watcher goroutine touches the counter.
type flakyLedger struct {
	ledger.Ledger
	failures int
}

func (l *flakyLedger) LastIndex(ctx context.Context, conversation ref.ConversationID) (uint64, error) {
	if l.failures > 0 {
		l.failures--
		return 0, &ledger.CallError{Code: ledger.CodeUnavailable, Message: "gateway flapping"}
	}
	return l.Ledger.LastIndex(ctx, conversation)
}

func TestWatchRecoversFromTransientFailures(t *testing.T) {
	env := newTestEnv(t)
	aliceSession := env.messenger(t, alice)
	ctx := context.Background()

	keypair, err := sealbox.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	bobSession, err := NewMessenger(Config{
		Self:    bob,
		Keypair: keypair,
		Ledger:  &flakyLedger{Ledger: env.ledger, failures: 2},
		Store:   env.store,
		Clock:   clock.Real(),
	})
	if err != nil {
		t.Fatalf("NewMessenger: %v", err)
	}
	defer bobSession.Close()

	if _, err := aliceSession.Send(ctx, Peer{Address: bob, PublicKey: keypair.Public}, "through the noise"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	watcher, err := bobSession.Watch(ctx, WatchConfig{
		Peer:     peerOf(aliceSession),
		Interval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer watcher.Stop()

	// Two failed polls stay under the cap; the third delivers.
	message := testutil.RequireReceive(t, watcher.Messages(), receiveTimeout, "message after transient failures")
	if message.Body != "through the noise" {
		t.Errorf("Body = %q", message.Body)
	}

	watcher.Stop()
	if err := watcher.Err(); err != nil {
		t.Errorf("Err after recovery and stop = %v, want nil", err)
	}
}
