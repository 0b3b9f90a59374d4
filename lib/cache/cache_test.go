// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bytes"
	"os"
	"reflect"
	"testing"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

var (
	alice = ref.MustParseAddress("AU1alice")
	bob   = ref.MustParseAddress("AU1bob")
	eve   = ref.MustParseAddress("AU1eve")
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Conversation: ref.ConversationFor(alice, bob),
		LastIndex:    5,
		Entries: []Entry{
			{Index: 1, CID: ref.MustParseContentID("Qm1"), Timestamp: 1000, Envelope: []byte(`{"nonce":"a"}`)},
			{Index: 2, CID: ref.MustParseContentID("Qm2"), Timestamp: 2000, Envelope: []byte(`{"nonce":"b"}`)},
			// Index 3 has no entry: its payload was unavailable and is
			// re-attempted on every fetch.
			{Index: 4, CID: ref.MustParseContentID("Qm4"), Timestamp: 4000, Envelope: []byte(`{"nonce":"d"}`)},
			{Index: 5, CID: ref.MustParseContentID("Qm5"), Timestamp: 5000, Envelope: []byte(`{"nonce":"e"}`)},
		},
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	c := testCache(t)
	original := testSnapshot()

	if err := c.Store(original); err != nil {
		t.Fatalf("Store: %v", err)
	}
	loaded, err := c.Load(original.Conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for a stored snapshot")
	}
	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	c := testCache(t)
	snapshot, err := c.Load(ref.ConversationFor(alice, bob))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot != nil {
		t.Errorf("Load of missing snapshot = %+v, want nil", snapshot)
	}
}

func TestLoadCorruptSnapshotIsAbsent(t *testing.T) {
	c := testCache(t)
	conversation := ref.ConversationFor(alice, bob)
	path := c.path(conversation)

	if err := os.WriteFile(path, []byte("not a snapshot at all"), 0600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	snapshot, err := c.Load(conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot != nil {
		t.Errorf("Load of corrupt snapshot = %+v, want nil", snapshot)
	}
	// The corrupt file is removed so the next Store starts clean.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt snapshot file was not removed")
	}
}

func TestTamperedSnapshotIsAbsent(t *testing.T) {
	c := testCache(t)
	original := testSnapshot()
	if err := c.Store(original); err != nil {
		t.Fatalf("Store: %v", err)
	}

	path := c.path(original.Conversation)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot file: %v", err)
	}
	// Flip one payload byte past the header.
	data[snapshotHeaderSize] ^= 0xff
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("writing tampered file: %v", err)
	}

	snapshot, err := c.Load(original.Conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot != nil {
		t.Error("Load returned a snapshot from a tampered file")
	}
}

func TestUnsupportedVersionIsAbsent(t *testing.T) {
	c := testCache(t)
	original := testSnapshot()
	if err := c.Store(original); err != nil {
		t.Fatalf("Store: %v", err)
	}

	path := c.path(original.Conversation)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot file: %v", err)
	}
	data[6] = snapshotVersion + 1
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("writing future-version file: %v", err)
	}

	snapshot, err := c.Load(original.Conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot != nil {
		t.Error("Load accepted a snapshot with an unsupported version")
	}
}

func TestStoreValidatesSnapshots(t *testing.T) {
	c := testCache(t)
	conversation := ref.ConversationFor(alice, bob)
	cid := ref.MustParseContentID("Qm1")

	tests := []struct {
		name     string
		snapshot *Snapshot
	}{
		{"nil snapshot", nil},
		{"zero conversation", &Snapshot{LastIndex: 1}},
		{
			"entry index zero",
			&Snapshot{Conversation: conversation, LastIndex: 1, Entries: []Entry{
				{Index: 0, CID: cid, Envelope: []byte("x")},
			}},
		},
		{
			"indices not ascending",
			&Snapshot{Conversation: conversation, LastIndex: 3, Entries: []Entry{
				{Index: 2, CID: cid, Envelope: []byte("x")},
				{Index: 2, CID: cid, Envelope: []byte("x")},
			}},
		},
		{
			"index beyond last index",
			&Snapshot{Conversation: conversation, LastIndex: 1, Entries: []Entry{
				{Index: 2, CID: cid, Envelope: []byte("x")},
			}},
		},
		{
			"missing content id",
			&Snapshot{Conversation: conversation, LastIndex: 1, Entries: []Entry{
				{Index: 1, Envelope: []byte("x")},
			}},
		},
		{
			"empty envelope",
			&Snapshot{Conversation: conversation, LastIndex: 1, Entries: []Entry{
				{Index: 1, CID: cid},
			}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := c.Store(test.snapshot); err == nil {
				t.Error("Store accepted an invalid snapshot")
			}
		})
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	c := testCache(t)

	first := testSnapshot()
	second := &Snapshot{
		Conversation: ref.ConversationFor(alice, eve),
		LastIndex:    1,
		Entries: []Entry{
			{Index: 1, CID: ref.MustParseContentID("QmX"), Timestamp: 9000, Envelope: []byte(`{"nonce":"z"}`)},
		},
	}
	if err := c.Store(first); err != nil {
		t.Fatalf("Store(first): %v", err)
	}
	if err := c.Store(second); err != nil {
		t.Fatalf("Store(second): %v", err)
	}

	loadedFirst, err := c.Load(first.Conversation)
	if err != nil {
		t.Fatalf("Load(first): %v", err)
	}
	loadedSecond, err := c.Load(second.Conversation)
	if err != nil {
		t.Fatalf("Load(second): %v", err)
	}
	if loadedFirst == nil || loadedFirst.LastIndex != 5 {
		t.Errorf("first snapshot = %+v", loadedFirst)
	}
	if loadedSecond == nil || loadedSecond.LastIndex != 1 {
		t.Errorf("second snapshot = %+v", loadedSecond)
	}
}

func TestInvalidate(t *testing.T) {
	c := testCache(t)
	original := testSnapshot()

	if err := c.Store(original); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Invalidate(original.Conversation); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	snapshot, err := c.Load(original.Conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot != nil {
		t.Error("snapshot survived Invalidate")
	}
	// Invalidating an absent snapshot is fine.
	if err := c.Invalidate(original.Conversation); err != nil {
		t.Errorf("second Invalidate: %v", err)
	}
}

func TestStoreOverwrites(t *testing.T) {
	c := testCache(t)
	original := testSnapshot()
	if err := c.Store(original); err != nil {
		t.Fatalf("Store: %v", err)
	}

	grown := testSnapshot()
	grown.LastIndex = 6
	grown.Entries = append(grown.Entries, Entry{
		Index: 6, CID: ref.MustParseContentID("Qm6"), Timestamp: 6000, Envelope: []byte(`{"nonce":"f"}`),
	})
	if err := c.Store(grown); err != nil {
		t.Fatalf("Store(grown): %v", err)
	}

	loaded, err := c.Load(original.Conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LastIndex != 6 || len(loaded.Entries) != 5 {
		t.Errorf("overwritten snapshot: lastIndex=%d entries=%d, want 6 and 5", loaded.LastIndex, len(loaded.Entries))
	}
}

func TestLargeSnapshotUsesZstd(t *testing.T) {
	c := testCache(t)
	snapshot := &Snapshot{
		Conversation: ref.ConversationFor(alice, bob),
		LastIndex:    1,
		Entries: []Entry{
			{Index: 1, CID: ref.MustParseContentID("Qm1"), Envelope: bytes.Repeat([]byte("massachat "), 20_000)},
		},
	}
	if err := c.Store(snapshot); err != nil {
		t.Fatalf("Store: %v", err)
	}

	data, err := os.ReadFile(c.path(snapshot.Conversation))
	if err != nil {
		t.Fatalf("reading snapshot file: %v", err)
	}
	if tag := CompressionTag(data[8]); tag != CompressionZstd {
		t.Errorf("large snapshot compression = %v, want zstd", tag)
	}
	if len(data) >= 200_000 {
		t.Errorf("repetitive 200KB snapshot stored as %d bytes, compression had no effect", len(data))
	}

	loaded, err := c.Load(snapshot.Conversation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || !bytes.Equal(loaded.Entries[0].Envelope, snapshot.Entries[0].Envelope) {
		t.Error("large snapshot did not round-trip")
	}
}

func TestSmallSnapshotUsesLZ4(t *testing.T) {
	c := testCache(t)
	snapshot := &Snapshot{
		Conversation: ref.ConversationFor(alice, bob),
		LastIndex:    1,
		Entries: []Entry{
			{Index: 1, CID: ref.MustParseContentID("Qm1"), Envelope: bytes.Repeat([]byte("abcd"), 500)},
		},
	}
	if err := c.Store(snapshot); err != nil {
		t.Fatalf("Store: %v", err)
	}

	data, err := os.ReadFile(c.path(snapshot.Conversation))
	if err != nil {
		t.Fatalf("reading snapshot file: %v", err)
	}
	if tag := CompressionTag(data[8]); tag != CompressionLZ4 {
		t.Errorf("small snapshot compression = %v, want lz4", tag)
	}
}
