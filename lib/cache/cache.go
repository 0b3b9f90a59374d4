// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache persists per-conversation snapshots so a restarted
// client resumes from its last fetch instead of re-downloading every
// sealed payload.
//
// A snapshot holds the sealed envelopes already retrieved for a
// conversation plus the last ledger index they cover. Envelopes are
// content-addressed and immutable, so replaying from the cache yields
// the same messages a full rescan would. Only public data is cached:
// sealed envelope bytes, content IDs, indices. Plaintext and keys
// never touch disk here.
//
// Snapshot files are CBOR (Core Deterministic Encoding), compressed
// with zstd or LZ4 behind a tag byte, checksummed with keyed BLAKE3,
// and written atomically. A snapshot that fails any check on load is
// treated as absent, not as an error: the next fetch rebuilds it.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

// Snapshot format constants.
const (
	// snapshotVersion is bumped when the file layout changes.
	snapshotVersion = 1

	// snapshotHeaderSize is the fixed header: 8-byte magic + 1-byte
	// compression tag + 3 reserved bytes + 4-byte compressed size +
	// 4-byte uncompressed size + 32-byte checksum.
	snapshotHeaderSize = 52

	// maxSnapshotPayload bounds the decoded payload so a corrupt
	// header cannot demand an absurd allocation.
	maxSnapshotPayload = 64 << 20

	// snapshotSuffix names snapshot files.
	snapshotSuffix = ".snap"
)

// snapshotMagic is the 8-byte snapshot file signature: name, version
// byte, reserved byte.
var snapshotMagic = [8]byte{'M', 'A', 'S', 'S', 'A', 'C', snapshotVersion, 0}

// snapshotKey is the keyed-hash domain for snapshot checksums,
// distinct from every other keyed-hash domain in the codebase.
var snapshotKey = func() [32]byte {
	var key [32]byte
	copy(key[:], "massachat.cache")
	return key
}()

// Entry is one fetched envelope. The envelope bytes are exactly what
// the pin store served; they stay sealed in the cache.
type Entry struct {
	// Index is the 1-based ledger index the envelope is anchored at.
	Index uint64 `cbor:"index"`

	// CID is the content ID the ledger record binds.
	CID ref.ContentID `cbor:"cid"`

	// Timestamp is the ledger's anchoring timestamp in milliseconds.
	Timestamp int64 `cbor:"timestamp"`

	// Envelope is the sealed envelope JSON fetched from the store.
	Envelope []byte `cbor:"envelope"`
}

// Snapshot is the cached state of one conversation.
type Snapshot struct {
	// Conversation identifies the conversation. Verified against the
	// requested conversation on load.
	Conversation ref.ConversationID `cbor:"conversation"`

	// LastIndex is the highest ledger index this snapshot covers.
	// Entries at higher indices must be fetched from the network.
	LastIndex uint64 `cbor:"lastIndex"`

	// Entries holds the fetched envelopes in strictly ascending index
	// order. Indices with no retrievable payload have no entry; they
	// are re-attempted on every fetch so late pins surface.
	Entries []Entry `cbor:"entries"`
}

// encMode and decMode carry the CBOR configuration: Core Deterministic
// Encoding on the way out, text-string handling for types with
// MarshalText/UnmarshalText (ref.ConversationID, ref.ContentID), and
// map[string]any for any-typed targets on the way in.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

// Config holds configuration for opening a Cache.
type Config struct {
	// Dir is the directory holding snapshot files. Created with mode
	// 0700 if it does not exist. Required.
	Dir string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Cache stores one snapshot file per conversation. Safe for
// concurrent use on distinct conversations; concurrent writers of the
// same conversation race benignly (one atomic write wins).
type Cache struct {
	dir    string
	logger *slog.Logger
}

// New opens (creating if necessary) the snapshot directory.
func New(config Config) (*Cache, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("cache: Dir is required")
	}
	if err := os.MkdirAll(config.Dir, 0700); err != nil {
		return nil, fmt.Errorf("cache: creating snapshot directory: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{dir: config.Dir, logger: logger}, nil
}

// path derives the snapshot file name from the keyed hash of the
// conversation ID. Conversation IDs contain ':' and unbounded address
// text; the digest keeps file names uniform.
func (c *Cache) path(conversation ref.ConversationID) string {
	hasher, err := blake3.NewKeyed(snapshotKey[:])
	if err != nil {
		panic("cache: creating keyed hasher: " + err.Error())
	}
	hasher.Write([]byte(conversation.String()))
	digest := hasher.Sum(nil)
	return filepath.Join(c.dir, hex.EncodeToString(digest[:16])+snapshotSuffix)
}

// Load reads the snapshot for a conversation. A missing, corrupt, or
// mismatched snapshot returns (nil, nil): the cache is an optimization
// and a bad file must never block a fetch. Corruption is logged and
// the file is removed so the next Store starts clean.
func (c *Cache) Load(conversation ref.ConversationID) (*Snapshot, error) {
	if conversation.IsZero() {
		return nil, fmt.Errorf("cache: zero conversation ID")
	}

	path := c.path(conversation)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: reading snapshot: %w", err)
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		c.logger.Warn("discarding unreadable snapshot",
			"conversation", conversation,
			"error", err,
		)
		os.Remove(path)
		return nil, nil
	}
	if snapshot.Conversation != conversation {
		c.logger.Warn("discarding snapshot for wrong conversation",
			"want", conversation,
			"got", snapshot.Conversation,
		)
		os.Remove(path)
		return nil, nil
	}
	return snapshot, nil
}

// Store writes the snapshot for its conversation atomically.
func (c *Cache) Store(snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cache: nil snapshot")
	}
	if snapshot.Conversation.IsZero() {
		return fmt.Errorf("cache: snapshot has no conversation ID")
	}
	var previousIndex uint64
	for i, entry := range snapshot.Entries {
		if entry.Index == 0 {
			return fmt.Errorf("cache: entry %d has index 0", i)
		}
		if entry.Index <= previousIndex {
			return fmt.Errorf("cache: entry indices not strictly ascending at position %d", i)
		}
		if entry.Index > snapshot.LastIndex {
			return fmt.Errorf("cache: entry index %d exceeds snapshot last index %d", entry.Index, snapshot.LastIndex)
		}
		if entry.CID.IsZero() {
			return fmt.Errorf("cache: entry %d has no content ID", i)
		}
		if len(entry.Envelope) == 0 {
			return fmt.Errorf("cache: entry %d has an empty envelope", i)
		}
		previousIndex = entry.Index
	}

	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	path := c.path(snapshot.Conversation)
	temporaryPath := path + ".tmp"
	if err := os.WriteFile(temporaryPath, data, 0600); err != nil {
		return fmt.Errorf("cache: writing temporary snapshot: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("cache: renaming snapshot into place: %w", err)
	}
	return nil
}

// Invalidate removes the snapshot for a conversation. Removing an
// absent snapshot is not an error.
func (c *Cache) Invalidate(conversation ref.ConversationID) error {
	if conversation.IsZero() {
		return fmt.Errorf("cache: zero conversation ID")
	}
	if err := os.Remove(c.path(conversation)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: removing snapshot: %w", err)
	}
	return nil
}

// encodeSnapshot serializes, compresses, and frames a snapshot.
func encodeSnapshot(snapshot *Snapshot) ([]byte, error) {
	payload, err := encMode.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("cache: encoding snapshot: %w", err)
	}
	if len(payload) > maxSnapshotPayload {
		return nil, fmt.Errorf("cache: snapshot payload is %d bytes, maximum is %d", len(payload), maxSnapshotPayload)
	}

	checksum := checksumPayload(payload)
	compressed, tag := compressPayload(payload)

	data := make([]byte, 0, snapshotHeaderSize+len(compressed))
	data = append(data, snapshotMagic[:]...)
	data = append(data, byte(tag), 0, 0, 0)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(compressed)))
	data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, checksum[:]...)
	data = append(data, compressed...)
	return data, nil
}

// decodeSnapshot validates the frame, decompresses, verifies the
// checksum, and decodes the CBOR payload.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) < snapshotHeaderSize {
		return nil, fmt.Errorf("snapshot is %d bytes, header alone is %d", len(data), snapshotHeaderSize)
	}

	var magic [8]byte
	copy(magic[:], data[:8])
	if magic != snapshotMagic {
		if bytes.Equal(magic[:6], snapshotMagic[:6]) {
			return nil, fmt.Errorf("snapshot version %d is not supported (this code supports version %d)",
				magic[6], snapshotVersion)
		}
		return nil, fmt.Errorf("not a snapshot file (invalid magic bytes)")
	}

	tag := CompressionTag(data[8])
	if tag > CompressionZstd {
		return nil, fmt.Errorf("unsupported compression tag %d", tag)
	}
	if data[9] != 0 || data[10] != 0 || data[11] != 0 {
		return nil, fmt.Errorf("non-zero reserved header bytes")
	}

	compressedSize := binary.LittleEndian.Uint32(data[12:16])
	uncompressedSize := binary.LittleEndian.Uint32(data[16:20])
	if uncompressedSize > maxSnapshotPayload {
		return nil, fmt.Errorf("snapshot payload claims %d bytes, maximum is %d", uncompressedSize, maxSnapshotPayload)
	}
	var checksum [32]byte
	copy(checksum[:], data[20:52])

	body := data[snapshotHeaderSize:]
	if uint32(len(body)) != compressedSize {
		return nil, fmt.Errorf("snapshot body is %d bytes, header claims %d", len(body), compressedSize)
	}

	payload, err := decompressPayload(body, tag, int(uncompressedSize))
	if err != nil {
		return nil, err
	}
	if checksumPayload(payload) != checksum {
		return nil, fmt.Errorf("snapshot checksum mismatch")
	}

	var snapshot Snapshot
	if err := decMode.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot payload: %w", err)
	}
	return &snapshot, nil
}

// checksumPayload computes the cache-domain keyed BLAKE3 digest of the
// uncompressed payload.
func checksumPayload(payload []byte) [32]byte {
	hasher, err := blake3.NewKeyed(snapshotKey[:])
	if err != nil {
		panic("cache: creating keyed hasher: " + err.Error())
	}
	hasher.Write(payload)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}
