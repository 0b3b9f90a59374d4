// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the algorithm used for a snapshot payload.
// Tags are stored in the snapshot header (1 byte). These values are
// format constants; changing them breaks existing snapshot files.
type CompressionTag uint8

const (
	// CompressionNone indicates an uncompressed payload. Used when
	// compression does not shrink the payload.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 indicates LZ4 block compression. Used for small
	// snapshots where zstd's frame overhead eats the gains.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd indicates zstd at the default level. Snapshot
	// payloads are CBOR full of base64 text and compress well.
	CompressionZstd CompressionTag = 2
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("cache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cache: zstd decoder initialization failed: " + err.Error())
	}
}

// smallSnapshotThreshold is the payload size below which LZ4 is
// preferred over zstd.
const smallSnapshotThreshold = 4 * 1024

// compressPayload compresses a snapshot payload, choosing LZ4 for
// small payloads and zstd otherwise. Falls back to CompressionNone
// when the output would not be smaller than the input.
func compressPayload(payload []byte) ([]byte, CompressionTag) {
	if len(payload) < smallSnapshotThreshold {
		bound := lz4.CompressBlockBound(len(payload))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(payload, destination, nil)
		if err == nil && written > 0 && written < len(payload) {
			return destination[:written], CompressionLZ4
		}
		return payload, CompressionNone
	}

	compressed := zstdEncoder.EncodeAll(payload, nil)
	if len(compressed) >= len(payload) {
		return payload, CompressionNone
	}
	return compressed, CompressionZstd
}

// decompressPayload reverses compressPayload. The uncompressedSize
// must match the original payload length exactly.
func decompressPayload(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match expected %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(compressed, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
