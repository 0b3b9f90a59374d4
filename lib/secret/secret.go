// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for key material:
// sealing keys, passphrases, and anything else that must not outlive
// its use.
//
// Buffer allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close the
// memory is zeroed, unlocked, and unmapped. Because the region is
// outside the Go heap, the garbage collector never copies or relocates
// it, so zeroing on Close actually destroys the secret.
package secret

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds key material in memory that is locked against swapping,
// excluded from core dumps, and zeroed on close.
//
// A Buffer must not be copied after creation. After Close, any access
// to the contents panics. Buffers are safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool
}

// New allocates a protected buffer of the given size: anonymous mmap
// outside the Go heap, mlocked, excluded from core dumps. The caller
// must Close the buffer when the secret is no longer needed.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock failed: %w", err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}

	return &Buffer{
		data:   data,
		length: size,
	}, nil
}

// NewFromBytes moves existing data into a protected buffer. The source
// bytes are copied into the mmap region and then zeroed in place, so
// the caller's slice no longer holds the secret afterward.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.data, source)
	Wipe(source)
	return buffer, nil
}

// Bytes returns the secret data. The slice points directly into the
// mmap region; do not retain it beyond the lifetime of the Buffer.
// Panics if the buffer has been closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.data[:b.length]
}

// Key32 returns the contents as a pointer to a 32-byte array inside
// the protected region, the shape the NaCl primitives take. No copy is
// made. Returns an error if the buffer does not hold exactly 32 bytes;
// panics if it has been closed.
func (b *Buffer) Key32() (*[32]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	if b.length != 32 {
		return nil, fmt.Errorf("secret: buffer holds %d bytes, key requires 32", b.length)
	}
	return (*[32]byte)(b.data[:32]), nil
}

// String returns the secret as a string. The string is a heap copy (Go
// strings are immutable), so use it only at API boundaries that demand
// a string, such as passphrase parameters. Prefer Bytes elsewhere.
// Panics if the buffer has been closed.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return string(b.data[:b.length])
}

// Len returns the size of the secret data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.length
}

// Close zeros the contents, then unlocks and unmaps the memory.
// Idempotent. After Close any content access panics.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Wipe(b.data)

	// The memory is released at process exit regardless, so a failure
	// here is reported but nothing more.
	var firstError error
	if err := unix.Munlock(b.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munlock failed: %w", err)
	}
	if err := unix.Munmap(b.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munmap failed: %w", err)
	}
	b.data = nil
	return firstError
}

// Wipe zeroes a byte slice in place. For transient copies of key
// material on the Go heap (decrypted intermediates, prompt input)
// where a full Buffer is not warranted.
func Wipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
