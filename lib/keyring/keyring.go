// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyring stores sealing identities on disk, one file per
// account address, with the secret key encrypted under a passphrase.
//
// Each key file is JSON: the address, the public key in the clear (so
// listing and display never prompt for a passphrase), and the 32-byte
// secret key sealed with age's scrypt recipient. Files are written
// atomically and created with mode 0600.
//
// Decrypted secret keys live in secret.Buffer memory (mmap-backed,
// locked against swap, excluded from core dumps, zeroed on close) and
// are handed to callers as sealbox.Keypair values.
package keyring

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
	"github.com/anikeaty08/MassaChat/lib/secret"
)

// keyFileVersion is bumped when the key file layout changes.
const keyFileVersion = 1

// keyFileSuffix names key files: <address>.key.json.
const keyFileSuffix = ".key.json"

// defaultWorkFactor is the scrypt cost (log2 N) for sealing secret
// keys. Matches the age tool's default.
const defaultWorkFactor = 18

// ErrNotFound is returned when no key file exists for an address.
var ErrNotFound = errors.New("keyring: no key for this address")

// ErrExists is returned when generating or importing a key for an
// address that already has one. Remove the existing key first.
var ErrExists = errors.New("keyring: a key for this address already exists")

// keyFile is the on-disk layout. The secret key is base64 age
// ciphertext; everything else is readable without a passphrase.
type keyFile struct {
	Version         int               `json:"version"`
	Address         ref.Address       `json:"address"`
	PublicKey       sealbox.PublicKey `json:"publicKey"`
	SealedSecretKey string            `json:"sealedSecretKey"`
	CreatedAt       int64             `json:"createdAt"`
}

// Config holds configuration for opening a Keyring.
type Config struct {
	// Dir is the directory holding key files. Created with mode 0700
	// if it does not exist. Required.
	Dir string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// ScryptWorkFactor overrides the passphrase KDF cost (log2 of the
	// scrypt N parameter). Zero means the default. Tests lower it to
	// keep key generation fast.
	ScryptWorkFactor int
}

// Keyring manages passphrase-protected sealing identities in a
// directory. Safe for concurrent reads; concurrent writes to the same
// address race on the filesystem and are not coordinated.
type Keyring struct {
	dir        string
	logger     *slog.Logger
	workFactor int
}

// New opens (creating if necessary) the key directory.
func New(config Config) (*Keyring, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("keyring: Dir is required")
	}
	if err := os.MkdirAll(config.Dir, 0700); err != nil {
		return nil, fmt.Errorf("keyring: creating key directory: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workFactor := config.ScryptWorkFactor
	if workFactor == 0 {
		workFactor = defaultWorkFactor
	}
	if workFactor < 1 || workFactor > 30 {
		return nil, fmt.Errorf("keyring: scrypt work factor %d out of range [1, 30]", workFactor)
	}

	return &Keyring{
		dir:        config.Dir,
		logger:     logger,
		workFactor: workFactor,
	}, nil
}

func (k *Keyring) path(address ref.Address) string {
	return filepath.Join(k.dir, address.String()+keyFileSuffix)
}

// Generate creates a new sealing identity for the address, seals its
// secret key under the passphrase, and writes the key file. Fails with
// ErrExists if the address already has a key.
//
// The caller must call Close on the returned Keypair when done.
func (k *Keyring) Generate(address ref.Address, passphrase *secret.Buffer) (*sealbox.Keypair, error) {
	if address.IsZero() {
		return nil, fmt.Errorf("keyring: zero address")
	}
	if _, err := os.Stat(k.path(address)); err == nil {
		return nil, fmt.Errorf("keyring: %s: %w", address, ErrExists)
	}

	keypair, err := sealbox.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	if err := k.write(address, keypair, passphrase); err != nil {
		keypair.Close()
		return nil, err
	}

	k.logger.Info("generated sealing identity",
		"address", address,
		"public_key", keypair.Public,
	)
	return keypair, nil
}

// Load reads the key file for the address and unseals the secret key
// with the passphrase. The public key derived from the unsealed secret
// must match the one stored in the file; a mismatch means the file was
// corrupted or tampered with.
//
// The caller must call Close on the returned Keypair when done.
func (k *Keyring) Load(address ref.Address, passphrase *secret.Buffer) (*sealbox.Keypair, error) {
	stored, err := k.read(address)
	if err != nil {
		return nil, err
	}

	secretKey, err := k.unseal(stored.SealedSecretKey, passphrase)
	if err != nil {
		return nil, fmt.Errorf("keyring: unsealing key for %s (wrong passphrase?): %w", address, err)
	}

	keypair, err := sealbox.NewKeypairFromSecret(secretKey)
	if err != nil {
		secret.Wipe(secretKey)
		return nil, err
	}
	if keypair.Public != stored.PublicKey {
		keypair.Close()
		return nil, fmt.Errorf("keyring: key file for %s is corrupt: unsealed secret does not match stored public key", address)
	}
	return keypair, nil
}

// PublicKey reads the public half of an identity without a passphrase.
func (k *Keyring) PublicKey(address ref.Address) (sealbox.PublicKey, error) {
	stored, err := k.read(address)
	if err != nil {
		return sealbox.PublicKey{}, err
	}
	return stored.PublicKey, nil
}

// List returns the addresses with stored identities, sorted.
func (k *Keyring) List() ([]ref.Address, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		return nil, fmt.Errorf("keyring: reading key directory: %w", err)
	}

	var addresses []ref.Address
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, keyFileSuffix) {
			continue
		}
		address, err := ref.ParseAddress(strings.TrimSuffix(name, keyFileSuffix))
		if err != nil {
			k.logger.Warn("skipping malformed key file name", "file", name, "error", err)
			continue
		}
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i].Less(addresses[j]) })
	return addresses, nil
}

// Export returns the raw key file bytes for transfer to another
// machine. The secret key inside remains sealed under its passphrase.
func (k *Keyring) Export(address ref.Address) ([]byte, error) {
	if address.IsZero() {
		return nil, fmt.Errorf("keyring: zero address")
	}
	data, err := os.ReadFile(k.path(address))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("keyring: %s: %w", address, ErrNotFound)
		}
		return nil, fmt.Errorf("keyring: reading key file: %w", err)
	}
	return data, nil
}

// Import installs an exported key file. The passphrase must unseal the
// file's secret key, and the unsealed secret must match the stored
// public key; a file that cannot be verified is not installed. Fails
// with ErrExists if the address already has a key.
func (k *Keyring) Import(data []byte, passphrase *secret.Buffer) (ref.Address, error) {
	var stored keyFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return ref.Address{}, fmt.Errorf("keyring: parsing key file: %w", err)
	}
	if stored.Version != keyFileVersion {
		return ref.Address{}, fmt.Errorf("keyring: unsupported key file version %d", stored.Version)
	}
	if stored.Address.IsZero() {
		return ref.Address{}, fmt.Errorf("keyring: key file carries no address")
	}
	if _, err := os.Stat(k.path(stored.Address)); err == nil {
		return ref.Address{}, fmt.Errorf("keyring: %s: %w", stored.Address, ErrExists)
	}

	// Verify before installing: unseal and check the public key.
	secretKey, err := k.unseal(stored.SealedSecretKey, passphrase)
	if err != nil {
		return ref.Address{}, fmt.Errorf("keyring: unsealing imported key (wrong passphrase?): %w", err)
	}
	keypair, err := sealbox.NewKeypairFromSecret(secretKey)
	if err != nil {
		secret.Wipe(secretKey)
		return ref.Address{}, err
	}
	defer keypair.Close()
	if keypair.Public != stored.PublicKey {
		return ref.Address{}, fmt.Errorf("keyring: imported key file is corrupt: secret does not match public key")
	}

	if err := writeFileAtomic(k.path(stored.Address), data); err != nil {
		return ref.Address{}, err
	}
	k.logger.Info("imported sealing identity", "address", stored.Address)
	return stored.Address, nil
}

// Remove deletes the key file for an address. The secret key is
// unrecoverable afterwards unless an export exists.
func (k *Keyring) Remove(address ref.Address) error {
	if address.IsZero() {
		return fmt.Errorf("keyring: zero address")
	}
	if err := os.Remove(k.path(address)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("keyring: %s: %w", address, ErrNotFound)
		}
		return fmt.Errorf("keyring: removing key file: %w", err)
	}
	k.logger.Info("removed sealing identity", "address", address)
	return nil
}

func (k *Keyring) read(address ref.Address) (*keyFile, error) {
	if address.IsZero() {
		return nil, fmt.Errorf("keyring: zero address")
	}
	data, err := os.ReadFile(k.path(address))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("keyring: %s: %w", address, ErrNotFound)
		}
		return nil, fmt.Errorf("keyring: reading key file: %w", err)
	}

	var stored keyFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("keyring: parsing key file for %s: %w", address, err)
	}
	if stored.Version != keyFileVersion {
		return nil, fmt.Errorf("keyring: key file for %s has unsupported version %d", address, stored.Version)
	}
	if stored.Address != address {
		return nil, fmt.Errorf("keyring: key file for %s claims address %s", address, stored.Address)
	}
	return &stored, nil
}

func (k *Keyring) write(address ref.Address, keypair *sealbox.Keypair, passphrase *secret.Buffer) error {
	sealed, err := k.seal(keypair.Secret, passphrase)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(keyFile{
		Version:         keyFileVersion,
		Address:         address,
		PublicKey:       keypair.Public,
		SealedSecretKey: sealed,
		CreatedAt:       time.Now().UnixMilli(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("keyring: marshaling key file: %w", err)
	}
	data = append(data, '\n')

	return writeFileAtomic(k.path(address), data)
}

// seal encrypts the 32-byte secret key under the passphrase with age's
// scrypt recipient. Returns standard base64 ciphertext.
func (k *Keyring) seal(secretKey *secret.Buffer, passphrase *secret.Buffer) (string, error) {
	// age requires the passphrase as a string. The heap copy is brief
	// and request-scoped.
	recipient, err := age.NewScryptRecipient(passphrase.String())
	if err != nil {
		return "", fmt.Errorf("keyring: creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(k.workFactor)

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return "", fmt.Errorf("keyring: creating age encryptor: %w", err)
	}
	if _, err := writer.Write(secretKey.Bytes()); err != nil {
		return "", fmt.Errorf("keyring: sealing secret key: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("keyring: finalizing seal: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// unseal decrypts base64 age ciphertext with the passphrase. The
// returned bytes are on the Go heap; callers move them into protected
// memory (NewKeypairFromSecret zeros the source) or wipe them.
func (k *Keyring) unseal(sealed string, passphrase *secret.Buffer) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decoding sealed key: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	secretKey, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted key: %w", err)
	}
	return secretKey, nil
}

// writeFileAtomic writes data to a temporary file in the target's
// directory, syncs it, and renames it into place. Readers never see a
// partial key file, and a crash mid-write cannot destroy an existing
// one.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("keyring: creating temporary key file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("keyring: writing temporary key file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("keyring: syncing temporary key file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("keyring: closing temporary key file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("keyring: renaming key file into place: %w", err)
	}
	return nil
}
