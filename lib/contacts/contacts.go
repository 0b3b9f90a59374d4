// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package contacts manages the local contact book: a hand-editable
// JSONC file mapping peer addresses to sealing public keys and
// optional nicknames.
//
// The book is the trust root for sealing. Messages are encrypted to
// the public key recorded here, not to whatever a directory claims, so
// adding a contact is the moment key verification happens. Nickname
// lookups are case-insensitive; addresses are exact.
//
// The on-disk format is JSON extended with // line comments, block
// comments, and trailing commas. Programmatic saves rewrite the file
// as plain JSON with a short header comment; hand-written comments do
// not survive a save.
package contacts

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
)

// Contact is one entry in the book.
type Contact struct {
	// Address is the peer's chain account address.
	Address ref.Address `json:"address"`

	// PublicKey is the peer's sealing public key. Messages to this
	// contact are encrypted to it.
	PublicKey sealbox.PublicKey `json:"publicKey"`

	// Nickname is a local petname for the contact. Optional. Lookups
	// are case-insensitive; the stored casing is preserved.
	Nickname string `json:"nickname,omitempty"`
}

// bookFile is the on-disk layout.
type bookFile struct {
	Contacts []Contact `json:"contacts"`
}

// fileHeader is written above the JSON payload on save. jsonc strips
// it on load.
const fileHeader = "// MassaChat contact book. Comments and trailing commas are fine,\n" +
	"// but `massachat contact` commands rewrite this file without them.\n"

// Book is a loaded contact book. Not safe for concurrent mutation.
type Book struct {
	path     string
	contacts []Contact
}

// Load reads the contact book at path. A missing file yields an empty
// book; the first Save creates it.
func Load(path string) (*Book, error) {
	if path == "" {
		return nil, fmt.Errorf("contacts: path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Book{path: path}, nil
		}
		return nil, fmt.Errorf("contacts: reading %s: %w", path, err)
	}

	var parsed bookFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &parsed); err != nil {
		return nil, fmt.Errorf("contacts: parsing %s: %w", path, err)
	}

	book := &Book{path: path, contacts: parsed.Contacts}
	if err := book.validate(); err != nil {
		return nil, fmt.Errorf("contacts: %s: %w", path, err)
	}
	return book, nil
}

// validate checks every entry and rejects duplicates. Hand-edited
// files get descriptive errors with entry positions.
func (b *Book) validate() error {
	seenAddresses := make(map[ref.Address]bool, len(b.contacts))
	seenNicknames := make(map[string]bool, len(b.contacts))
	for i, contact := range b.contacts {
		if contact.Address.IsZero() {
			return fmt.Errorf("entry %d: missing address", i+1)
		}
		if contact.PublicKey.IsZero() {
			return fmt.Errorf("entry %d (%s): missing public key", i+1, contact.Address)
		}
		if seenAddresses[contact.Address] {
			return fmt.Errorf("entry %d: duplicate address %s", i+1, contact.Address)
		}
		seenAddresses[contact.Address] = true

		if contact.Nickname == "" {
			continue
		}
		key := strings.ToLower(contact.Nickname)
		if seenNicknames[key] {
			return fmt.Errorf("entry %d: duplicate nickname %q", i+1, contact.Nickname)
		}
		seenNicknames[key] = true
	}
	return nil
}

// Add inserts a contact. The address must not already be present, and
// a non-empty nickname must not collide (case-insensitively) with an
// existing one.
func (b *Book) Add(contact Contact) error {
	if contact.Address.IsZero() {
		return fmt.Errorf("contacts: missing address")
	}
	if contact.PublicKey.IsZero() {
		return fmt.Errorf("contacts: missing public key for %s", contact.Address)
	}
	if _, found := b.ByAddress(contact.Address); found {
		return fmt.Errorf("contacts: %s is already in the book", contact.Address)
	}
	if contact.Nickname != "" {
		if existing, found := b.ByNickname(contact.Nickname); found {
			return fmt.Errorf("contacts: nickname %q is already used by %s", contact.Nickname, existing.Address)
		}
	}
	b.contacts = append(b.contacts, contact)
	return nil
}

// Remove deletes the contact with the given address.
func (b *Book) Remove(address ref.Address) error {
	for i, contact := range b.contacts {
		if contact.Address == address {
			b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("contacts: %s is not in the book", address)
}

// ByAddress looks up a contact by exact address.
func (b *Book) ByAddress(address ref.Address) (Contact, bool) {
	for _, contact := range b.contacts {
		if contact.Address == address {
			return contact, true
		}
	}
	return Contact{}, false
}

// ByNickname looks up a contact by nickname, case-insensitively.
func (b *Book) ByNickname(nickname string) (Contact, bool) {
	if nickname == "" {
		return Contact{}, false
	}
	for _, contact := range b.contacts {
		if strings.EqualFold(contact.Nickname, nickname) {
			return contact, true
		}
	}
	return Contact{}, false
}

// Resolve looks up a contact by nickname first, then by address. This
// is what CLI commands use to accept either form.
func (b *Book) Resolve(nameOrAddress string) (Contact, bool) {
	if contact, found := b.ByNickname(nameOrAddress); found {
		return contact, true
	}
	address, err := ref.ParseAddress(nameOrAddress)
	if err != nil {
		return Contact{}, false
	}
	return b.ByAddress(address)
}

// All returns the contacts sorted by nickname (unnamed entries last,
// by address). The returned slice is a copy.
func (b *Book) All() []Contact {
	sorted := make([]Contact, len(b.contacts))
	copy(sorted, b.contacts)
	sort.Slice(sorted, func(i, j int) bool {
		a, z := sorted[i], sorted[j]
		switch {
		case a.Nickname != "" && z.Nickname == "":
			return true
		case a.Nickname == "" && z.Nickname != "":
			return false
		case a.Nickname != z.Nickname:
			return strings.ToLower(a.Nickname) < strings.ToLower(z.Nickname)
		default:
			return a.Address.Less(z.Address)
		}
	})
	return sorted
}

// Len reports the number of contacts.
func (b *Book) Len() int { return len(b.contacts) }

// Path returns the file the book was loaded from and saves to.
func (b *Book) Path() string { return b.path }

// Save writes the book back to its file atomically, replacing any
// hand-written comments with the standard header.
func (b *Book) Save() error {
	payload, err := json.MarshalIndent(bookFile{Contacts: b.All()}, "", "  ")
	if err != nil {
		return fmt.Errorf("contacts: marshaling book: %w", err)
	}
	data := append([]byte(fileHeader), payload...)
	data = append(data, '\n')

	temporaryPath := b.path + ".tmp"
	if err := os.WriteFile(temporaryPath, data, 0600); err != nil {
		return fmt.Errorf("contacts: writing temporary book file: %w", err)
	}
	if err := os.Rename(temporaryPath, b.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("contacts: renaming book file into place: %w", err)
	}
	return nil
}
