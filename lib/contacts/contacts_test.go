// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package contacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
)

var (
	alice = ref.MustParseAddress("AU1alice")
	bob   = ref.MustParseAddress("AU1bob")
)

func testPublicKey(t *testing.T) sealbox.PublicKey {
	t.Helper()
	keypair, err := sealbox.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair.Public
}

func TestLoadMissingFileIsEmptyBook(t *testing.T) {
	book, err := Load(filepath.Join(t.TempDir(), "contacts.jsonc"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if book.Len() != 0 {
		t.Errorf("missing file loaded %d contacts, want 0", book.Len())
	}
}

func TestLoadJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.jsonc")
	key := testPublicKey(t)
	content := fmt.Sprintf(`// hand-written contact book
{
  "contacts": [
    /* verified in person 2026-03-14 */
    {
      "address": "AU1bob",
      "publicKey": %q,
      "nickname": "Bob",
    },
  ],
}
`, key)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	book, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	contact, found := book.ByAddress(bob)
	if !found {
		t.Fatal("ByAddress(bob) not found after load")
	}
	if contact.PublicKey != key {
		t.Errorf("loaded public key %v, want %v", contact.PublicKey, key)
	}
	if contact.Nickname != "Bob" {
		t.Errorf("loaded nickname %q, want %q", contact.Nickname, "Bob")
	}
}

func TestLoadRejectsBadBooks(t *testing.T) {
	key := testPublicKey(t)
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing address",
			fmt.Sprintf(`{"contacts": [{"publicKey": %q}]}`, key),
		},
		{
			"missing public key",
			`{"contacts": [{"address": "AU1bob"}]}`,
		},
		{
			"duplicate address",
			fmt.Sprintf(`{"contacts": [
				{"address": "AU1bob", "publicKey": %q},
				{"address": "AU1bob", "publicKey": %q}
			]}`, key, key),
		},
		{
			"duplicate nickname different case",
			fmt.Sprintf(`{"contacts": [
				{"address": "AU1bob", "publicKey": %q, "nickname": "Buddy"},
				{"address": "AU1eve", "publicKey": %q, "nickname": "buddy"}
			]}`, key, key),
		},
		{
			"not json at all",
			`contacts: [yaml?]`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "contacts.jsonc")
			if err := os.WriteFile(path, []byte(test.content), 0600); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load accepted a malformed book")
			}
		})
	}
}

func TestAddLookupRemove(t *testing.T) {
	book := &Book{path: filepath.Join(t.TempDir(), "contacts.jsonc")}
	aliceKey := testPublicKey(t)
	bobKey := testPublicKey(t)

	if err := book.Add(Contact{Address: alice, PublicKey: aliceKey, Nickname: "Allie"}); err != nil {
		t.Fatalf("Add(alice): %v", err)
	}
	if err := book.Add(Contact{Address: bob, PublicKey: bobKey}); err != nil {
		t.Fatalf("Add(bob): %v", err)
	}

	if contact, found := book.ByAddress(alice); !found || contact.PublicKey != aliceKey {
		t.Errorf("ByAddress(alice) = (%v, %v)", contact, found)
	}
	// Nickname lookup is case-insensitive.
	if _, found := book.ByNickname("ALLIE"); !found {
		t.Error("ByNickname is case-sensitive, want case-insensitive")
	}
	if _, found := book.ByNickname("stranger"); found {
		t.Error("ByNickname found a contact that was never added")
	}

	// Resolve accepts a nickname or an address.
	if contact, found := book.Resolve("allie"); !found || contact.Address != alice {
		t.Errorf("Resolve(nickname) = (%v, %v)", contact, found)
	}
	if contact, found := book.Resolve("AU1bob"); !found || contact.Address != bob {
		t.Errorf("Resolve(address) = (%v, %v)", contact, found)
	}
	if _, found := book.Resolve("AU1stranger"); found {
		t.Error("Resolve found an address that was never added")
	}

	if err := book.Remove(alice); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, found := book.ByAddress(alice); found {
		t.Error("contact still present after Remove")
	}
	if err := book.Remove(alice); err == nil {
		t.Error("second Remove succeeded")
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	book := &Book{}
	key := testPublicKey(t)

	if err := book.Add(Contact{Address: bob, PublicKey: key, Nickname: "Buddy"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := book.Add(Contact{Address: bob, PublicKey: key}); err == nil {
		t.Error("Add accepted a duplicate address")
	}
	if err := book.Add(Contact{Address: alice, PublicKey: key, Nickname: "buddy"}); err == nil {
		t.Error("Add accepted a duplicate nickname in different case")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.jsonc")
	book, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	key := testPublicKey(t)
	if err := book.Add(Contact{Address: bob, PublicKey: key, Nickname: "Bob"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := book.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The saved file leads with the header comment and still parses.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved book: %v", err)
	}
	if !strings.HasPrefix(string(raw), "// ") {
		t.Errorf("saved book does not start with a header comment: %q", raw[:20])
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	contact, found := reloaded.ByAddress(bob)
	if !found {
		t.Fatal("contact missing after save/load round trip")
	}
	if contact.PublicKey != key || contact.Nickname != "Bob" {
		t.Errorf("round-trip contact = %+v", contact)
	}
}

func TestAllSorted(t *testing.T) {
	book := &Book{}
	key := testPublicKey(t)

	entries := []Contact{
		{Address: ref.MustParseAddress("AU1zed"), PublicKey: key},
		{Address: ref.MustParseAddress("AU1carol"), PublicKey: key, Nickname: "carol"},
		{Address: ref.MustParseAddress("AU1dan"), PublicKey: key, Nickname: "Aaron"},
	}
	for _, entry := range entries {
		if err := book.Add(entry); err != nil {
			t.Fatalf("Add(%s): %v", entry.Address, err)
		}
	}

	all := book.All()
	if len(all) != 3 {
		t.Fatalf("All returned %d contacts, want 3", len(all))
	}
	// Named contacts sort by nickname first; unnamed sort last.
	if all[0].Nickname != "Aaron" || all[1].Nickname != "carol" || all[2].Nickname != "" {
		t.Errorf("All order = [%q %q %q]", all[0].Nickname, all[1].Nickname, all[2].Nickname)
	}
	if all[2].Address.String() != "AU1zed" {
		t.Errorf("unnamed contact not last: %v", all[2].Address)
	}
}
