// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
	"github.com/anikeaty08/MassaChat/lib/secret"
)

// testWorkFactor keeps scrypt cheap in tests (2^10 iterations).
const testWorkFactor = 10

var (
	alice = ref.MustParseAddress("AU1alice")
	bob   = ref.MustParseAddress("AU1bob")
)

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	ring, err := New(Config{Dir: t.TempDir(), ScryptWorkFactor: testWorkFactor})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ring
}

func testPassphrase(t *testing.T, phrase string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(phrase))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestGenerateAndLoad(t *testing.T) {
	ring := testKeyring(t)
	passphrase := testPassphrase(t, "correct horse battery staple")

	generated, err := ring.Generate(alice, passphrase)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer generated.Close()

	loaded, err := ring.Load(alice, passphrase)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loaded.Close()

	if loaded.Public != generated.Public {
		t.Errorf("loaded public key %v, want %v", loaded.Public, generated.Public)
	}

	// The unsealed secret must be usable: seal with the generated
	// keypair, open with the loaded one.
	peer, err := sealbox.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer peer.Close()

	sealed, err := sealbox.Seal([]byte("hello"), peer.Secret, generated.Public)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	plaintext, err := sealbox.Open(sealed, peer.Public, loaded.Secret)
	if err != nil {
		t.Fatalf("Open with loaded keypair: %v", err)
	}
	if string(plaintext) != "hello" {
		t.Errorf("Open = %q, want %q", plaintext, "hello")
	}
}

func TestLoadWrongPassphrase(t *testing.T) {
	ring := testKeyring(t)

	generated, err := ring.Generate(alice, testPassphrase(t, "right"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	generated.Close()

	if _, err := ring.Load(alice, testPassphrase(t, "wrong")); err == nil {
		t.Fatal("Load succeeded with the wrong passphrase")
	}
}

func TestGenerateRefusesOverwrite(t *testing.T) {
	ring := testKeyring(t)
	passphrase := testPassphrase(t, "pw")

	generated, err := ring.Generate(alice, passphrase)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	generated.Close()

	if _, err := ring.Generate(alice, passphrase); !errors.Is(err, ErrExists) {
		t.Errorf("second Generate: err = %v, want ErrExists", err)
	}
}

func TestLoadAbsent(t *testing.T) {
	ring := testKeyring(t)
	if _, err := ring.Load(alice, testPassphrase(t, "pw")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load of absent key: err = %v, want ErrNotFound", err)
	}
}

func TestPublicKeyNeedsNoPassphrase(t *testing.T) {
	ring := testKeyring(t)

	generated, err := ring.Generate(alice, testPassphrase(t, "pw"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer generated.Close()

	public, err := ring.PublicKey(alice)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if public != generated.Public {
		t.Errorf("PublicKey = %v, want %v", public, generated.Public)
	}
}

func TestKeyFilePermissions(t *testing.T) {
	ring := testKeyring(t)

	generated, err := ring.Generate(alice, testPassphrase(t, "pw"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	generated.Close()

	info, err := os.Stat(filepath.Join(ring.dir, alice.String()+keyFileSuffix))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("key file mode %v is readable by group or others", perm)
	}
}

func TestList(t *testing.T) {
	ring := testKeyring(t)
	passphrase := testPassphrase(t, "pw")

	empty, err := ring.List()
	if err != nil {
		t.Fatalf("List on empty keyring: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty keyring lists %d addresses", len(empty))
	}

	for _, address := range []ref.Address{bob, alice} {
		keypair, err := ring.Generate(address, passphrase)
		if err != nil {
			t.Fatalf("Generate(%s): %v", address, err)
		}
		keypair.Close()
	}

	listed, err := ring.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 || listed[0] != alice || listed[1] != bob {
		t.Errorf("List = %v, want [%v %v]", listed, alice, bob)
	}
}

func TestExportImport(t *testing.T) {
	source := testKeyring(t)
	destination := testKeyring(t)
	passphrase := testPassphrase(t, "travel pw")

	generated, err := source.Generate(alice, passphrase)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer generated.Close()

	exported, err := source.Export(alice)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	imported, err := destination.Import(exported, passphrase)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imported != alice {
		t.Errorf("Import returned address %v, want %v", imported, alice)
	}

	loaded, err := destination.Load(alice, passphrase)
	if err != nil {
		t.Fatalf("Load after import: %v", err)
	}
	defer loaded.Close()
	if loaded.Public != generated.Public {
		t.Errorf("imported public key %v, want %v", loaded.Public, generated.Public)
	}

	// A second import of the same address is refused.
	if _, err := destination.Import(exported, passphrase); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Import: err = %v, want ErrExists", err)
	}
}

func TestImportWrongPassphraseInstallsNothing(t *testing.T) {
	source := testKeyring(t)
	destination := testKeyring(t)

	generated, err := source.Generate(alice, testPassphrase(t, "right"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	generated.Close()

	exported, err := source.Export(alice)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if _, err := destination.Import(exported, testPassphrase(t, "wrong")); err == nil {
		t.Fatal("Import succeeded with the wrong passphrase")
	}
	if _, err := destination.PublicKey(alice); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed import left a key file behind: err = %v, want ErrNotFound", err)
	}
}

func TestImportRejectsTamperedFile(t *testing.T) {
	source := testKeyring(t)
	destination := testKeyring(t)
	passphrase := testPassphrase(t, "pw")

	aliceKey, err := source.Generate(alice, passphrase)
	if err != nil {
		t.Fatalf("Generate(alice): %v", err)
	}
	defer aliceKey.Close()
	bobKey, err := source.Generate(bob, passphrase)
	if err != nil {
		t.Fatalf("Generate(bob): %v", err)
	}
	defer bobKey.Close()

	exported, err := source.Export(alice)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	// Swap the stored public key for someone else's. The sealed secret
	// no longer matches and the import must refuse.
	tampered := strings.Replace(string(exported), aliceKey.Public.String(), bobKey.Public.String(), 1)
	if tampered == string(exported) {
		t.Fatal("tampering had no effect on the exported file")
	}
	if _, err := destination.Import([]byte(tampered), passphrase); err == nil {
		t.Fatal("Import accepted a key file with a mismatched public key")
	}
}

func TestRemove(t *testing.T) {
	ring := testKeyring(t)
	passphrase := testPassphrase(t, "pw")

	generated, err := ring.Generate(alice, passphrase)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	generated.Close()

	if err := ring.Remove(alice); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := ring.Load(alice, passphrase); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Remove: err = %v, want ErrNotFound", err)
	}
	if err := ring.Remove(alice); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove: err = %v, want ErrNotFound", err)
	}
}
