// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/exchange"
	"github.com/anikeaty08/MassaChat/lib/cache"
	"github.com/anikeaty08/MassaChat/lib/config"
	"github.com/anikeaty08/MassaChat/lib/contacts"
	"github.com/anikeaty08/MassaChat/lib/keyring"
	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// SessionConfig carries the flags shared by every command that touches
// local state or the gateways: the config file override and the keyring
// passphrase source. Params structs embed it; [BindFlags] registers its
// flags through the [FlagBinder] interface.
type SessionConfig struct {
	// ConfigFile overrides the MASSACHAT_CONFIG environment variable.
	ConfigFile string

	// PassphraseFile is the keyring passphrase source for commands
	// that unlock the key. Empty or "-" prompts on the terminal.
	PassphraseFile string
}

// AddFlags registers the session flags on flagSet, implementing
// [FlagBinder].
func (s *SessionConfig) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&s.ConfigFile, "config", "",
		"config file path (default: $MASSACHAT_CONFIG)")
	flagSet.StringVar(&s.PassphraseFile, "passphrase-file", "",
		"file holding the keyring passphrase (\"-\" or unset: prompt)")
}

// LoadConfig loads the configuration from --config if set, otherwise
// from the MASSACHAT_CONFIG environment variable.
func (s *SessionConfig) LoadConfig() (*config.Config, error) {
	if s.ConfigFile != "" {
		return config.LoadFile(s.ConfigFile)
	}
	return config.Load()
}

// Connect loads the configuration and the contact book and returns a
// [Session]. Nothing else is touched: gateway clients, the keyring,
// and the messenger are constructed lazily by the Session accessors,
// so commands that only read local files never require gateway URLs
// or prompt for a passphrase.
func (s *SessionConfig) Connect(logger *slog.Logger) (*Session, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}

	book, err := contacts.Load(cfg.Paths.Contacts)
	if err != nil {
		return nil, Internal("loading contact book: %w", err)
	}

	if logger == nil {
		logger = NewCommandLogger()
	}

	return &Session{
		Config:         cfg,
		Contacts:       book,
		Logger:         logger,
		passphraseFile: s.PassphraseFile,
	}, nil
}

// Session is one command invocation's view of the local account: the
// parsed config, the contact book, and memoized handles to the
// keyring, the gateways, and the messaging session. Accessors
// construct their handle on first use and reuse it afterwards.
//
// Session is not safe for concurrent use. Commands run it from a
// single goroutine.
type Session struct {
	Config   *config.Config
	Contacts *contacts.Book
	Logger   *slog.Logger

	passphraseFile string

	ledger    ledger.Ledger
	store     pinstore.Store
	keyring   *keyring.Keyring
	messenger *exchange.Messenger
}

// Ledger returns the chain gateway client, constructing it on first
// use. Fails when ledger.gateway_url is not configured.
func (s *Session) Ledger() (ledger.Ledger, error) {
	if s.ledger != nil {
		return s.ledger, nil
	}

	if s.Config.Ledger.GatewayURL == "" {
		return nil, Validation("ledger.gateway_url is not configured")
	}

	client, err := ledger.NewClient(ledger.ClientConfig{
		GatewayURL: s.Config.Ledger.GatewayURL,
		Logger:     s.Logger,
	})
	if err != nil {
		return nil, Internal("creating ledger client: %w", err)
	}

	s.ledger = client
	return s.ledger, nil
}

// Store returns the pin store client, constructing it on first use.
// Fails when pinning.pin_url is not configured.
func (s *Session) Store() (pinstore.Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	if s.Config.Pinning.PinURL == "" {
		return nil, Validation("pinning.pin_url is not configured")
	}

	client, err := pinstore.NewClient(pinstore.ClientConfig{
		PinURL:     s.Config.Pinning.PinURL,
		GatewayURL: s.Config.Pinning.GatewayURL,
		Logger:     s.Logger,
	})
	if err != nil {
		return nil, Internal("creating pin store client: %w", err)
	}

	s.store = client
	return s.store, nil
}

// Keyring opens the keyring directory, creating it on first use.
func (s *Session) Keyring() (*keyring.Keyring, error) {
	if s.keyring != nil {
		return s.keyring, nil
	}

	ring, err := keyring.New(keyring.Config{
		Dir:              s.Config.Paths.Keys,
		Logger:           s.Logger,
		ScryptWorkFactor: s.Config.Account.ScryptWorkFactor,
	})
	if err != nil {
		return nil, Internal("opening keyring: %w", err)
	}

	s.keyring = ring
	return s.keyring, nil
}

// Messenger unlocks the account key and builds the messaging session,
// on first use. This is the point where the passphrase is read, so
// only commands that seal or open messages ever prompt. Session start
// counts as account activity: the ledger's last-seen marker is
// touched here, and a failure to touch it is logged rather than
// failing the command.
func (s *Session) Messenger(ctx context.Context) (*exchange.Messenger, error) {
	if s.messenger != nil {
		return s.messenger, nil
	}

	address, err := s.Config.Address()
	if err != nil {
		return nil, Validation("%w", err)
	}

	ring, err := s.Keyring()
	if err != nil {
		return nil, err
	}

	ledgerClient, err := s.Ledger()
	if err != nil {
		return nil, err
	}

	store, err := s.Store()
	if err != nil {
		return nil, err
	}

	passphrase, err := ReadPassphrase(s.passphraseFile, false)
	if err != nil {
		return nil, err
	}
	defer passphrase.Close()

	keypair, err := ring.Load(address, passphrase)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, NotFound("no key for %s", address).
				WithHint("Run 'massachat account keygen' to create one.")
		}
		return nil, Validation("unlocking key for %s: %w", address, err)
	}

	snapshots, err := cache.New(cache.Config{
		Dir:    s.Config.Paths.Cache,
		Logger: s.Logger,
	})
	if err != nil {
		keypair.Close()
		return nil, Internal("opening conversation cache: %w", err)
	}

	messenger, err := exchange.NewMessenger(exchange.Config{
		Self:        address,
		Keypair:     keypair,
		Ledger:      ledgerClient,
		Store:       store,
		Logger:      s.Logger,
		CallTimeout: s.Config.CallTimeout(),
		Cache:       snapshots,
	})
	if err != nil {
		keypair.Close()
		return nil, Internal("creating messenger: %w", err)
	}

	if err := ledgerClient.TouchLastSeen(ctx, address); err != nil {
		s.Logger.Warn("last-seen touch failed", "error", err)
	}

	s.messenger = messenger
	return s.messenger, nil
}

// ResolvePeer turns a command-line argument into a conversation
// counterparty. Contact nicknames are tried first, then the argument
// is parsed as a chain address. A bare address resolves with a zero
// sealing key: read paths work, and a send reports the missing key.
func (s *Session) ResolvePeer(nameOrAddress string) (exchange.Peer, error) {
	if contact, ok := s.Contacts.Resolve(nameOrAddress); ok {
		return exchange.Peer{
			Address:   contact.Address,
			PublicKey: contact.PublicKey,
		}, nil
	}

	address, err := ref.ParseAddress(nameOrAddress)
	if err != nil {
		return exchange.Peer{}, NotFound("no contact %q", nameOrAddress).
			WithHint("Add one with 'massachat contact add', or pass a full account address.")
	}

	return exchange.Peer{Address: address}, nil
}

// Close releases the messaging session if one was built. The keypair's
// secret half is zeroed by the messenger.
func (s *Session) Close() error {
	if s.messenger != nil {
		return s.messenger.Close()
	}
	return nil
}
