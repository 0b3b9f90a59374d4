// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package account implements the "massachat account" command group:
// local sealing identity management. Keys live in the keyring
// directory, sealed under a passphrase; nothing here talks to the
// gateways.
package account

import "github.com/anikeaty08/MassaChat/cmd/massachat/cli"

// Command returns the "account" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "account",
		Summary: "Manage the local sealing identity",
		Description: `Manage the sealing keypair for your chain address.

The keypair seals outgoing messages and opens incoming ones. The
secret half never leaves this machine unencrypted: it is stored in
the keyring directory sealed under your passphrase, and export
produces the sealed file, not the raw key.`,
		Subcommands: []*cli.Command{
			keygenCommand(),
			showCommand(),
			exportCommand(),
			importCommand(),
		},
	}
}
