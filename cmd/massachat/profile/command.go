// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile implements the commands that read and write the
// chain-side account records: the public profile, its privacy
// settings, and the directional block list. Everything here goes
// through the ledger gateway; message content is never involved.
package profile

import "github.com/anikeaty08/MassaChat/cmd/massachat/cli"

// Command returns the "profile" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "profile",
		Summary: "Manage the public chat profile",
		Description: `Register and inspect chat profiles on the ledger.

A profile binds a unique username to a chain address, with an
optional display name, bio, and avatar. Profiles are public chain
state: anyone can read them. Privacy settings gate what honest
clients display, not what the chain stores.`,
		Subcommands: []*cli.Command{
			registerCommand(),
			showCommand(),
		},
	}
}
