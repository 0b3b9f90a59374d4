// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package contact implements the "massachat contact" command group:
// the local contact book binding addresses to sealing keys and
// nicknames. The book is how peers' public keys enter the system;
// there is no key server to ask.
package contact

import "github.com/anikeaty08/MassaChat/cmd/massachat/cli"

// Command returns the "contact" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "contact",
		Summary: "Manage the local contact book",
		Description: `Manage the contact book: peers' chain addresses, their sealing
public keys, and optional nicknames.

Public keys are exchanged out of band; verify them over a channel
you trust before adding. Sealing to the wrong key hands the message
to whoever holds it. The book is a local JSONC file and never leaves
this machine.`,
		Subcommands: []*cli.Command{
			addCommand(),
			listCommand(),
			removeCommand(),
		},
	}
}
