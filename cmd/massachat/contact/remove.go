// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package contact

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
)

// removeParams holds the parameters for contact remove.
type removeParams struct {
	cli.SessionConfig
}

func removeCommand() *cli.Command {
	var params removeParams

	return &cli.Command{
		Name:    "remove",
		Summary: "Remove a contact",
		Description: `Remove a contact by nickname or address.

Removal only forgets the local entry. Conversation history stays on
the chain and can be fetched again after re-adding the contact.`,
		Usage: "massachat contact remove <name-or-address> [flags]",
		Examples: []cli.Example{
			{Command: "massachat contact remove bob"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("remove", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one argument: the contact to remove")
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			contact, found := session.Contacts.Resolve(args[0])
			if !found {
				return cli.NotFound("no contact %q", args[0]).
					WithHint("Run 'massachat contact list' to see the book.")
			}

			if err := session.Contacts.Remove(contact.Address); err != nil {
				return cli.Internal("removing contact: %w", err)
			}
			if err := session.Contacts.Save(); err != nil {
				return cli.Internal("saving contact book: %w", err)
			}

			if contact.Nickname != "" {
				fmt.Fprintf(os.Stdout, "Removed %s (%s)\n", contact.Nickname, contact.Address)
			} else {
				fmt.Fprintf(os.Stdout, "Removed %s\n", contact.Address)
			}
			return nil
		},
	}
}
