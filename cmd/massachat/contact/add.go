// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package contact

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/lib/contacts"
	"github.com/anikeaty08/MassaChat/lib/ref"
	"github.com/anikeaty08/MassaChat/lib/sealbox"
)

// addParams holds the parameters for contact add.
type addParams struct {
	cli.SessionConfig
	Nickname string `flag:"nickname,n" desc:"short name to address the contact by"`
}

func addCommand() *cli.Command {
	var params addParams

	return &cli.Command{
		Name:    "add",
		Summary: "Add a contact",
		Description: `Add a peer to the contact book.

Takes the peer's chain address and their base64 sealing public key,
as printed by "massachat account keygen" on their machine. With
--nickname, commands accept the nickname wherever they take a peer.

Verify the key out of band before adding it; messages are sealed to
exactly this key.`,
		Usage: "massachat contact add <address> <public-key> [flags]",
		Examples: []cli.Example{
			{
				Description: "Add a peer with a nickname",
				Command:     "massachat contact add AU12Cz4i... mhQ5X0Fo... --nickname bob",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("add", &params)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return cli.Validation("expected two arguments: <address> <public-key>")
			}

			address, err := ref.ParseAddress(args[0])
			if err != nil {
				return cli.Validation("invalid address %q: %v", args[0], err)
			}
			publicKey, err := sealbox.ParsePublicKey(args[1])
			if err != nil {
				return cli.Validation("invalid public key: %v", err)
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			if err := session.Contacts.Add(contacts.Contact{
				Address:   address,
				PublicKey: publicKey,
				Nickname:  params.Nickname,
			}); err != nil {
				return cli.Conflict("%w", err)
			}

			if err := session.Config.EnsurePaths(); err != nil {
				return cli.Internal("preparing state directories: %w", err)
			}
			if err := session.Contacts.Save(); err != nil {
				return cli.Internal("saving contact book: %w", err)
			}

			if params.Nickname != "" {
				fmt.Fprintf(os.Stdout, "Added %s (%s)\n", params.Nickname, address)
			} else {
				fmt.Fprintf(os.Stdout, "Added %s\n", address)
			}
			return nil
		},
	}
}
