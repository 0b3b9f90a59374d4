// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package contact

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
)

// listParams holds the parameters for contact list.
type listParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

// contactEntry is a single entry in the JSON output.
type contactEntry struct {
	Nickname  string `json:"nickname,omitempty"`
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the contact book",
		Usage:   "massachat contact list [flags]",
		Examples: []cli.Example{
			{
				Description: "List contacts as JSON",
				Command:     "massachat contact list --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			all := session.Contacts.All()
			entries := make([]contactEntry, len(all))
			for i, contact := range all {
				entries[i] = contactEntry{
					Nickname:  contact.Nickname,
					Address:   contact.Address.String(),
					PublicKey: contact.PublicKey.String(),
				}
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintf(os.Stdout, "No contacts. Add one with 'massachat contact add'.\n")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "NICKNAME\tADDRESS\tPUBLIC KEY")
			for _, entry := range entries {
				nickname := entry.Nickname
				if nickname == "" {
					nickname = "-"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\n", nickname, entry.Address, entry.PublicKey)
			}
			return writer.Flush()
		},
	}
}
