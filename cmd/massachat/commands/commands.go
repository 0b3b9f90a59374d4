// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete massachat CLI command tree.
package commands

import (
	"fmt"

	accountcmd "github.com/anikeaty08/MassaChat/cmd/massachat/account"
	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	contactcmd "github.com/anikeaty08/MassaChat/cmd/massachat/contact"
	messagecmd "github.com/anikeaty08/MassaChat/cmd/massachat/message"
	profilecmd "github.com/anikeaty08/MassaChat/cmd/massachat/profile"
	uicmd "github.com/anikeaty08/MassaChat/cmd/massachat/ui"
	"github.com/anikeaty08/MassaChat/lib/version"
)

// Root builds and returns the complete massachat CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "massachat",
		Description: `MassaChat: end-to-end encrypted chat over a public chain.

Messages are sealed to the recipient's key on this machine, pinned as
opaque blobs, and ordered by a conversation ledger. Profiles, privacy
toggles, and block lists live on the chain; plaintext never leaves
the device.`,
		Subcommands: []*cli.Command{
			accountcmd.Command(),
			profilecmd.Command(),
			profilecmd.PrivacyCommand(),
			profilecmd.BlockCommand(),
			profilecmd.UnblockCommand(),
			contactcmd.Command(),
			messagecmd.SendCommand(),
			messagecmd.HistoryCommand(),
			messagecmd.WatchCommand(),
			uicmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("massachat %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Create this machine's sealing key",
				Command:     "massachat account keygen",
			},
			{
				Description: "Claim a username on the chain",
				Command:     "massachat profile register alice --display-name \"Alice\"",
			},
			{
				Description: "Record a peer's address and sealing key",
				Command:     "massachat contact add AU12Cz4i... base64key... --nickname bob",
			},
			{
				Description: "Send an encrypted message",
				Command:     "massachat send bob see you at 9",
			},
			{
				Description: "Open the interactive chat screen",
				Command:     "massachat ui bob",
			},
			{
				Description: "Follow a conversation from a script",
				Command:     "massachat watch bob --history 0 --json",
			},
		},
	}
}
