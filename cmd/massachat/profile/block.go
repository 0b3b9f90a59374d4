// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
)

// blockParams holds the parameters for block and unblock.
type blockParams struct {
	cli.SessionConfig
}

// BlockCommand returns the top-level "block" command.
func BlockCommand() *cli.Command {
	return blockEdgeCommand(blockSpec{
		name:    "block",
		summary: "Block a peer from messaging you",
		description: `Block a peer.

Blocking is directional: it stops the peer's sends to you, and says
nothing about your sends to them. The block is stored on the ledger,
so a blocked sender's client refuses the send before sealing
anything. Already-blocked is not an error.`,
		example: "massachat block bob",
		blocked: true,
		confirmation: func(label string) string {
			return fmt.Sprintf("Blocked %s\n", label)
		},
	})
}

// UnblockCommand returns the top-level "unblock" command.
func UnblockCommand() *cli.Command {
	return blockEdgeCommand(blockSpec{
		name:    "unblock",
		summary: "Remove a block on a peer",
		description: `Remove a block set earlier with "massachat block".

Not-blocked is not an error; the command settles the edge to
unblocked either way.`,
		example: "massachat unblock bob",
		blocked: false,
		confirmation: func(label string) string {
			return fmt.Sprintf("Unblocked %s\n", label)
		},
	})
}

// blockSpec is what distinguishes block from unblock.
type blockSpec struct {
	name         string
	summary      string
	description  string
	example      string
	blocked      bool
	confirmation func(label string) string
}

func blockEdgeCommand(spec blockSpec) *cli.Command {
	var params blockParams

	return &cli.Command{
		Name:        spec.name,
		Summary:     spec.summary,
		Description: spec.description,
		Usage:       "massachat " + spec.name + " <name-or-address> [flags]",
		Examples: []cli.Example{
			{Command: spec.example},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(spec.name, &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one argument: the peer to %s", spec.name)
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			owner, err := session.Config.Address()
			if err != nil {
				return cli.Validation("%w", err)
			}

			peer, err := session.ResolvePeer(args[0])
			if err != nil {
				return err
			}
			if peer.Address == owner {
				return cli.Validation("cannot %s your own address", spec.name)
			}

			ledgerClient, err := session.Ledger()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), session.Config.CallTimeout())
			defer cancel()

			if err := ledgerClient.SetBlocked(ctx, owner, peer.Address, spec.blocked); err != nil {
				return cli.GatewayError(err)
			}

			label := args[0]
			if label != peer.Address.String() {
				label = fmt.Sprintf("%s (%s)", label, cli.ShortAddress(peer.Address))
			}
			fmt.Fprint(os.Stdout, spec.confirmation(label))
			return nil
		},
	}
}
