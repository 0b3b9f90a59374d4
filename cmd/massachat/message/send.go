// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package message implements the conversation commands: send, history,
// and watch. All three unlock the account key and therefore read the
// keyring passphrase, from --passphrase-file or an interactive prompt.
package message

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/exchange"
)

type sendParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

// SendCommand returns the send command.
func SendCommand() *cli.Command {
	var params sendParams

	return &cli.Command{
		Name:    "send",
		Summary: "Send an end-to-end encrypted message",
		Description: `Seals a message to the recipient's public key, pins the sealed
envelope, and anchors its content ID on the conversation ledger.

The recipient is a contact nickname or a full account address. Sealing
needs the recipient's public key, so a bare address works only after
'massachat contact add' has recorded its key. Everything after the
recipient is the message body.`,
		Usage: "send <recipient> <message...>",
		Examples: []cli.Example{
			{
				Description: "Message a contact by nickname",
				Command:     "massachat send bob see you at 9",
			},
			{
				Description: "Machine-readable delivery receipt",
				Command:     "massachat send bob ping --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("send", &params)
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return cli.Validation("expected a recipient and a message")
			}
			body := strings.Join(args[1:], " ")

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}
			defer session.Close()

			peer, err := session.ResolvePeer(args[0])
			if err != nil {
				return err
			}
			if peer.PublicKey.IsZero() {
				return cli.Validation("no sealing key known for %s", args[0]).
					WithHint("Record it with 'massachat contact add <address> <public-key>' first.")
			}

			ctx := context.Background()
			messenger, err := session.Messenger(ctx)
			if err != nil {
				return err
			}

			receipt, err := messenger.Send(ctx, peer, body)
			if err != nil {
				if errors.Is(err, exchange.ErrBlocked) {
					return cli.Forbidden("%s has blocked this account", args[0])
				}
				return cli.GatewayError(err)
			}

			if done, err := params.EmitJSON(outputForReceipt(receipt)); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "Delivered to %s (message %d).\n",
				cli.PeerLabel(session.Contacts, peer.Address), receipt.Index)
			return nil
		},
	}
}

// receiptOutput is the JSON shape of a delivery receipt.
type receiptOutput struct {
	State      string `json:"state"`
	Stage      string `json:"stage"`
	Index      uint64 `json:"index"`
	CID        string `json:"cid"`
	SealedAt   int64  `json:"sealed_at"`
	AnchoredAt int64  `json:"anchored_at"`
}

func outputForReceipt(receipt *exchange.Receipt) receiptOutput {
	return receiptOutput{
		State:      string(receipt.State),
		Stage:      string(receipt.Stage),
		Index:      receipt.Index,
		CID:        receipt.CID.String(),
		SealedAt:   receipt.SealedAt,
		AnchoredAt: receipt.AnchoredAt,
	}
}
