// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/exchange"
	"github.com/anikeaty08/MassaChat/lib/chatui"
)

type historyParams struct {
	cli.SessionConfig
	cli.JSONOutput
	Limit int `flag:"limit,n" desc:"show only the last N messages"`
}

// HistoryCommand returns the history command.
func HistoryCommand() *cli.Command {
	var params historyParams

	return &cli.Command{
		Name:    "history",
		Summary: "Show a conversation transcript",
		Description: `Reconstructs the conversation with a peer from the ledger and
renders it in anchor order. Slots whose plaintext cannot be produced
are shown as notes rather than dropped, so the transcript keeps the
count and order the peer sees.`,
		Usage: "history <peer>",
		Examples: []cli.Example{
			{
				Description: "Full transcript with a contact",
				Command:     "massachat history bob",
			},
			{
				Description: "The last ten messages, machine readable",
				Command:     "massachat history bob --limit 10 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("history", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one peer argument")
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}
			defer session.Close()

			peer, err := session.ResolvePeer(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			messenger, err := session.Messenger(ctx)
			if err != nil {
				return err
			}

			messages, err := messenger.Fetch(ctx, peer)
			if err != nil {
				return cli.GatewayError(err)
			}
			if params.Limit > 0 && len(messages) > params.Limit {
				messages = messages[len(messages)-params.Limit:]
			}

			if done, err := params.EmitJSON(outputForMessages(messages)); done {
				return err
			}

			label := cli.PeerLabel(session.Contacts, peer.Address)
			if len(messages) == 0 {
				fmt.Fprintf(os.Stdout, "No messages with %s yet.\n", label)
				return nil
			}

			entries := make([]chatui.TranscriptEntry, 0, len(messages))
			for _, message := range messages {
				entries = append(entries, cli.EntryForMessage(message, label))
			}
			fmt.Fprintln(os.Stdout,
				chatui.FormatTranscript(entries, chatui.DefaultTheme, transcriptWidth()))
			return nil
		},
	}
}

// messageOutput is the JSON shape of one conversation slot.
type messageOutput struct {
	Index      uint64 `json:"index"`
	CID        string `json:"cid"`
	Body       string `json:"body,omitempty"`
	Sender     string `json:"sender,omitempty"`
	Outgoing   bool   `json:"outgoing"`
	SentAt     int64  `json:"sent_at,omitempty"`
	AnchoredAt int64  `json:"anchored_at"`
	Marker     string `json:"marker,omitempty"`
}

func outputForMessage(message exchange.Message) messageOutput {
	out := messageOutput{
		Index:      message.Index,
		CID:        message.CID.String(),
		Body:       message.Body,
		Outgoing:   message.Outgoing,
		SentAt:     message.SentAt,
		AnchoredAt: message.AnchoredAt,
		Marker:     string(message.Marker),
	}
	if !message.Sender.IsZero() {
		out.Sender = message.Sender.String()
	}
	return out
}

func outputForMessages(messages []exchange.Message) []messageOutput {
	out := make([]messageOutput, 0, len(messages))
	for _, message := range messages {
		out = append(out, outputForMessage(message))
	}
	return out
}

// transcriptWidth is the render width: the terminal width when stdout
// is one, 80 otherwise.
func transcriptWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}
