// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/exchange"
)

type watchParams struct {
	cli.SessionConfig
	cli.JSONOutput
	History int `flag:"history" default:"10" desc:"messages of history to print first (-1 for all)"`
}

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	var params watchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Follow a conversation live",
		Description: `Prints the tail of the conversation, then polls the ledger and
prints every newly anchored message as it lands, one line each. With
--json each message is one JSON object per line. Interrupt to stop.`,
		Usage: "watch <peer>",
		Examples: []cli.Example{
			{
				Description: "Follow a conversation",
				Command:     "massachat watch bob",
			},
			{
				Description: "Stream new messages as JSON lines",
				Command:     "massachat watch bob --history 0 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("watch", &params)
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

			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			messenger, err := session.Messenger(ctx)
			if err != nil {
				return err
			}

			messages, err := messenger.Fetch(ctx, peer)
			if err != nil {
				return cli.GatewayError(err)
			}

			// The watcher resumes after the last fetched index even when
			// --history trims what is printed.
			var afterIndex uint64
			if len(messages) > 0 {
				afterIndex = messages[len(messages)-1].Index
			}
			if params.History >= 0 && len(messages) > params.History {
				messages = messages[len(messages)-params.History:]
			}

			label := cli.PeerLabel(session.Contacts, peer.Address)
			for _, message := range messages {
				if err := printMessage(message, label, params.OutputJSON); err != nil {
					return err
				}
			}

			watcher, err := messenger.Watch(ctx, exchange.WatchConfig{
				Peer:       peer,
				AfterIndex: afterIndex,
				Interval:   session.Config.PollInterval(),
			})
			if err != nil {
				return cli.Internal("starting watcher: %w", err)
			}
			defer watcher.Stop()

			for message := range watcher.Messages() {
				if err := printMessage(message, label, params.OutputJSON); err != nil {
					return err
				}
			}
			if err := watcher.Err(); err != nil {
				return cli.GatewayError(err)
			}
			return nil
		},
	}
}

// printMessage writes one message of the stream: a single text line,
// or one compact JSON object per line with --json.
func printMessage(message exchange.Message, label string, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(outputForMessage(message))
	}

	sender := label
	if message.Outgoing {
		sender = "me"
	}

	body := message.Body
	switch message.Marker {
	case exchange.MarkerUndecryptable:
		body = "(message could not be decrypted)"
	case exchange.MarkerUnavailable:
		body = "(content unavailable)"
	}

	at := message.SentAt
	if at == 0 {
		at = message.AnchoredAt
	}
	stamp := time.UnixMilli(at).Local().Format("15:04")

	_, err := fmt.Fprintf(os.Stdout, "%s %s: %s\n", stamp, sender, body)
	return err
}
