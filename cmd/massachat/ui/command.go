// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/exchange"
)

type uiParams struct {
	cli.SessionConfig
}

// Command returns the ui command.
func Command() *cli.Command {
	var params uiParams

	return &cli.Command{
		Name:    "ui",
		Summary: "Open the interactive chat screen",
		Description: `Opens a full-screen conversation with one peer: the transcript in
a scrollable pane, new messages appearing as they are anchored, and a
composer line at the bottom. Enter sends, escape quits.

Sending needs the peer's sealing key, so the peer must be a contact or
an address recorded with 'massachat contact add'.`,
		Usage: "ui <peer>",
		Examples: []cli.Example{
			{
				Description: "Chat with a contact",
				Command:     "massachat ui bob",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("ui", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one peer argument")
			}

			// Background warnings go to the status bar, never stderr,
			// once the program is running.
			handler := newLogHandler(slog.LevelWarn)

			session, err := params.Connect(slog.New(handler))
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

			history, err := messenger.Fetch(ctx, peer)
			if err != nil {
				return cli.GatewayError(err)
			}
			var afterIndex uint64
			if len(history) > 0 {
				afterIndex = history[len(history)-1].Index
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

			model := NewModel(Config{
				Sender:    messenger,
				Events:    watcher.Messages(),
				Peer:      peer,
				PeerLabel: cli.PeerLabel(session.Contacts, peer.Address),
				History:   history,
			})
			program := tea.NewProgram(model, tea.WithAltScreen())
			handler.SetProgram(program)

			if _, err := program.Run(); err != nil {
				return cli.Internal("running chat screen: %w", err)
			}

			// Now that the alt screen is gone, report a watcher that
			// died mid-session. ExitError keeps main from printing a
			// second error line.
			watcher.Stop()
			if err := watcher.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "live updates failed: %v\n", err)
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
