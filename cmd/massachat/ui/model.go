// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package ui implements the interactive chat screen: a scrollable
// transcript above a composer line, following one conversation live
// while sends run in the background.
package ui

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/exchange"
	"github.com/anikeaty08/MassaChat/lib/chatui"
)

// chromeLines is the screen height consumed outside the transcript
// viewport: the header, the status line, and the composer.
const chromeLines = 3

// Sender is the slice of the messaging session the chat screen sends
// through. *exchange.Messenger satisfies it.
type Sender interface {
	Send(ctx context.Context, to exchange.Peer, plaintext string) (*exchange.Receipt, error)
}

// KeyMap defines the key bindings of the chat screen. Everything not
// bound here goes to the composer.
type KeyMap struct {
	Send       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// watcherMsg wraps one watcher delivery for the bubbletea message loop.
type watcherMsg struct {
	message exchange.Message
}

// watcherClosedMsg is sent when the watcher channel closes.
type watcherClosedMsg struct{}

// sendResultMsg reports an asynchronous send completion. seq ties the
// result back to its pending transcript entry.
type sendResultMsg struct {
	seq     int
	receipt *exchange.Receipt
	err     error
}

// Config holds configuration for NewModel.
type Config struct {
	// Sender performs outgoing sends. Required.
	Sender Sender

	// Events delivers newly anchored messages, usually a watcher's
	// Messages channel. Nil disables live updates.
	Events <-chan exchange.Message

	// Peer is the conversation counterparty. Required.
	Peer exchange.Peer

	// PeerLabel is the display label for the peer's messages.
	PeerLabel string

	// History seeds the transcript, in index order.
	History []exchange.Message
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	sender    Sender
	events    <-chan exchange.Message
	peer      exchange.Peer
	peerLabel string
	theme     chatui.Theme
	keys      KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	transcript viewport.Model
	composer   textinput.Model

	// entries is the rendered transcript in display order: anchored
	// messages plus local echoes of in-flight sends. seen records which
	// ledger indices already have an entry, so a message arriving both
	// as a send receipt and as a watcher delivery lands once. pending
	// maps a send sequence number to its echo's position in entries.
	entries []chatui.TranscriptEntry
	seen    map[uint64]bool
	pending map[int]int
	nextSeq int

	// status is the one-line notice above the composer: the last send
	// failure, or a watcher shutdown note. Cleared on the next send.
	status string
}

// NewModel creates the chat screen model. The transcript starts with
// config.History; live updates arrive on config.Events.
func NewModel(config Config) Model {
	composer := textinput.New()
	composer.Prompt = "> "
	composer.Placeholder = "message " + config.PeerLabel
	composer.Focus()

	model := Model{
		sender:    config.Sender,
		events:    config.Events,
		peer:      config.Peer,
		peerLabel: config.PeerLabel,
		theme:     chatui.DefaultTheme,
		keys:      DefaultKeyMap,
		composer:  composer,
		seen:      make(map[uint64]bool),
		pending:   make(map[int]int),
	}
	for _, message := range config.History {
		model.seen[message.Index] = true
		model.entries = append(model.entries, cli.EntryForMessage(message, config.PeerLabel))
	}
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	commands := []tea.Cmd{textinput.Blink}
	if model.events != nil {
		commands = append(commands, listenForWatcher(model.events))
	}
	return tea.Batch(commands...)
}

// listenForWatcher returns a tea.Cmd that blocks until the watcher
// delivers a message. Re-armed after every delivery.
func listenForWatcher(events <-chan exchange.Message) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-events
		if !ok {
			return watcherClosedMsg{}
		}
		return watcherMsg{message: message}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.layout()
		model.refreshTranscript()
		if !model.ready {
			model.ready = true
			model.transcript.GotoBottom()
		}
		return model, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.Send):
			return model.submit()

		case key.Matches(message, model.keys.ScrollUp):
			model.transcript.HalfViewUp()
			return model, nil

		case key.Matches(message, model.keys.ScrollDown):
			model.transcript.HalfViewDown()
			return model, nil
		}

	case watcherMsg:
		if !model.seen[message.message.Index] {
			model.seen[message.message.Index] = true
			model.entries = append(model.entries,
				cli.EntryForMessage(message.message, model.peerLabel))

			// Follow the tail only when the user is already there, so
			// reading back through history is not interrupted.
			follow := model.transcript.AtBottom()
			model.refreshTranscript()
			if follow {
				model.transcript.GotoBottom()
			}
		}
		return model, listenForWatcher(model.events)

	case watcherClosedMsg:
		model.status = "live updates stopped"
		return model, nil

	case logNoticeMsg:
		model.status = message.text
		return model, nil

	case sendResultMsg:
		return model.finishSend(message), nil
	}

	var command tea.Cmd
	model.composer, command = model.composer.Update(message)
	return model, command
}

// submit sends the composer content. The transcript gets a pending
// local echo immediately; the send itself runs in the background and
// reports back through sendResultMsg.
func (model Model) submit() (tea.Model, tea.Cmd) {
	body := strings.TrimSpace(model.composer.Value())
	if body == "" {
		return model, nil
	}
	model.composer.Reset()
	model.status = ""

	seq := model.nextSeq
	model.nextSeq++
	model.entries = append(model.entries, chatui.TranscriptEntry{
		Sender: "me",
		Self:   true,
		Body:   body,
		At:     time.Now(),
		Status: chatui.EntryPending,
	})
	model.pending[seq] = len(model.entries) - 1
	model.refreshTranscript()
	model.transcript.GotoBottom()

	sender := model.sender
	peer := model.peer
	return model, func() tea.Msg {
		receipt, err := sender.Send(context.Background(), peer, body)
		return sendResultMsg{seq: seq, receipt: receipt, err: err}
	}
}

// finishSend resolves a pending echo: delivered, failed, or already
// superseded by the watcher's canonical entry for the same index.
func (model Model) finishSend(result sendResultMsg) Model {
	position, ok := model.pending[result.seq]
	if !ok {
		return model
	}
	delete(model.pending, result.seq)

	switch {
	case result.err != nil:
		model.entries[position].Status = chatui.EntryFailed
		model.status = sendFailureNotice(result.err)

	case model.seen[result.receipt.Index]:
		// The watcher delivered this index before the receipt came
		// back. Drop the echo; the canonical entry is already present.
		model.entries = slices.Delete(model.entries, position, position+1)
		for seq, p := range model.pending {
			if p > position {
				model.pending[seq] = p - 1
			}
		}

	default:
		model.entries[position].Status = chatui.EntryDelivered
		model.seen[result.receipt.Index] = true
	}

	model.refreshTranscript()
	model.transcript.GotoBottom()
	return model
}

// sendFailureNotice formats a send error for the one-line status bar.
func sendFailureNotice(err error) string {
	text := err.Error()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return "send failed: " + text
}

// layout distributes the terminal area between the transcript viewport
// and the fixed chrome.
func (model *Model) layout() {
	height := model.height - chromeLines
	if height < 1 {
		height = 1
	}
	model.transcript.Width = model.width
	model.transcript.Height = height
	model.composer.Width = model.width - len(model.composer.Prompt) - 1
}

// refreshTranscript re-renders the entries into the viewport. A no-op
// until the first WindowSizeMsg has sized the viewport; that message's
// handler renders the backlog.
func (model *Model) refreshTranscript() {
	if model.transcript.Width <= 0 {
		return
	}
	model.transcript.SetContent(
		chatui.FormatTranscript(model.entries, model.theme, model.transcript.Width))
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading conversation..."
	}

	var view strings.Builder
	view.WriteString(model.headerView())
	view.WriteString("\n")
	view.WriteString(model.transcript.View())
	view.WriteString("\n")
	view.WriteString(model.statusView())
	view.WriteString("\n")
	view.WriteString(model.composer.View())
	return view.String()
}

// headerView renders the top line: the peer label over a rule filling
// the rest of the width.
func (model Model) headerView() string {
	label := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.PeerSender).
		Render(model.peerLabel)

	rule := model.width - lipgloss.Width(label) - 3
	if rule < 0 {
		rule = 0
	}
	line := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", rule))
	return label + " ─ " + line
}

// statusView renders the line above the composer: the current notice,
// or the key help when there is none.
func (model Model) statusView() string {
	if model.status != "" {
		return lipgloss.NewStyle().
			Foreground(model.theme.StatusFailed).
			Render(model.status)
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Render("enter to send · pgup/pgdn to scroll · esc to quit")
}
