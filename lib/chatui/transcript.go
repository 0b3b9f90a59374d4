// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// EntryStatus is the delivery state shown on a transcript entry.
type EntryStatus int

const (
	// EntryDelivered is an anchored message. No marker is shown.
	EntryDelivered EntryStatus = iota

	// EntryPending is a local echo of a message still in flight.
	EntryPending

	// EntryFailed is a local echo whose send did not complete.
	EntryFailed
)

// TranscriptEntry is one message of a rendered conversation. The
// caller resolves addresses to display labels and decides the
// timestamp; this package only renders.
type TranscriptEntry struct {
	// Sender is the display label for the message author.
	Sender string

	// Self selects the sender label color: green for the local
	// account, blue for the peer.
	Self bool

	// Body is the message markdown. Ignored when Note is set.
	Body string

	// At is the display timestamp. The zero value omits it.
	At time.Time

	// Status is the delivery state. Pending and failed entries get a
	// colored marker next to the header.
	Status EntryStatus

	// Note, when set, replaces the body with faint italic text. Used
	// for slots with no plaintext, like undecryptable payloads.
	Note string
}

// FormatEntry renders one transcript entry: a header line with the
// colored sender label, timestamp, and delivery marker, followed by
// the body indented two spaces and wrapped to width.
func FormatEntry(entry TranscriptEntry, theme Theme, width int) string {
	if width < 20 {
		width = 20
	}
	lip := newTranscriptRenderer()

	senderColor := theme.PeerSender
	if entry.Self {
		senderColor = theme.SelfSender
	}
	header := lip.NewStyle().Bold(true).Foreground(senderColor).Render(entry.Sender)

	if !entry.At.IsZero() {
		stamp := entry.At.Format("Jan _2 15:04")
		header += "  " + lip.NewStyle().Foreground(theme.FaintText).Render(stamp)
	}

	switch entry.Status {
	case EntryPending:
		header += "  " + lip.NewStyle().Foreground(theme.StatusPending).Render("(sending)")
	case EntryFailed:
		header += "  " + lip.NewStyle().Foreground(theme.StatusFailed).Render("(failed)")
	}

	var body string
	if entry.Note != "" {
		body = lip.NewStyle().Foreground(theme.FaintText).Italic(true).Render(entry.Note)
	} else {
		body = Render(entry.Body, theme, width-2)
	}

	if body == "" {
		return header
	}
	return header + "\n" + indentLines(body, "  ")
}

// FormatTranscript renders entries in order, separated by blank
// lines.
func FormatTranscript(entries []TranscriptEntry, theme Theme, width int) string {
	formatted := make([]string, 0, len(entries))
	for _, entry := range entries {
		formatted = append(formatted, FormatEntry(entry, theme, width))
	}
	return strings.Join(formatted, "\n\n")
}

// newTranscriptRenderer returns a lipgloss renderer with the ANSI256
// profile forced, for the same reason Render forces it: transcript
// output is always for terminal display, even when stdout is piped
// into a pager.
func newTranscriptRenderer() *lipgloss.Renderer {
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)
	return lipRenderer
}

// indentLines prepends prefix to every non-empty line.
func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for index, line := range lines {
		if line != "" {
			lines[index] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
