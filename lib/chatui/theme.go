// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/lipgloss"

// Theme collects the colors used to render chat messages and the
// terminal UI around them. Colors are ANSI 256 palette indices, which
// stay readable on terminals without truecolor support.
type Theme struct {
	// Message body text.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	CodeText   lipgloss.Color

	// Headings inside rendered markdown.
	HeaderForeground lipgloss.Color

	// Blockquote bars, horizontal rules, and pane borders.
	BorderColor lipgloss.Color

	// Sender labels on message headers.
	SelfSender lipgloss.Color
	PeerSender lipgloss.Color

	// Delivery state markers.
	StatusPending lipgloss.Color
	StatusFailed  lipgloss.Color
}

// DefaultTheme is the standard palette.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("252"), // near-white
	FaintText:        lipgloss.Color("245"), // medium gray
	CodeText:         lipgloss.Color("215"), // soft orange
	HeaderForeground: lipgloss.Color("255"), // bright white
	BorderColor:      lipgloss.Color("240"), // dark gray
	SelfSender:       lipgloss.Color("114"), // green
	PeerSender:       lipgloss.Color("75"),  // blue
	StatusPending:    lipgloss.Color("220"), // yellow
	StatusFailed:     lipgloss.Color("203"), // red
}
