// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips terminal escape sequences and non-printing control
// characters from untrusted message text. Message bodies arrive from
// remote peers, and a hostile peer must not be able to move the
// cursor, retitle the window, or hide text in the reader's terminal.
// Newlines and tabs survive; every other control character is
// removed, including the C1 range that some terminals treat as
// escape introducers.
func Sanitize(body string) string {
	stripped := ansi.Strip(body)
	var clean strings.Builder
	clean.Grow(len(stripped))
	for _, r := range stripped {
		if r == '\n' || r == '\t' {
			clean.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		clean.WriteRune(r)
	}
	return clean.String()
}
