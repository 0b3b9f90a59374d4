// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// logNoticeMsg delivers a background log record to the status line.
type logNoticeMsg struct {
	text string
}

// logHandler is a slog.Handler that forwards records at or above its
// level into the running program as status notices, so background
// warnings (watcher polling, cache writes) land in the status bar
// instead of writing to stderr and corrupting the alt screen.
//
// Call SetProgram once the tea.Program exists; records arriving before
// that are dropped, which only affects the setup phase where the
// screen is not yet drawn. Handlers derived via WithAttrs/WithGroup
// share the program pointer, so one SetProgram call covers all of
// them.
type logHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

func newLogHandler(level slog.Level) *logHandler {
	return &logHandler{
		level:   level,
		program: new(atomic.Pointer[tea.Program]),
	}
}

// SetProgram enables record delivery.
func (h *logHandler) SetProgram(program *tea.Program) {
	h.program.Store(program)
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *logHandler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}

	var summary strings.Builder
	summary.WriteString(record.Message)
	appendAttr := func(attr slog.Attr) bool {
		key := attr.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		fmt.Fprintf(&summary, " %s=%v", key, attr.Value)
		return true
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	record.Attrs(appendAttr)

	program.Send(logNoticeMsg{text: summary.String()})
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *h
	derived.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &derived
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	derived := *h
	derived.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &derived
}
