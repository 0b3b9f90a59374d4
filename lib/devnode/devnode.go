// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package devnode runs the chat contract's gateway surface out of local
// memory: the ledger wire API and the pinning service wire API on one
// HTTP listener, with no chain and no pinning service behind them.
//
// The node exists for development and tests. Writes finalize instantly,
// reads answer from the same process, and restarting the node wipes
// everything. Because it speaks the exact wire protocol of the real
// services, the ledger and pinstore HTTP clients run against it
// unchanged.
package devnode

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/anikeaty08/MassaChat/lib/clock"
	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
)

// Config holds configuration for creating a Server.
type Config struct {
	// ListenAddress is the TCP address to serve on
	// (e.g. "127.0.0.1:33037"). Port 0 binds a free port; Addr
	// reports where the node landed.
	ListenAddress string
	// Clock stamps ledger writes. If nil, the real clock is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Server serves an in-memory dev node over TCP.
type Server struct {
	listenAddress string
	handler       *Handler
	httpServer    *http.Server
	listener      net.Listener
	logger        *slog.Logger
}

// NewServer creates a dev node server. Call Start to begin serving.
func NewServer(config Config) (*Server, error) {
	if config.ListenAddress == "" {
		return nil, fmt.Errorf("devnode: ListenAddress is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := NewHandler(ledger.NewMemory(config.Clock), pinstore.NewMemory(), logger)
	return &Server{
		listenAddress: config.ListenAddress,
		handler:       handler,
		httpServer: &http.Server{
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// Start binds the listener and begins serving. It returns once the
// listener is bound; serving continues on a background goroutine until
// Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		return fmt.Errorf("devnode: listening on %s: %w", s.listenAddress, err)
	}
	s.listener = listener

	s.logger.Info("dev node started", "address", listener.Addr().String())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("dev node server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address. Empty before Start; with a
// port 0 ListenAddress this is where the kernel put the node.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL clients point at, serving as both the
// ledger gateway URL and the pinning service URL. Empty before Start.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down dev node")
	return s.httpServer.Shutdown(ctx)
}
