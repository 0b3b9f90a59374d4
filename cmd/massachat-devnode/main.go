// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Massachat-devnode is a local development node: the ledger gateway
// and pinning service wire APIs served from process memory. Point a
// massachat config's gateway_url and pin_url at it and the client
// runs with no chain and no pinning service behind it. State lives
// only in the process; restarting the node wipes everything.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anikeaty08/MassaChat/lib/devnode"
	"github.com/anikeaty08/MassaChat/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var listenAddress string
	var showVersion bool

	flag.StringVar(&listenAddress, "listen", "127.0.0.1:33037", "TCP address to serve the dev node on")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("massachat-devnode %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	server, err := devnode.NewServer(devnode.Config{
		ListenAddress: listenAddress,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating dev node: %w", err)
	}
	if err := server.Start(); err != nil {
		return err
	}

	logger.Info("dev node ready",
		"version", version.Info(),
		"gateway_url", server.URL(),
		"pin_url", server.URL(),
	)

	// Wait for shutdown signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
