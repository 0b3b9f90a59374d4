// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the massachat CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in cmd/massachat and
// dispatched via [Command.Execute], which handles flag parsing, subcommand
// routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Most command parameter structs are bound to flags through struct tags
// via [FlagsFromParams]; see params.go for the tag grammar. Structs that
// manage their own flags, like [SessionConfig], implement [FlagBinder]
// and are embedded in params structs.
//
// [SessionConfig] is the shared entry point to local state and the
// gateways: it loads the config file, opens the contact book, and hands
// out lazily constructed ledger, store, keyring, and messenger handles
// via [Session]. Commands that only read local files never touch the
// network or prompt for a passphrase.
//
// Errors returned by command Run functions are classified with the
// constructors in toolerror.go ([Validation], [NotFound], and friends);
// the massachat main function maps each category to a distinct process
// exit code so scripts can branch on the failure kind.
package cli
