// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/anikeaty08/MassaChat/lib/secret"
)

// ReadPassphrase obtains the keyring passphrase. If file is a path,
// the passphrase is read from it with trailing newlines stripped. If
// file is empty or "-" and stdin is piped, one line is read without
// prompting. Otherwise the user is prompted on the terminal with echo
// disabled; with confirm set, the prompt is issued twice and both
// entries must match.
//
// The caller must Close the returned buffer.
func ReadPassphrase(file string, confirm bool) (*secret.Buffer, error) {
	if file != "" && file != "-" {
		return readPassphraseFile(file)
	}

	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return readPassphraseLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, Internal("reading passphrase: %w", err)
	}
	if len(first) == 0 {
		return nil, Validation("passphrase is empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(stdinFileDescriptor)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			secret.Wipe(first)
			return nil, Internal("reading passphrase confirmation: %w", err)
		}

		match := len(first) == len(second)
		if match {
			for index := range first {
				if first[index] != second[index] {
					match = false
					break
				}
			}
		}
		secret.Wipe(second)

		if !match {
			secret.Wipe(first)
			return nil, Validation("passphrases do not match")
		}
	}

	// Move into a locked buffer; NewFromBytes zeros the source.
	buffer, err := secret.NewFromBytes(first)
	if err != nil {
		secret.Wipe(first)
		return nil, err
	}
	return buffer, nil
}

// readPassphraseFile reads a passphrase from a file path into a
// secret.Buffer. Strips trailing newlines (common with echo/printf
// pipelines).
func readPassphraseFile(path string) (*secret.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Internal("reading %s: %w", path, err)
	}

	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}

	if len(data) == 0 {
		return nil, Validation("file %s is empty (after stripping trailing newlines)", path)
	}

	buffer, err := secret.NewFromBytes(data)
	if err != nil {
		secret.Wipe(data)
		return nil, err
	}
	return buffer, nil
}

// readPassphraseLine reads a single line from piped input.
func readPassphraseLine(input *os.File) (*secret.Buffer, error) {
	reader := bufio.NewReader(input)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, Internal("reading passphrase from stdin: %w", err)
	}

	data := []byte(line)
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}

	if len(data) == 0 {
		return nil, Validation("passphrase is empty")
	}

	buffer, err := secret.NewFromBytes(data)
	if err != nil {
		secret.Wipe(data)
		return nil, err
	}
	return buffer, nil
}
