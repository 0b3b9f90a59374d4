// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/cmd/massachat/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported their outcome (like the chat
		// screen) return an ExitError with the desired code. Don't
		// print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		var toolErr *cli.ToolError
		if errors.As(err, &toolErr) {
			os.Exit(toolErr.Category.ExitCode())
		}
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
