// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/lib/keyring"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// exportParams holds the parameters for account export.
type exportParams struct {
	cli.SessionConfig
	Output string `flag:"output,o" desc:"write the key file here instead of stdout"`
}

func exportCommand() *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Export a sealed key file for transfer",
		Description: `Write the sealed key file for an address to stdout or to --output.

The secret key inside stays sealed under its passphrase; the file is
safe to move over untrusted channels, though anyone holding it can
attempt passphrase guesses offline. Import it on the other machine
with "massachat account import".

Without an argument the configured account.address is exported.`,
		Usage: "massachat account export [address] [flags]",
		Examples: []cli.Example{
			{
				Description: "Export the configured account to a file",
				Command:     "massachat account export --output massachat-key.json",
			},
			{
				Description: "Export a specific identity to stdout",
				Command:     "massachat account export AU12Cz4icLq4QcyJkjTAdYyHPDGAnxpyJoHYkqgB8FNgh1kDIAwc",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			var address ref.Address
			if len(args) == 1 {
				address, err = ref.ParseAddress(args[0])
				if err != nil {
					return cli.Validation("invalid address %q: %v", args[0], err)
				}
			} else {
				address, err = session.Config.Address()
				if err != nil {
					return cli.Validation("%w", err).
						WithHint("Pass the address to export, or set account.address in your config file.")
				}
			}

			ring, err := session.Keyring()
			if err != nil {
				return err
			}

			data, err := ring.Export(address)
			if err != nil {
				if errors.Is(err, keyring.ErrNotFound) {
					return cli.NotFound("no key for %s", address).
						WithHint("Run 'massachat account show' to see the identities on this machine.")
				}
				return cli.Internal("exporting key: %w", err)
			}

			if params.Output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}

			if err := os.WriteFile(params.Output, data, 0o600); err != nil {
				return cli.Internal("writing %s: %w", params.Output, err)
			}
			fmt.Fprintf(os.Stdout, "Exported key for %s to %s\n", address, params.Output)
			return nil
		},
	}
}
