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
)

// importParams holds the parameters for account import.
type importParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

// importOutput is the JSON output for account import.
type importOutput struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

func importCommand() *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Import an exported key file",
		Description: `Install a key file produced by "massachat account export".

The passphrase that sealed the file is required: the key is unsealed
and verified against its stored public half before anything is
written, so a corrupt or mispassphrased file is never installed. The
address comes from the file itself.`,
		Usage: "massachat account import <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Import a transferred key file",
				Command:     "massachat account import massachat-key.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("import", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one argument: the key file to import")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return cli.Validation("reading key file: %v", err)
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			if err := session.Config.EnsurePaths(); err != nil {
				return cli.Internal("preparing state directories: %w", err)
			}

			ring, err := session.Keyring()
			if err != nil {
				return err
			}

			passphrase, err := cli.ReadPassphrase(params.PassphraseFile, false)
			if err != nil {
				return err
			}
			defer passphrase.Close()

			address, err := ring.Import(data, passphrase)
			if err != nil {
				if errors.Is(err, keyring.ErrExists) {
					return cli.Conflict("%w", err).
						WithHint("Remove the existing key first if you mean to replace it.")
				}
				return cli.Validation("%w", err)
			}

			publicKey, err := ring.PublicKey(address)
			if err != nil {
				return cli.Internal("reading imported key: %w", err)
			}

			output := importOutput{
				Address:   address.String(),
				PublicKey: publicKey.String(),
			}

			if done, err := params.EmitJSON(output); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "Imported key for %s\n", output.Address)
			fmt.Fprintf(os.Stdout, "Public key:  %s\n", output.PublicKey)
			return nil
		},
	}
}
