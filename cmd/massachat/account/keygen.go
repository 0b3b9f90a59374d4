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

// keygenParams holds the parameters for account keygen.
type keygenParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

// keygenOutput is the JSON output for account keygen.
type keygenOutput struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	KeyDir    string `json:"key_dir"`
}

func keygenCommand() *cli.Command {
	var params keygenParams

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate a sealing keypair for the configured address",
		Description: `Generate a new sealing keypair for the address configured under
account.address and store it in the keyring.

The secret key is sealed under a passphrase before it touches disk.
You will be prompted twice; with --passphrase-file the passphrase is
read from the file instead. Share the printed public key with your
contacts out of band so they can seal messages to you.

Each address gets exactly one key. Generating again for the same
address fails; remove or export the existing key first.`,
		Usage: "massachat account keygen [flags]",
		Examples: []cli.Example{
			{
				Description: "Generate a key, prompting for the passphrase",
				Command:     "massachat account keygen",
			},
			{
				Description: "Generate with the passphrase from a file",
				Command:     "massachat account keygen --passphrase-file ~/.massachat/pass",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("keygen", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			address, err := session.Config.Address()
			if err != nil {
				return cli.Validation("%w", err).
					WithHint("Set account.address in your config file to your chain address.")
			}

			if err := session.Config.EnsurePaths(); err != nil {
				return cli.Internal("preparing state directories: %w", err)
			}

			ring, err := session.Keyring()
			if err != nil {
				return err
			}

			passphrase, err := cli.ReadPassphrase(params.PassphraseFile, true)
			if err != nil {
				return err
			}
			defer passphrase.Close()

			keypair, err := ring.Generate(address, passphrase)
			if err != nil {
				if errors.Is(err, keyring.ErrExists) {
					return cli.Conflict("a key for %s already exists", address).
						WithHint("Export it with 'massachat account export', or remove the key file to start over.")
				}
				return cli.Internal("generating key: %w", err)
			}
			defer keypair.Close()

			output := keygenOutput{
				Address:   address.String(),
				PublicKey: keypair.Public.String(),
				KeyDir:    session.Config.Paths.Keys,
			}

			if done, err := params.EmitJSON(output); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "Address:     %s\n", output.Address)
			fmt.Fprintf(os.Stdout, "Public key:  %s\n", output.PublicKey)
			fmt.Fprintf(os.Stdout, "Key dir:     %s\n", output.KeyDir)

			return nil
		},
	}
}
