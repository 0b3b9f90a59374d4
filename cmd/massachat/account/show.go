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

// showParams holds the parameters for account show.
type showParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

// showOutput is the JSON output for account show.
type showOutput struct {
	Address   string   `json:"address"`
	PublicKey string   `json:"public_key,omitempty"`
	KeyDir    string   `json:"key_dir"`
	Others    []string `json:"other_identities,omitempty"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show the configured account and its public key",
		Description: `Display the configured account address and the public half of its
sealing key.

Only local files are read; no passphrase is needed and no gateway is
contacted. Use "massachat profile show" for the on-chain profile.`,
		Usage: "massachat account show [flags]",
		Examples: []cli.Example{
			{
				Description: "Show the account",
				Command:     "massachat account show",
			},
			{
				Description: "Show as JSON (for scripts)",
				Command:     "massachat account show --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
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

			ring, err := session.Keyring()
			if err != nil {
				return err
			}

			output := showOutput{
				Address: address.String(),
				KeyDir:  session.Config.Paths.Keys,
			}

			publicKey, err := ring.PublicKey(address)
			switch {
			case err == nil:
				output.PublicKey = publicKey.String()
			case errors.Is(err, keyring.ErrNotFound):
				// No key yet; shown as status below.
			default:
				return cli.Internal("reading key: %w", err)
			}

			// A fresh state directory has no keyring yet; that is the
			// same situation as an empty one.
			identities, err := ring.List()
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return cli.Internal("listing keys: %w", err)
			}
			for _, identity := range identities {
				if identity != address {
					output.Others = append(output.Others, identity.String())
				}
			}

			if done, err := params.EmitJSON(output); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "Address:     %s\n", output.Address)
			if output.PublicKey != "" {
				fmt.Fprintf(os.Stdout, "Public key:  %s\n", output.PublicKey)
			} else {
				fmt.Fprintf(os.Stdout, "Public key:  (no key on this machine; run 'massachat account keygen')\n")
			}
			fmt.Fprintf(os.Stdout, "Key dir:     %s\n", output.KeyDir)
			for _, other := range output.Others {
				fmt.Fprintf(os.Stdout, "Also here:   %s\n", other)
			}

			return nil
		},
	}
}
