// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// registerParams holds the parameters for profile register.
type registerParams struct {
	cli.SessionConfig
	cli.JSONOutput
	DisplayName string `flag:"display-name" desc:"public display name"`
	Bio         string `flag:"bio"          desc:"short public bio"`
	AvatarCID   string `flag:"avatar-cid"   desc:"content ID of a pinned avatar image"`
}

func registerCommand() *cli.Command {
	var params registerParams

	return &cli.Command{
		Name:    "register",
		Summary: "Register or update the profile for this account",
		Description: `Register a profile for the configured account, or update the
existing one.

Usernames are unique across all addresses, case-insensitively:
registering "Alice" fails while someone else holds "alice".
Re-registering with a new username releases the old one in the same
step. Display name, bio, and avatar are replaced wholesale by what
this command sends; omitted flags clear the field.`,
		Usage: "massachat profile register <username> [flags]",
		Examples: []cli.Example{
			{
				Description: "Claim a username",
				Command:     "massachat profile register alice --display-name \"Alice\"",
			},
			{
				Description: "Update the bio, keeping the username",
				Command:     "massachat profile register alice --display-name \"Alice\" --bio \"hi there\"",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("register", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one argument: the username to register")
			}

			username, err := ref.ParseUsername(args[0])
			if err != nil {
				return cli.Validation("invalid username: %v", err)
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

			profile := ledger.Profile{
				Address:     address,
				Username:    username,
				DisplayName: params.DisplayName,
				Bio:         params.Bio,
			}
			if params.AvatarCID != "" {
				avatar, err := ref.ParseContentID(params.AvatarCID)
				if err != nil {
					return cli.Validation("invalid --avatar-cid: %v", err)
				}
				profile.AvatarContentID = avatar
			}

			ledgerClient, err := session.Ledger()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), session.Config.CallTimeout())
			defer cancel()

			stored, err := ledgerClient.RegisterProfile(ctx, profile)
			if err != nil {
				if ledger.IsCallError(err, ledger.CodeUsernameTaken) {
					return cli.Conflict("username %q is taken", username).
						WithHint("Pick a different username; uniqueness is case-insensitive.")
				}
				return cli.GatewayError(err)
			}

			output := outputForProfile(stored)
			if done, err := params.EmitJSON(output); done {
				return err
			}
			printProfile(output)
			return nil
		},
	}
}
