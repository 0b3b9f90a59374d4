// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/ref"
)

// showParams holds the parameters for profile show.
type showParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

// profileOutput is the JSON output for profile commands. Timestamps
// are unix milliseconds, matching the ledger records.
type profileOutput struct {
	Address     string `json:"address"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarCID   string `json:"avatar_cid,omitempty"`
	LastSeen    int64  `json:"last_seen,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a profile from the ledger",
		Description: `Look up and display a profile.

The argument is a contact nickname, a username, or a chain address;
without an argument your own profile is shown. The target's privacy
settings are honored: a hidden bio, avatar, or last-seen time is
omitted from the output. Your own profile is always shown in full.`,
		Usage: "massachat profile show [name-or-address] [flags]",
		Examples: []cli.Example{
			{
				Description: "Show your own profile",
				Command:     "massachat profile show",
			},
			{
				Description: "Show a peer's profile by username",
				Command:     "massachat profile show bob",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			ledgerClient, err := session.Ledger()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), session.Config.CallTimeout())
			defer cancel()

			var target string
			if len(args) == 1 {
				target = args[0]
			}

			profile, err := lookupProfile(ctx, session, ledgerClient, target)
			if err != nil {
				return err
			}

			output := outputForProfile(profile)

			self, selfErr := session.Config.Address()
			isSelf := selfErr == nil && profile.Address == self

			if !isSelf {
				settings, err := ledgerClient.Privacy(ctx, profile.Address)
				if err != nil {
					return cli.GatewayError(err)
				}
				if !settings.ShowBio {
					output.Bio = ""
				}
				if !settings.ShowProfilePhoto {
					output.AvatarCID = ""
				}
				if settings.ShowLastSeen {
					lastSeen, err := ledgerClient.LastSeen(ctx, profile.Address)
					if err != nil {
						return cli.GatewayError(err)
					}
					output.LastSeen = lastSeen
				}
			} else {
				lastSeen, err := ledgerClient.LastSeen(ctx, profile.Address)
				if err != nil {
					return cli.GatewayError(err)
				}
				output.LastSeen = lastSeen
			}

			if done, err := params.EmitJSON(output); done {
				return err
			}
			printProfile(output)
			return nil
		},
	}
}

// lookupProfile resolves the show target to a stored profile. An empty
// target means the configured account. Contact nicknames win over
// usernames, usernames over addresses; each step only consults the
// ledger when the previous one did not decide.
func lookupProfile(ctx context.Context, session *cli.Session, ledgerClient ledger.Ledger, target string) (*ledger.Profile, error) {
	if target == "" {
		address, err := session.Config.Address()
		if err != nil {
			return nil, cli.Validation("%w", err).
				WithHint("Pass a username or address, or set account.address in your config file.")
		}
		profile, err := ledgerClient.ProfileByAddress(ctx, address)
		if err != nil {
			return nil, cli.GatewayError(err)
		}
		if profile == nil {
			return nil, cli.NotFound("no profile registered for %s", address).
				WithHint("Run 'massachat profile register <username>' to create one.")
		}
		return profile, nil
	}

	if contact, ok := session.Contacts.Resolve(target); ok {
		profile, err := ledgerClient.ProfileByAddress(ctx, contact.Address)
		if err != nil {
			return nil, cli.GatewayError(err)
		}
		if profile == nil {
			return nil, cli.NotFound("contact %q (%s) has no registered profile", target, contact.Address)
		}
		return profile, nil
	}

	if username, err := ref.ParseUsername(target); err == nil {
		profile, err := ledgerClient.ProfileByUsername(ctx, username)
		if err != nil {
			return nil, cli.GatewayError(err)
		}
		if profile != nil {
			return profile, nil
		}
	}

	if address, err := ref.ParseAddress(target); err == nil {
		profile, err := ledgerClient.ProfileByAddress(ctx, address)
		if err != nil {
			return nil, cli.GatewayError(err)
		}
		if profile != nil {
			return profile, nil
		}
	}

	return nil, cli.NotFound("no profile found for %q", target)
}

// outputForProfile converts a ledger record to the command output.
func outputForProfile(profile *ledger.Profile) profileOutput {
	return profileOutput{
		Address:     profile.Address.String(),
		Username:    profile.Username.String(),
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		AvatarCID:   profile.AvatarContentID.String(),
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}

// printProfile writes the aligned text form to stdout.
func printProfile(output profileOutput) {
	fmt.Fprintf(os.Stdout, "Address:       %s\n", output.Address)
	fmt.Fprintf(os.Stdout, "Username:      %s\n", output.Username)
	if output.DisplayName != "" {
		fmt.Fprintf(os.Stdout, "Display name:  %s\n", output.DisplayName)
	}
	if output.Bio != "" {
		fmt.Fprintf(os.Stdout, "Bio:           %s\n", output.Bio)
	}
	if output.AvatarCID != "" {
		fmt.Fprintf(os.Stdout, "Avatar:        %s\n", output.AvatarCID)
	}
	if output.LastSeen != 0 {
		fmt.Fprintf(os.Stdout, "Last seen:     %s\n", formatMillis(output.LastSeen))
	}
	if output.UpdatedAt != 0 {
		fmt.Fprintf(os.Stdout, "Updated:       %s\n", formatMillis(output.UpdatedAt))
	}
}

// formatMillis renders a ledger timestamp for display.
func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}
