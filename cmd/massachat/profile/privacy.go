// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/anikeaty08/MassaChat/cmd/massachat/cli"
)

// PrivacyCommand returns the "privacy" subcommand group.
func PrivacyCommand() *cli.Command {
	return &cli.Command{
		Name:    "privacy",
		Summary: "Control what your profile reveals",
		Description: `Read and change the profile's privacy settings.

Three switches control what other clients display about you: the
last-seen time, the profile photo, and the bio. Everything starts
"on". The settings are stored on the ledger and honored by clients;
they do not make the underlying chain state unreadable.`,
		Subcommands: []*cli.Command{
			privacySetCommand(),
			privacyShowCommand(),
		},
	}
}

// privacySetParams holds the parameters for privacy set. Each toggle
// is "on", "off", or empty for unchanged.
type privacySetParams struct {
	cli.SessionConfig
	cli.JSONOutput
	LastSeen string `flag:"last-seen" desc:"show your last-seen time: on or off"`
	Photo    string `flag:"photo"     desc:"show your profile photo: on or off"`
	Bio      string `flag:"bio"       desc:"show your bio: on or off"`
}

// privacyOutput is the JSON output for privacy commands.
type privacyOutput struct {
	ShowLastSeen     bool `json:"show_last_seen"`
	ShowProfilePhoto bool `json:"show_profile_photo"`
	ShowBio          bool `json:"show_bio"`
}

func privacySetCommand() *cli.Command {
	var params privacySetParams

	return &cli.Command{
		Name:    "set",
		Summary: "Change privacy settings",
		Description: `Change one or more privacy settings.

Settings not named on the command line keep their current value; the
command reads the stored settings first and writes back the merged
result.`,
		Usage: "massachat privacy set [flags]",
		Examples: []cli.Example{
			{
				Description: "Stop revealing when you were last online",
				Command:     "massachat privacy set --last-seen off",
			},
			{
				Description: "Hide the bio and the photo in one step",
				Command:     "massachat privacy set --bio off --photo off",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("set", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			lastSeen, err := parseToggle("last-seen", params.LastSeen)
			if err != nil {
				return err
			}
			photo, err := parseToggle("photo", params.Photo)
			if err != nil {
				return err
			}
			bio, err := parseToggle("bio", params.Bio)
			if err != nil {
				return err
			}
			if lastSeen == nil && photo == nil && bio == nil {
				return cli.Validation("nothing to change").
					WithHint("Pass at least one of --last-seen, --photo, --bio with \"on\" or \"off\".")
			}

			session, err := params.Connect(nil)
			if err != nil {
				return err
			}

			address, err := session.Config.Address()
			if err != nil {
				return cli.Validation("%w", err)
			}

			ledgerClient, err := session.Ledger()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), session.Config.CallTimeout())
			defer cancel()

			settings, err := ledgerClient.Privacy(ctx, address)
			if err != nil {
				return cli.GatewayError(err)
			}
			if lastSeen != nil {
				settings.ShowLastSeen = *lastSeen
			}
			if photo != nil {
				settings.ShowProfilePhoto = *photo
			}
			if bio != nil {
				settings.ShowBio = *bio
			}

			if err := ledgerClient.SetPrivacy(ctx, address, settings); err != nil {
				return cli.GatewayError(err)
			}

			output := privacyOutput{
				ShowLastSeen:     settings.ShowLastSeen,
				ShowProfilePhoto: settings.ShowProfilePhoto,
				ShowBio:          settings.ShowBio,
			}
			if done, err := params.EmitJSON(output); done {
				return err
			}
			printPrivacy(output)
			return nil
		},
	}
}

// privacyShowParams holds the parameters for privacy show.
type privacyShowParams struct {
	cli.SessionConfig
	cli.JSONOutput
}

func privacyShowCommand() *cli.Command {
	var params privacyShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show the current privacy settings",
		Usage:   "massachat privacy show [flags]",
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
				return cli.Validation("%w", err)
			}

			ledgerClient, err := session.Ledger()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), session.Config.CallTimeout())
			defer cancel()

			settings, err := ledgerClient.Privacy(ctx, address)
			if err != nil {
				return cli.GatewayError(err)
			}

			output := privacyOutput{
				ShowLastSeen:     settings.ShowLastSeen,
				ShowProfilePhoto: settings.ShowProfilePhoto,
				ShowBio:          settings.ShowBio,
			}
			if done, err := params.EmitJSON(output); done {
				return err
			}
			printPrivacy(output)
			return nil
		},
	}
}

// parseToggle interprets an on/off flag value. Empty means unchanged
// and returns nil.
func parseToggle(flagName, value string) (*bool, error) {
	switch value {
	case "":
		return nil, nil
	case "on":
		on := true
		return &on, nil
	case "off":
		off := false
		return &off, nil
	default:
		return nil, cli.Validation("--%s must be \"on\" or \"off\", got %q", flagName, value)
	}
}

// printPrivacy writes the aligned text form to stdout.
func printPrivacy(output privacyOutput) {
	fmt.Fprintf(os.Stdout, "Last seen:      %s\n", onOff(output.ShowLastSeen))
	fmt.Fprintf(os.Stdout, "Profile photo:  %s\n", onOff(output.ShowProfilePhoto))
	fmt.Fprintf(os.Stdout, "Bio:            %s\n", onOff(output.ShowBio))
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}
