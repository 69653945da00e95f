// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/scout-tui/internal/storage"
)

func newSettingsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
		Long: `Show or change the user settings kept in the local state file.

Settings apply to running scout processes on their next request.

Known settings:
  verify_json   true|false   ask the server to validate structured output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd, g)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd, g)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Change one setting",
		Example: "  scout settings set verify_json true",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.ValidateSetting(args[0], args[1]); err != nil {
				return UsageError("settings set", "%v", err)
			}
			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
				return wrap("settings set", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValue(args[0], args[1]))
			return nil
		},
	})
	return cmd
}

func showSettings(cmd *cobra.Command, g *globalFlags) error {
	a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.store.LoadSettings(cmd.Context())
	if err != nil {
		return wrap("settings", err)
	}
	out := cmd.OutOrStdout()
	if _, ok := settings[storage.SettingVerifyJSON]; !ok {
		fmt.Fprintln(out, renderKeyValue(storage.SettingVerifyJSON, "false")+DimStyle.Render(" (default)"))
	}
	for _, k := range settings.Keys() {
		fmt.Fprintln(out, renderKeyValue(k, settings[k]))
	}
	return nil
}
