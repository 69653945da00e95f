// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the scout command line.
//
// Every command builds its own app (config, logger, local state, API
// client) in RunE and closes it before returning. Line-mode commands
// report a missing or rejected credential as an error and exit non-zero;
// the TUI switches to its login screen instead.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information, set from main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	server     string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "scout",
		Short: "Scout - recruiting assistant in your terminal",
		Long: `Scout talks to the recruiting assistant backend.

Describe the role you are hiring for and Scout streams back matching
candidates. Run without arguments to start the full-screen interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default ~/.scout/config.toml)")
	root.PersistentFlags().StringVarP(&g.server, "server", "s", "", "backend URL, overrides server.url")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newTUICmd(g),
		newChatCmd(g),
		newAskCmd(g),
		newLoginCmd(g),
		newLogoutCmd(g),
		newStatusCmd(g),
		newSessionsCmd(g),
		newSettingsCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "scout: "+describe(err))
		return ExitCode(err)
	}
	return ExitSuccess
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scout %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
