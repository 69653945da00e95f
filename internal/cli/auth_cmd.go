// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/scout-tui/internal/auth"
)

func newLoginCmd(g *globalFlags) *cobra.Command {
	var (
		token   string
		isAdmin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long: `Store the access token used for every request.

The token is prompted for without echo on a terminal, or read from the first
line of stdin otherwise. It is kept in the local state file (mode 0600).`,
		Example: `  scout login
  scout login --admin
  printf '%s\n' "$TOKEN" | scout login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				if stdinIsTTY(cmd) {
					token, err = readSecret(cmd.ErrOrStderr(), PromptStyle.Render("Access token: "))
				} else {
					token, err = readLine(cmd)
				}
				if err != nil {
					return UsageError("login", "%v", err)
				}
			}

			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.gk.Login(token, isAdmin); err != nil {
				return wrap("login", err)
			}
			role := "user"
			if isAdmin {
				role = "admin"
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in as "+role+".")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (visible in shell history; prefer the prompt)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "mark the credential as an admin credential")
	return cmd
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Long: `Forget the stored access token. A running scout interface notices the
change and returns to its login screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.gk.Logout(); err != nil {
				return wrap("logout", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login state and server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("Scout"))
			fmt.Fprintln(out, renderKeyValue("Server", a.cfg.Server.URL))
			fmt.Fprintln(out, renderKeyValue("State file", a.store.Path()))

			cred, ok := a.gk.Credential()
			if !ok {
				fmt.Fprintln(out, renderKeyValue("Logged in", "no"))
				return &CommandError{Command: "status", Err: auth.ErrNoCredential, Code: ExitAuthError}
			}
			fmt.Fprintln(out, renderKeyValue("Logged in", "yes"))
			fmt.Fprintln(out, renderKeyValue("Admin", fmt.Sprint(cred.IsAdmin)))
			return nil
		},
	}
}

// readLine reads the first line of the command's stdin.
func readLine(cmd *cobra.Command) (string, error) {
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no token on stdin")
	}
	line := strings.TrimSpace(sc.Text())
	if line == "" {
		return "", fmt.Errorf("token must not be empty")
	}
	return line, nil
}
