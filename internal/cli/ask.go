// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/scout-tui/internal/chat"
)

func newAskCmd(g *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the reply",
		Long: `Send one message and stream the reply to stdout.

The message is read from stdin when no argument is given. Use --session to
continue an existing conversation.`,
		Example: `  scout ask "Senior Go engineer in Berlin, 5+ years"
  echo "ML engineers with Rust experience" | scout ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				if stdinIsTTY(cmd) {
					return UsageError("ask", "a message is required")
				}
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return wrap("ask", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return UsageError("ask", "a message is required")
			}

			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			d := newLineDisplay(cmd.OutOrStdout(), cmd.ErrOrStderr())
			d.quiet = true
			return wrap("ask", ask(cmd.Context(), a.controller(d, chat.PlainText), d, sessionID, text))
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "continue the session with this id")
	return cmd
}

// ask runs a single exchange, optionally on an existing session.
func ask(ctx context.Context, ctrl *chat.Controller, d *lineDisplay, sessionID, text string) error {
	if sessionID != "" {
		// Loading replays the transcript; keep stdout for the new reply.
		d.mu.Lock()
		out := d.out
		d.out = io.Discard
		d.mu.Unlock()
		err := ctrl.SwitchSession(ctx, sessionID)
		d.mu.Lock()
		d.out = out
		d.mu.Unlock()
		if err != nil {
			return fmt.Errorf("open session %s: %w", sessionID, err)
		}
	}

	err := ctrl.Send(ctx, text)
	d.endExchange()
	return err
}
