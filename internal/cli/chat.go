// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/scout-tui/internal/auth"
	"github.com/jeranaias/scout-tui/internal/chat"
	"github.com/jeranaias/scout-tui/internal/config"
	"github.com/jeranaias/scout-tui/internal/session"
)

const chatHelp = `Commands:
  /new          start a new chat
  /sessions     list your sessions
  /open N|ID    open a session by list number or id
  /help         show this help
  /quit         leave (also ctrl+d)`

func newChatCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with Scout without the full-screen interface.

Replies are streamed as plain text. Type /help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, g)
		},
	}
}

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineReader reads one line of input.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// lineEditor is a liner prompt with history kept in the config directory.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history (0600) and restores the terminal.
func (e *lineEditor) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

func runChat(cmd *cobra.Command, g *globalFlags) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, g, appOptions{logStderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.gk.Credential(); !ok {
		return &CommandError{Command: "chat", Err: auth.ErrNoCredential, Code: ExitAuthError}
	}

	d := newLineDisplay(cmd.OutOrStdout(), cmd.ErrOrStderr())
	r := &repl{
		ctrl:    a.controller(d, chat.PlainText),
		display: d,
		out:     cmd.OutOrStdout(),
		logger:  a.logger,
	}

	editor := newLineEditor()
	defer editor.Close()
	return wrap("chat", r.run(ctx, editor))
}

// repl drives a controller from typed lines.
type repl struct {
	ctrl    *chat.Controller
	display *lineDisplay
	out     io.Writer
	logger  *zap.Logger
}

func (r *repl) run(ctx context.Context, in lineReader) error {
	fmt.Fprintln(r.out, TitleStyle.Render("Scout")+" "+DimStyle.Render("type /help for commands"))
	r.display.echoUser = true
	r.ctrl.NewChat()
	if err := r.ctrl.RefreshSessions(ctx); err != nil {
		if auth.IsAuthError(err) {
			return err
		}
		r.logger.Warn("SESSION_LIST_FAILED", zap.Error(err))
	}

	for {
		input, err := in.Prompt(PromptStyle.Render("scout> "))
		if err != nil {
			// ctrl+c at the prompt, ctrl+d or closed stdin
			fmt.Fprintln(r.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := r.command(ctx, input)
			if err != nil {
				if auth.IsAuthError(err) {
					return err
				}
				fmt.Fprintln(r.out, systemStyle.Render("Error: "+err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		r.display.echoUser = false
		err = r.ctrl.Send(ctx, input)
		r.display.endExchange()
		r.display.echoUser = true
		switch {
		case err == nil, errors.Is(err, chat.ErrEmptyMessage):
		case auth.IsAuthError(err):
			return err
		case ctx.Err() != nil:
			return nil
		}
	}
}

// command runs a slash command and reports whether the REPL should end.
func (r *repl) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/?":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		r.ctrl.NewChat()
	case "/sessions", "/ls":
		if err := r.ctrl.RefreshSessions(ctx); err != nil {
			return false, err
		}
		r.printSessions()
	case "/open":
		id, err := r.resolveSession(arg)
		if err != nil {
			return false, err
		}
		if err := r.ctrl.SwitchSession(ctx, id); err != nil && !errors.Is(err, session.ErrSuperseded) {
			return false, err
		}
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func (r *repl) printSessions() {
	sessions := r.display.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("no sessions yet"))
		return
	}
	for i, s := range sessions {
		fmt.Fprintf(r.out, "%3d  %s  %s\n", i+1, s.DisplayTitle(), DimStyle.Render(s.ID))
	}
}

// resolveSession accepts a 1-based list number or a session id.
func (r *repl) resolveSession(arg string) (string, error) {
	if arg == "" {
		return "", errors.New("usage: /open N|ID")
	}
	sessions := r.display.Sessions()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(sessions) {
			return "", fmt.Errorf("no session %d (see /sessions)", n)
		}
		return sessions[n-1].ID, nil
	}
	return arg, nil
}
