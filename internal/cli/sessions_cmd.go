// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/scout-tui/internal/export"
	"github.com/jeranaias/scout-tui/internal/model"
)

func newSessionsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "ls"},
		Short:   "List your chat sessions",
		Long:    `List your chat sessions, most recent first.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.sessions.ListSessions(cmd.Context())
			if err != nil {
				return wrap("sessions", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			printSessionList(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.AddCommand(newSessionShowCmd(g), newSessionExportCmd(g))
	return cmd
}

func newSessionShowCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			msgs, err := a.client.GetSession(cmd.Context(), args[0])
			if err != nil {
				return wrap("sessions show", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), msgs)
			}
			printTranscript(cmd.OutOrStdout(), msgs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newSessionExportCmd(g *globalFlags) *cobra.Command {
	var (
		format string
		outDir string
		noMeta bool
	)

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a session transcript to a file",
		Example: `  scout sessions export 3f1c2a
  scout sessions export 3f1c2a --format json -o ./exports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			opts.IncludeMetadata = !noMeta
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return UsageError("sessions export", "%v", err)
			}

			a, err := newApp(cmd.Context(), g, appOptions{logStderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := fetchSession(cmd.Context(), a, args[0])
			if err != nil {
				return wrap("sessions export", err)
			}
			path, err := export.ToFile(s, exporter, opts)
			if err != nil {
				return wrap("sessions export", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Exported to "+path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md or json")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&noMeta, "no-metadata", false, "omit the front matter block")
	return cmd
}

// fetchSession loads a transcript and titles it from the session list.
func fetchSession(ctx context.Context, a *app, id string) (*model.Session, error) {
	msgs, err := a.client.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	s := &model.Session{ID: id, Messages: msgs}
	if list, err := a.sessions.ListSessions(ctx); err == nil {
		for _, sum := range list {
			if sum.ID == id {
				s.Title = sum.Title
				break
			}
		}
	}
	return s, nil
}

func printSessionList(out io.Writer, list []model.SessionSummary) {
	if len(list) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No sessions yet."))
		return
	}
	for i, s := range list {
		fmt.Fprintf(out, "%3d  %s  %s\n", i+1, s.DisplayTitle(), DimStyle.Render(s.ID))
	}
}

func printTranscript(out io.Writer, msgs []model.Message) {
	d := newLineDisplay(out, out)
	d.echoUser = true
	for _, m := range msgs {
		d.AppendMessage(m)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
