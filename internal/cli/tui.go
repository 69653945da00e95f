// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/scout-tui/internal/render"
	"github.com/jeranaias/scout-tui/internal/storage"
	uichat "github.com/jeranaias/scout-tui/internal/ui/chat"
	"github.com/jeranaias/scout-tui/internal/ui/styles"
)

func newTUICmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}
}

// runTUI starts the Bubble Tea program. Auth failures send the UI to its
// login screen instead of ending the program.
func runTUI(cmd *cobra.Command, g *globalFlags) error {
	if err := RequiresTTY("start the interface"); err != nil {
		return &CommandError{Command: "tui", Err: err, Code: ExitUsageError}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, g, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	renderer := render.New(render.Options{
		Width:   a.cfg.UI.WordWrap,
		Theme:   a.cfg.UI.Theme,
		Profile: render.DetectProfile(),
	})

	opts := uichat.Options{
		Theme:          styles.NewTheme(a.cfg.UI.Theme),
		Renderer:       renderer,
		SidebarWidth:   a.cfg.UI.SidebarWidth,
		CurrentSession: a.sessions.CurrentID,
	}

	watcher, err := storage.NewWatcher(a.store.Path(), storage.DefaultWatchDebounce)
	if err != nil {
		a.logger.Warn("STATE_WATCH_UNAVAILABLE", zap.Error(err))
	} else {
		defer watcher.Close()
		go watcher.Run(ctx)
		go func() {
			for err := range watcher.Errors() {
				a.logger.Warn("STATE_WATCH_ERROR", zap.Error(err))
			}
		}()
		opts.Changes = watcher.Changes()
	}

	m := uichat.New(ctx, nil, a.gk, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	display := uichat.NewDisplay(p)
	a.gk.SetRedirector(display)
	ctrl := a.controller(display, renderer.Render)
	m.SetController(ctrl)

	a.logger.Info("TUI_STARTED", zap.String("server", a.cfg.Server.URL))
	_, err = p.Run()
	ctrl.Cancel()
	a.gk.SetRedirector(nil)
	if err != nil && ctx.Err() == nil {
		return wrap("tui", err)
	}
	a.logger.Info("TUI_STOPPED")
	return nil
}
