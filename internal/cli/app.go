// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/scout-tui/internal/api"
	"github.com/jeranaias/scout-tui/internal/auth"
	"github.com/jeranaias/scout-tui/internal/chat"
	"github.com/jeranaias/scout-tui/internal/config"
	"github.com/jeranaias/scout-tui/internal/logging"
	"github.com/jeranaias/scout-tui/internal/session"
	"github.com/jeranaias/scout-tui/internal/storage"
	"github.com/jeranaias/scout-tui/internal/telemetry"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.LocalStore
	gk       *auth.Gatekeeper
	client   *api.Client
	sessions *session.Store

	closers []func() error
}

type appOptions struct {
	// logStderr tees warnings to this writer (line modes only).
	logStderr io.Writer
	// redirect receives login redirects; nil for line modes, which report
	// the returned auth error instead.
	redirect auth.Redirector
}

// loadConfig resolves the configuration named by the global flags.
func loadConfig(g *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFromPath(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &CommandError{Err: err, Code: ExitConfigError}
	}
	if g.server != "" {
		cfg.Server.URL = g.server
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, &CommandError{Err: fmt.Errorf("invalid --server: %w", err), Code: ExitConfigError}
		}
	}
	return cfg, nil
}

// newApp wires logging, telemetry, local state and the remote client.
func newApp(ctx context.Context, g *globalFlags, opts appOptions) (_ *app, err error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	logger, closeLog, err := logging.New(cfg.Log, logging.Options{Verbose: g.verbose, Stderr: opts.logStderr})
	if err != nil {
		return nil, &CommandError{Err: err, Code: ExitConfigError}
	}
	a.logger = logger
	a.closers = append(a.closers, closeLog)

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return nil, &CommandError{Err: err, Code: ExitConfigError}
	}
	a.closers = append(a.closers, func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(sctx)
	})

	store, err := storage.Open(cfg.Storage.StatePath)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	a.gk = auth.NewGatekeeper(storage.NewCredentialStore(store), opts.redirect, auth.WithLogger(logger))
	a.client = api.NewClient(api.ClientConfig{
		BaseURL:   cfg.Server.URL,
		Timeout:   cfg.Server.Timeout(),
		UserAgent: cfg.Server.UserAgent + "/" + Version,
	}, a.gk, logger)
	a.sessions = session.NewStore(a.client, session.DefaultConfig(), logger)

	logger.Debug("APP_READY",
		zap.String("server", cfg.Server.URL),
		zap.String("state", store.Path()),
	)
	return a, nil
}

// controller builds a chat controller painting on display.
func (a *app) controller(display chat.Display, render chat.RenderFunc) *chat.Controller {
	return chat.NewController(a.client, a.sessions, display, render, chat.Config{
		Interval:       a.cfg.Stream.Interval(),
		ReadBufferSize: a.cfg.Stream.ReadBufferBytes,
		StreamTimeout:  a.cfg.Server.StreamTimeout(),
		VerifyJSON:     a.verifyJSON,
	}, a.logger)
}

// verifyJSON reads the setting on every request so that a change made by
// `scout settings set` applies to a running session.
func (a *app) verifyJSON() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	settings, err := a.store.LoadSettings(ctx)
	if err != nil {
		a.logger.Warn("SETTINGS_READ_FAILED", zap.Error(err))
		return false
	}
	return settings.VerifyJSON()
}

// Close releases everything in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
