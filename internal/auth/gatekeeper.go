// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth guards every outbound request with the stored credential.
package auth

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/scout-tui/internal/logging"
	"github.com/jeranaias/scout-tui/internal/model"
)

// Redirector sends the user to the login surface.
type Redirector interface {
	RedirectToLogin(reason error)
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(reason error)

// RedirectToLogin calls f.
func (f RedirectFunc) RedirectToLogin(reason error) { f(reason) }

// =============================================================================
// GATEKEEPER
// =============================================================================

// Gatekeeper is an http.RoundTripper that attaches the bearer credential to
// every request and turns missing or rejected credentials into a login
// redirect. It never retries.
type Gatekeeper struct {
	store  CredentialStore
	next   http.RoundTripper
	logger *zap.Logger

	mu       sync.RWMutex
	redirect Redirector
}

// Option configures a Gatekeeper.
type Option func(*Gatekeeper)

// WithTransport sets the underlying transport (default http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gatekeeper) { g.next = rt }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gatekeeper) { g.logger = logging.OrNop(l) }
}

// NewGatekeeper creates a gatekeeper over store. redirect may be nil.
func NewGatekeeper(store CredentialStore, redirect Redirector, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		store:    store,
		redirect: redirect,
		next:     http.DefaultTransport,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRedirector replaces the redirect target. The TUI installs itself here
// once its program exists.
func (g *Gatekeeper) SetRedirector(r Redirector) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redirect = r
}

// RoundTrip implements http.RoundTripper.
func (g *Gatekeeper) RoundTrip(req *http.Request) (*http.Response, error) {
	cred, ok, err := g.store.Get()
	if err != nil {
		closeBody(req)
		return nil, fmt.Errorf("auth: reading credential: %w", err)
	}
	if !ok {
		closeBody(req)
		g.logger.Info("AUTH_REDIRECT", zap.String("reason", "no_credential"), zap.String("path", req.URL.Path))
		g.redirectToLogin(ErrNoCredential)
		return nil, ErrNoCredential
	}

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := g.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if err := g.store.Clear(); err != nil {
			g.logger.Error("CREDENTIAL_CLEAR_FAILED", zap.Error(err))
		}
		g.logger.Info("AUTH_REDIRECT", zap.String("reason", "unauthorized"), zap.String("path", req.URL.Path))
		g.redirectToLogin(ErrUnauthorized)
		return nil, ErrUnauthorized
	}

	return resp, nil
}

// Do sends req through the gatekeeper using a plain http.Client.
func (g *Gatekeeper) Do(req *http.Request) (*http.Response, error) {
	return g.Client().Do(req)
}

// Client returns an http.Client whose transport is the gatekeeper.
// Errors returned by RoundTrip arrive wrapped in *url.Error; errors.Is
// still matches ErrNoCredential and ErrUnauthorized.
func (g *Gatekeeper) Client() *http.Client {
	return &http.Client{Transport: g}
}

// Login stores a new credential.
func (g *Gatekeeper) Login(token string, isAdmin bool) error {
	cred := model.Credential{Token: strings.TrimSpace(token), IsAdmin: isAdmin}
	if !cred.Valid() {
		return errors.New("auth: token cannot be empty")
	}
	if err := g.store.Set(cred); err != nil {
		return fmt.Errorf("auth: storing credential: %w", err)
	}
	g.logger.Info("LOGIN", zap.Bool("is_admin", isAdmin))
	return nil
}

// Logout clears the stored credential.
func (g *Gatekeeper) Logout() error {
	if err := g.store.Clear(); err != nil {
		return fmt.Errorf("auth: clearing credential: %w", err)
	}
	g.logger.Info("LOGOUT")
	return nil
}

// Credential returns the stored credential, if any.
func (g *Gatekeeper) Credential() (model.Credential, bool) {
	cred, ok, err := g.store.Get()
	if err != nil {
		g.logger.Warn("CREDENTIAL_READ_FAILED", zap.Error(err))
		return model.Credential{}, false
	}
	return cred, ok
}

func (g *Gatekeeper) redirectToLogin(reason error) {
	g.mu.RLock()
	r := g.redirect
	g.mu.RUnlock()
	if r != nil {
		r.RedirectToLogin(reason)
	}
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}
