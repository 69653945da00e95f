// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jeranaias/scout-tui/internal/logging"
	"github.com/jeranaias/scout-tui/internal/model"
)

// OnboardingText greets the user on a fresh session. It is shown but never
// part of the transcript sent to the server.
const OnboardingText = "Hi, I'm Scout. Tell me about the role you are hiring for " +
	"(title, location, must-have skills) and I'll find matching candidates."

var (
	// ErrNotCurrent is returned by CommitTurn for a session that is no
	// longer on screen.
	ErrNotCurrent = errors.New("session: not the current session")

	// ErrSuperseded is returned by LoadSession when a newer load or a new
	// chat started while it was in flight.
	ErrSuperseded = errors.New("session: load superseded")
)

// Remote is the server side of the session store.
type Remote interface {
	ListSessions(ctx context.Context) ([]model.SessionSummary, error)
	GetSession(ctx context.Context, id string) ([]model.Message, error)
}

// Config holds configuration for the session store.
type Config struct {
	// Onboarding is the message returned by StartNewSession.
	Onboarding model.Message

	// NewID generates client-side session ids.
	NewID func() string
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Onboarding: model.NewAssistantMessage(OnboardingText),
		NewID:      uuid.NewString,
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store tracks the current session and the session list.
type Store struct {
	remote Remote
	cfg    Config
	logger *zap.Logger
	group  singleflight.Group

	mu        sync.Mutex
	currentID string
	messages  []model.Message
	sessions  []model.SessionSummary
	// generation changes on every LoadSession/StartNewSession so that a slow
	// load cannot overwrite a newer choice.
	generation uint64
}

// NewStore creates a store. Zero Config fields take their defaults.
func NewStore(remote Remote, cfg Config, logger *zap.Logger) *Store {
	def := DefaultConfig()
	if cfg.Onboarding.Content == "" {
		cfg.Onboarding = def.Onboarding
	}
	if cfg.NewID == nil {
		cfg.NewID = def.NewID
	}
	logger = logging.OrNop(logger)
	return &Store{remote: remote, cfg: cfg, logger: logger}
}

// ListSessions fetches the session list, newest first. Concurrent calls
// share one request, which runs detached from any single caller's
// cancellation; a caller whose ctx ends stops waiting and gets ctx.Err().
// On failure the cached list is kept and returned along with the error.
func (s *Store) ListSessions(ctx context.Context) ([]model.SessionSummary, error) {
	ch := s.group.DoChan("list", func() (interface{}, error) {
		list, err := s.remote.ListSessions(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		list = slices.Clone(list)
		slices.Reverse(list)

		s.mu.Lock()
		s.sessions = list
		s.mu.Unlock()
		return list, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return s.Sessions(), ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.Warn("SESSION_LIST_FAILED", zap.Error(res.Err))
		return s.Sessions(), res.Err
	}
	list := res.Val.([]model.SessionSummary)
	s.logger.Debug("SESSION_LIST_REFRESHED", zap.Int("count", len(list)), zap.Bool("shared", res.Shared))
	return slices.Clone(list), nil
}

// Sessions returns the cached session list.
func (s *Store) Sessions() []model.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sessions)
}

// LoadSession makes id the current session, replacing the whole transcript.
// On failure nothing changes.
func (s *Store) LoadSession(ctx context.Context, id string) ([]model.Message, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	msgs, err := s.remote.GetSession(ctx, id)
	if err != nil {
		s.logger.Warn("SESSION_LOAD_FAILED", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug("SESSION_LOAD_SUPERSEDED", zap.String("session_id", id))
		return nil, ErrSuperseded
	}
	s.currentID = id
	s.messages = model.CloneMessages(msgs)
	s.logger.Info("SESSION_LOADED", zap.String("session_id", id), zap.Int("messages", len(msgs)))
	return model.CloneMessages(s.messages), nil
}

// StartNewSession clears the current session and returns the onboarding
// message to display. No remote call is made.
func (s *Store) StartNewSession() model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.currentID = ""
	s.messages = nil
	return s.cfg.Onboarding
}

// EnsureSessionID returns the current id, generating one for a fresh session.
func (s *Store) EnsureSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentID == "" {
		s.currentID = s.cfg.NewID()
		s.logger.Debug("SESSION_ID_GENERATED", zap.String("session_id", s.currentID))
	}
	return s.currentID
}

// CommitTurn appends a completed exchange. The server has already persisted
// it; this only mirrors it locally. Commits for a session that is no longer
// current are dropped.
func (s *Store) CommitTurn(sessionID string, user, assistant model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" || sessionID != s.currentID {
		s.logger.Warn("COMMIT_DROPPED", zap.String("session_id", sessionID), zap.String("current", s.currentID))
		return ErrNotCurrent
	}
	s.messages = append(s.messages, user, assistant)
	return nil
}

// CurrentID returns the current session id ("" for a fresh session).
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Messages returns a copy of the committed transcript.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMessages(s.messages)
}

// History returns the transcript to send with a new user message.
func (s *Store) History(next model.Message) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, 0, len(s.messages)+1)
	out = append(out, s.messages...)
	return append(out, next)
}
