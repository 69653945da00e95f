// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the recruiting assistant backend.
//
// Every request goes through the auth gatekeeper, which is installed as the
// transport of the underlying resty clients. Nothing here retries.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jeranaias/scout-tui/internal/auth"
	"github.com/jeranaias/scout-tui/internal/logging"
	"github.com/jeranaias/scout-tui/internal/model"
)

// Endpoint paths.
const (
	PathSessions = "/api/sessions"
	PathSession  = "/api/sessions/{id}"
	PathChat     = "/api/chat"
)

// =============================================================================
// ERRORS
// =============================================================================

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Code, e.Body)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.Code)
}

// TransportError is a failure to reach the server or to decode its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds client settings.
type ClientConfig struct {
	BaseURL string
	// Timeout bounds non-streaming requests. Streaming requests are bounded
	// only by their context.
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:   "http://localhost:8000",
		Timeout:   30 * time.Second,
		UserAgent: "scout-tui",
	}
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages   []model.Message `json:"messages"`
	SessionID  string          `json:"session_id"`
	VerifyJSON bool            `json:"verify_json"`
}

// Client talks to the backend.
type Client struct {
	rest   *resty.Client
	stream *resty.Client
	logger *zap.Logger
}

// NewClient creates a client whose requests all pass through gk.
func NewClient(cfg ClientConfig, gk http.RoundTripper, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	logger = logging.OrNop(logger)

	base := strings.TrimRight(cfg.BaseURL, "/")
	newRest := func() *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTransport(gk).
			SetHeader("User-Agent", cfg.UserAgent).
			SetLogger(logger.Sugar()).
			SetRetryCount(0)
	}

	return &Client{
		rest:   newRest().SetTimeout(cfg.Timeout),
		// A client-level timeout would cut long replies off mid-stream.
		stream: newRest(),
		logger: logger,
	}
}

// ListSessions returns the caller's sessions in server order.
func (c *Client) ListSessions(ctx context.Context) ([]model.SessionSummary, error) {
	const op = "list sessions"

	res, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(PathSessions)
	if err != nil {
		return nil, c.requestError(op, err)
	}
	if !res.IsSuccess() {
		return nil, c.statusError(op, res.StatusCode(), res.Body())
	}

	var out []model.SessionSummary
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return out, nil
}

// GetSession returns the transcript of session id.
func (c *Client) GetSession(ctx context.Context, id string) ([]model.Message, error) {
	const op = "load session"

	res, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("id", id).
		Get(PathSession)
	if err != nil {
		return nil, c.requestError(op, err)
	}
	if !res.IsSuccess() {
		return nil, c.statusError(op, res.StatusCode(), res.Body())
	}

	var out []model.Message
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return out, nil
}

// StreamChat posts one turn and returns the raw streaming body. The caller
// must close it. The body is plain text with no framing.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	const op = "chat"
	if req.Messages == nil {
		req.Messages = []model.Message{}
	}

	res, err := c.stream.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/plain").
		SetBody(req).
		SetDoNotParseResponse(true).
		Post(PathChat)
	if err != nil {
		return nil, c.requestError(op, err)
	}

	body := res.RawBody()
	if !res.IsSuccess() {
		var snippet []byte
		if body != nil {
			snippet, _ = io.ReadAll(io.LimitReader(body, 512))
			body.Close()
		}
		return nil, c.statusError(op, res.StatusCode(), snippet)
	}
	if body == nil {
		return nil, &TransportError{Op: op, Err: errors.New("empty response body")}
	}

	c.logger.Debug("CHAT_STREAM_OPEN", zap.String("session_id", req.SessionID), zap.Int("messages", len(req.Messages)))
	return body, nil
}

// requestError keeps auth errors recognisable and wraps everything else.
func (c *Client) requestError(op string, err error) error {
	var ae *auth.AuthError
	if errors.As(err, &ae) {
		return ae
	}
	c.logger.Warn("REQUEST_FAILED", zap.String("op", op), zap.Error(err))
	return &TransportError{Op: op, Err: err}
}

func (c *Client) statusError(op string, code int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	c.logger.Warn("REQUEST_REJECTED", zap.String("op", op), zap.Int("status", code))
	return &StatusError{Op: op, Code: code, Body: snippet}
}
