// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jeranaias/scout-tui/internal/api"
	"github.com/jeranaias/scout-tui/internal/auth"
	"github.com/jeranaias/scout-tui/internal/logging"
	"github.com/jeranaias/scout-tui/internal/model"
	"github.com/jeranaias/scout-tui/internal/stream"
)

const instrumentationName = "github.com/jeranaias/scout-tui/internal/chat"

// =============================================================================
// COLLABORATORS
// =============================================================================

// ChatAPI opens the reply stream for one turn.
type ChatAPI interface {
	StreamChat(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)
}

// Sessions is the part of the session store the controller drives.
type Sessions interface {
	EnsureSessionID() string
	History(next model.Message) []model.Message
	CommitTurn(sessionID string, user, assistant model.Message) error
	ListSessions(ctx context.Context) ([]model.SessionSummary, error)
	LoadSession(ctx context.Context, id string) ([]model.Message, error)
	StartNewSession() model.Message
	CurrentID() string
}

// Config holds controller settings.
type Config struct {
	// Interval is the snapshot throttle interval.
	Interval time.Duration
	// ReadBufferSize is the stream read buffer size; 0 keeps the default.
	ReadBufferSize int
	// Clock drives the snapshot throttle (default time.Now).
	Clock func() time.Time
	// StreamTimeout bounds a whole exchange; 0 means no limit.
	StreamTimeout time.Duration
	// VerifyJSON supplies the verify_json flag for each request.
	VerifyJSON func() bool
	// OnStateChange, if set, observes every transition.
	OnStateChange func(from, to State)
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Interval:      stream.DefaultInterval,
		Clock:         time.Now,
		StreamTimeout: 5 * time.Minute,
		VerifyJSON:    func() bool { return false },
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// exchange is the cancellation token of one Send.
type exchange struct {
	id        uint64
	sessionID string
	cancel    context.CancelFunc
}

// Controller coordinates the chat API, the session store and the display.
type Controller struct {
	api      ChatAPI
	sessions Sessions
	display  Display
	render   RenderFunc
	cfg      Config
	logger   *zap.Logger

	tracer    trace.Tracer
	exchanges metric.Int64Counter
	snapshots metric.Int64Histogram

	// mu guards the fields below and serialises display updates so that a
	// token check and the update it guards cannot interleave with a cancel.
	mu      sync.Mutex
	state   State
	current *exchange
	nextID  uint64
}

// NewController wires a controller. render may be nil for plain text.
func NewController(chatAPI ChatAPI, sessions Sessions, display Display, render RenderFunc, cfg Config, logger *zap.Logger) *Controller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.VerifyJSON == nil {
		cfg.VerifyJSON = def.VerifyJSON
	}
	if render == nil {
		render = PlainText
	}
	if display == nil {
		display = NopDisplay{}
	}
	logger = logging.OrNop(logger)

	meter := otel.Meter(instrumentationName)
	exchanges, _ := meter.Int64Counter("scout.chat.exchanges",
		metric.WithDescription("Chat exchanges by outcome"))
	snapshots, _ := meter.Int64Histogram("scout.chat.snapshots",
		metric.WithDescription("Snapshots rendered per exchange"))

	return &Controller{
		api:       chatAPI,
		sessions:  sessions,
		display:   display,
		render:    render,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		exchanges: exchanges,
		snapshots: snapshots,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send runs one exchange to completion. It blocks until the reply has been
// committed, the exchange failed, or it was cancelled.
func (c *Controller) Send(ctx context.Context, text string) (err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	ex, exCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.finish(ex)

	ex.sessionID = c.sessions.EnsureSessionID()
	userMsg := model.NewUserMessage(text)
	history := c.sessions.History(userMsg)

	exCtx, span := c.tracer.Start(exCtx, "chat.exchange", trace.WithAttributes(
		attribute.String("scout.session_id", ex.sessionID),
		attribute.Int("scout.history_len", len(history)),
	))
	snapshotCount, replyBytes := 0, 0
	defer func() {
		outcome := "committed"
		switch {
		case errors.Is(err, ErrCancelled):
			outcome = "cancelled"
		case err != nil:
			outcome = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.String("scout.outcome", outcome),
			attribute.Int("scout.snapshots", snapshotCount),
			attribute.Int("scout.reply_bytes", replyBytes),
		)
		span.End()
		c.exchanges.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		c.snapshots.Record(context.Background(), int64(snapshotCount))
	}()

	c.apply(ex, func() {
		c.display.AppendMessage(userMsg)
		c.display.SetInputEnabled(false)
		c.display.ShowComposingIndicator()
	})

	body, err := c.api.StreamChat(exCtx, api.ChatRequest{
		Messages:   history,
		SessionID:  ex.sessionID,
		VerifyJSON: c.cfg.VerifyJSON(),
	})
	if err != nil {
		return c.fail(ctx, ex, err)
	}
	defer body.Close()
	// Cancelling the exchange must unblock a read in progress.
	stop := context.AfterFunc(exCtx, func() { body.Close() })
	defer stop()

	if !c.transition(ex, StateStreaming) {
		return ErrCancelled
	}
	c.apply(ex, c.display.HideComposingIndicator)

	consumer := stream.NewConsumer(body,
		stream.WithInterval(c.cfg.Interval),
		stream.WithClock(c.cfg.Clock),
		stream.WithBufferSize(c.cfg.ReadBufferSize),
	)
	var final string
	err = consumer.Process(exCtx, func(s stream.Snapshot) {
		snapshotCount++
		replyBytes = len(s.Text)
		markup := c.render(s.Text)
		if !c.apply(ex, func() { c.display.ReplaceAssistantRegion(markup) }) {
			// Detached: stop reading, the body is closed on return.
			ex.cancel()
			return
		}
		if s.Final {
			final = s.Text
		}
	})
	if err != nil {
		return c.fail(ctx, ex, err)
	}

	reply, serverErr := splitServerError(final)
	if serverErr != nil {
		c.apply(ex, func() { c.display.ReplaceAssistantRegion(c.render(reply)) })
		return c.fail(ctx, ex, serverErr)
	}

	if !c.transition(ex, StateCommitting) {
		return ErrCancelled
	}
	if err := c.sessions.CommitTurn(ex.sessionID, userMsg, model.NewAssistantMessage(reply)); err != nil {
		// The session changed under us; the server still has the turn.
		c.logger.Warn("COMMIT_SKIPPED", zap.String("session_id", ex.sessionID), zap.Error(err))
		return ErrCancelled
	}
	c.logger.Info("EXCHANGE_COMMITTED",
		zap.String("session_id", ex.sessionID),
		zap.Int("reply_bytes", len(reply)),
		zap.Int("snapshots", snapshotCount),
	)

	if list, err := c.sessions.ListSessions(exCtx); err == nil {
		c.apply(ex, func() { c.display.SetSessions(list) })
	}
	return nil
}

// NewChat cancels any in-flight exchange and shows a fresh session.
func (c *Controller) NewChat() {
	c.cancelCurrent("new_chat")
	onboarding := c.sessions.StartNewSession()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.ClearTranscript()
	c.display.AppendMessage(onboarding)
}

// SwitchSession cancels any in-flight exchange and shows session id. When
// the load fails the display is left as it was.
func (c *Controller) SwitchSession(ctx context.Context, id string) error {
	c.cancelCurrent("switch_session")

	msgs, err := c.sessions.LoadSession(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.ClearTranscript()
	for _, m := range msgs {
		c.display.AppendMessage(m)
	}
	return nil
}

// RefreshSessions reloads the session list into the display. Failures are
// logged by the store and leave the list unchanged.
func (c *Controller) RefreshSessions(ctx context.Context) error {
	list, err := c.sessions.ListSessions(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.SetSessions(list)
	return nil
}

// Cancel aborts the in-flight exchange, if any.
func (c *Controller) Cancel() {
	c.cancelCurrent("user")
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

func (c *Controller) begin(ctx context.Context) (*exchange, context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil, nil, ErrBusy
	}

	var exCtx context.Context
	var cancel context.CancelFunc
	if c.cfg.StreamTimeout > 0 {
		exCtx, cancel = context.WithTimeout(ctx, c.cfg.StreamTimeout)
	} else {
		exCtx, cancel = context.WithCancel(ctx)
	}

	c.nextID++
	ex := &exchange{id: c.nextID, cancel: cancel}
	c.current = ex
	c.setStateLocked(StateSending)
	return ex, exCtx, nil
}

// finish always runs: it releases the token and, if the exchange was still
// current, returns to Idle and re-enables input.
func (c *Controller) finish(ex *exchange) {
	ex.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != ex {
		return
	}
	c.current = nil
	c.setStateLocked(StateIdle)
	c.display.SetInputEnabled(true)
}

// fail moves a live exchange to Failed and reports err on the display.
// Auth errors produce no transcript text; the gatekeeper has redirected.
func (c *Controller) fail(parent context.Context, ex *exchange, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ex {
		return ErrCancelled
	}
	c.display.HideComposingIndicator()
	if parent.Err() != nil {
		// The caller went away (shutdown); nothing to report.
		return parent.Err()
	}
	c.setStateLocked(StateFailed)

	if auth.IsAuthError(err) {
		c.logger.Info("EXCHANGE_AUTH_REDIRECT", zap.String("session_id", ex.sessionID), zap.Error(err))
		return err
	}

	c.logger.Warn("EXCHANGE_FAILED", zap.String("session_id", ex.sessionID), zap.Error(err))
	c.display.AppendMessage(model.NewSystemMessage(systemErrorText(err)))
	return err
}

// apply runs fn only while ex is the current exchange.
func (c *Controller) apply(ex *exchange, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != ex {
		return false
	}
	fn()
	return true
}

func (c *Controller) transition(ex *exchange, to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != ex {
		return false
	}
	c.setStateLocked(to)
	return true
}

func (c *Controller) cancelCurrent(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ex := c.current
	if ex == nil {
		return
	}
	ex.cancel()
	c.current = nil
	c.setStateLocked(StateIdle)
	c.display.HideComposingIndicator()
	c.display.SetInputEnabled(true)
	c.logger.Info("EXCHANGE_CANCELLED", zap.Uint64("exchange", ex.id), zap.String("reason", reason))
}

func (c *Controller) setStateLocked(to State) {
	from := c.state
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		c.logger.Error("INVALID_TRANSITION", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	c.state = to
	c.logger.Debug("STATE", zap.Stringer("from", from), zap.Stringer("to", to))
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(from, to)
	}
}
