// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/scout-tui/internal/api"
	"github.com/jeranaias/scout-tui/internal/auth"
	"github.com/jeranaias/scout-tui/internal/model"
	"github.com/jeranaias/scout-tui/internal/session"
	"github.com/jeranaias/scout-tui/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKES
// =============================================================================

type event struct {
	Kind string
	Text string
}

type recordingDisplay struct {
	mu     sync.Mutex
	events []event
}

func (d *recordingDisplay) add(kind, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event{Kind: kind, Text: text})
}

func (d *recordingDisplay) AppendMessage(m model.Message) { d.add("append:"+m.Role.String(), m.Content) }
func (d *recordingDisplay) ReplaceAssistantRegion(s string) { d.add("replace", s) }
func (d *recordingDisplay) ShowComposingIndicator() { d.add("composing", "on") }
func (d *recordingDisplay) HideComposingIndicator() { d.add("composing", "off") }
func (d *recordingDisplay) ClearTranscript() { d.add("clear", "") }

func (d *recordingDisplay) SetInputEnabled(enabled bool) {
	if enabled {
		d.add("input", "on")
	} else {
		d.add("input", "off")
	}
}

func (d *recordingDisplay) SetSessions(list []model.SessionSummary) {
	titles := make([]string, len(list))
	for i, s := range list {
		titles[i] = s.Title
	}
	d.add("sessions", strings.Join(titles, ","))
}

func (d *recordingDisplay) all() []event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]event(nil), d.events...)
}

func (d *recordingDisplay) kinds(kind string) []event {
	var out []event
	for _, e := range d.all() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []api.ChatRequest
	open     func(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)
}

func (f *fakeAPI) StreamChat(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.open(ctx, req)
}

func (f *fakeAPI) last() api.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func replyWith(text string) func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
	return func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(text)), nil
	}
}

type fakeRemote struct {
	mu       sync.Mutex
	list     []model.SessionSummary
	sessions map[string][]model.Message
}

func (r *fakeRemote) ListSessions(context.Context) ([]model.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SessionSummary(nil), r.list...), nil
}

func (r *fakeRemote) GetSession(_ context.Context, id string) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs, ok := r.sessions[id]
	if !ok {
		return nil, &api.StatusError{Op: "get session", Code: 404}
	}
	return model.CloneMessages(msgs), nil
}

func (r *fakeRemote) add(s model.SessionSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, s)
}

// failingBody yields data and then fails.
type failingBody struct {
	data []byte
	err  error
}

func (b *failingBody) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, b.err
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func (b *failingBody) Close() error { return nil }

type harness struct {
	ctrl    *Controller
	api     *fakeAPI
	remote  *fakeRemote
	store   *session.Store
	display *recordingDisplay
}

func newHarness(t *testing.T, open func(context.Context, api.ChatRequest) (io.ReadCloser, error)) *harness {
	t.Helper()
	h := &harness{
		api:     &fakeAPI{open: open},
		remote:  &fakeRemote{sessions: map[string][]model.Message{}},
		display: &recordingDisplay{},
	}
	ids := 0
	h.store = session.NewStore(h.remote, session.Config{NewID: func() string {
		ids++
		return "sess-" + string(rune('0'+ids))
	}}, nil)
	h.ctrl = NewController(h.api, h.store, h.display, nil, Config{}, nil)
	return h
}

// =============================================================================
// TESTS
// =============================================================================

func TestSendCommitsOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.api.open = func(_ context.Context, req api.ChatRequest) (io.ReadCloser, error) {
		h.remote.add(model.SessionSummary{ID: req.SessionID, Title: "Berlin backend"})
		return io.NopCloser(strings.NewReader("Here are three candidates in Berlin.")), nil
	}

	err := h.ctrl.Send(context.Background(), "  Find backend engineers in Berlin  ")
	require.NoError(t, err)

	want := []model.Message{
		model.NewUserMessage("Find backend engineers in Berlin"),
		model.NewAssistantMessage("Here are three candidates in Berlin."),
	}
	if diff := cmp.Diff(want, h.store.Messages()); diff != "" {
		t.Errorf("committed transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "sess-1", h.store.CurrentID())
	assert.Equal(t, StateIdle, h.ctrl.State())

	events := h.display.all()
	require.NotEmpty(t, events)
	assert.Equal(t, event{"append:user", "Find backend engineers in Berlin"}, events[0])
	assert.Equal(t, event{"input", "on"}, events[len(events)-1])

	replaces := h.display.kinds("replace")
	require.NotEmpty(t, replaces)
	assert.Equal(t, "Here are three candidates in Berlin.", replaces[len(replaces)-1].Text)
	assert.Empty(t, h.display.kinds("append:system"))
	assert.Equal(t, []event{{"sessions", "Berlin backend"}}, h.display.kinds("sessions"))
}

func TestFreshSessionExchange(t *testing.T) {
	h := newHarness(t, nil)
	var sentID string
	h.api.open = func(_ context.Context, req api.ChatRequest) (io.ReadCloser, error) {
		sentID = req.SessionID
		h.remote.add(model.SessionSummary{ID: req.SessionID, Title: "Find me a backend engineer in Berlin"})
		return io.NopCloser(strings.NewReader("Sure, here are candidates.")), nil
	}

	before, err := h.store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Empty(t, h.store.CurrentID())

	require.NoError(t, h.ctrl.Send(context.Background(), "Find me a backend engineer in Berlin"))

	assert.NotEmpty(t, sentID)
	assert.Equal(t, sentID, h.store.CurrentID())

	after, err := h.store.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	want := []model.Message{
		model.NewUserMessage("Find me a backend engineer in Berlin"),
		model.NewAssistantMessage("Sure, here are candidates."),
	}
	if diff := cmp.Diff(want, h.store.Messages()); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestSendUsesReadBufferSize(t *testing.T) {
	h := newHarness(t, replyWith("Here are five matching profiles."))
	h.ctrl.cfg.ReadBufferSize = 4

	require.NoError(t, h.ctrl.Send(context.Background(), "backend engineers"))

	replaces := h.display.kinds("replace")
	require.NotEmpty(t, replaces)
	assert.Equal(t, "Here", replaces[0].Text)
	assert.Equal(t, "Here are five matching profiles.", replaces[len(replaces)-1].Text)
}

func TestSendRequestCarriesHistory(t *testing.T) {
	h := newHarness(t, replyWith("first reply"))
	h.ctrl.cfg.VerifyJSON = func() bool { return true }

	require.NoError(t, h.ctrl.Send(context.Background(), "one"))
	first := h.api.last()
	assert.Equal(t, []model.Message{model.NewUserMessage("one")}, first.Messages)
	assert.True(t, first.VerifyJSON)

	h.api.open = replyWith("second reply")
	require.NoError(t, h.ctrl.Send(context.Background(), "two"))
	second := h.api.last()

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, []model.Message{
		model.NewUserMessage("one"),
		model.NewAssistantMessage("first reply"),
		model.NewUserMessage("two"),
	}, second.Messages)
}

func TestSendEmptyMessage(t *testing.T) {
	h := newHarness(t, replyWith("unused"))

	err := h.ctrl.Send(context.Background(), "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, h.display.all())
	assert.Empty(t, h.api.requests)
}

func TestSendTruncatedStream(t *testing.T) {
	h := newHarness(t, func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
		return &failingBody{data: []byte("0123456789"), err: errors.New("connection reset")}, nil
	})

	err := h.ctrl.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, stream.IsTruncated(err))

	assert.Empty(t, h.store.Messages())
	system := h.display.kinds("append:system")
	require.Len(t, system, 1)
	assert.Contains(t, system[0].Text, "connection was lost")
	assert.Equal(t, StateIdle, h.ctrl.State())

	events := h.display.all()
	assert.Equal(t, event{"input", "on"}, events[len(events)-1])
}

func TestSendAuthErrorShowsNoMessage(t *testing.T) {
	h := newHarness(t, func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
		return nil, auth.ErrUnauthorized
	})

	err := h.ctrl.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, auth.ErrAuth)
	assert.Empty(t, h.display.kinds("append:system"))
	assert.Empty(t, h.store.Messages())
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestSendStatusError(t *testing.T) {
	h := newHarness(t, func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
		return nil, &api.StatusError{Op: "chat", Code: 500}
	})

	err := h.ctrl.Send(context.Background(), "hello")
	require.Error(t, err)

	system := h.display.kinds("append:system")
	require.Len(t, system, 1)
	assert.Contains(t, system[0].Text, "HTTP 500")
}

func TestSendServerErrorMarker(t *testing.T) {
	h := newHarness(t, replyWith("Partial answer"+ServerErrorMarker+"model overloaded"))

	err := h.ctrl.Send(context.Background(), "hello")
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "model overloaded", se.Message)

	replaces := h.display.kinds("replace")
	require.NotEmpty(t, replaces)
	assert.Equal(t, "Partial answer", replaces[len(replaces)-1].Text)
	assert.Equal(t, []event{{"append:system", "Error: model overloaded"}}, h.display.kinds("append:system"))
	assert.Empty(t, h.store.Messages())
}

func TestSendRendersSnapshots(t *testing.T) {
	h := newHarness(t, replyWith("**bold**"))
	h.ctrl.render = func(s string) string { return "<" + s + ">" }

	require.NoError(t, h.ctrl.Send(context.Background(), "hi"))
	replaces := h.display.kinds("replace")
	require.NotEmpty(t, replaces)
	assert.Equal(t, "<**bold**>", replaces[len(replaces)-1].Text)

	// The raw reply is committed, not the markup.
	msgs := h.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "**bold**", msgs[1].Content)
}

func TestStateTransitions(t *testing.T) {
	h := newHarness(t, replyWith("ok"))
	var mu sync.Mutex
	var seen []State
	h.ctrl.cfg.OnStateChange = func(_, to State) {
		mu.Lock()
		seen = append(seen, to)
		mu.Unlock()
	}

	require.NoError(t, h.ctrl.Send(context.Background(), "hi"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateSending, StateStreaming, StateCommitting, StateIdle}, seen)
}

// pipeAPI serves each request from a fresh pipe the test writes to.
func pipeAPI(pipes chan<- *io.PipeWriter) func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
	return func(context.Context, api.ChatRequest) (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		pipes <- pw
		return pr, nil
	}
}

func TestSendWhileBusy(t *testing.T) {
	pipes := make(chan *io.PipeWriter, 1)
	h := newHarness(t, pipeAPI(pipes))

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Send(context.Background(), "first") }()
	pw := <-pipes

	assert.ErrorIs(t, h.ctrl.Send(context.Background(), "second"), ErrBusy)

	_, err := pw.Write([]byte("reply"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
	assert.Len(t, h.store.Messages(), 2)
}

func TestSwitchSessionCancelsExchange(t *testing.T) {
	pipes := make(chan *io.PipeWriter, 1)
	h := newHarness(t, pipeAPI(pipes))
	h.remote.sessions["other"] = []model.Message{
		model.NewUserMessage("old question"),
		model.NewAssistantMessage("old answer"),
	}

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Send(context.Background(), "hello") }()
	pw := <-pipes

	_, err := pw.Write([]byte("partial"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.display.kinds("replace")) > 0 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, h.ctrl.SwitchSession(context.Background(), "other"))
	assert.ErrorIs(t, <-done, ErrCancelled)

	// Writes after the switch fail: the body was closed.
	_, err = pw.Write([]byte(" more"))
	assert.Error(t, err)

	assert.Equal(t, "other", h.store.CurrentID())
	assert.Len(t, h.store.Messages(), 2)
	assert.Equal(t, StateIdle, h.ctrl.State())

	events := h.display.all()
	var clearAt int
	for i, e := range events {
		if e.Kind == "clear" {
			clearAt = i
		}
	}
	assert.Equal(t, []event{
		{"clear", ""},
		{"append:user", "old question"},
		{"append:assistant", "old answer"},
	}, events[clearAt:])
}

func TestNewChatCancelsExchange(t *testing.T) {
	pipes := make(chan *io.PipeWriter, 1)
	h := newHarness(t, pipeAPI(pipes))

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Send(context.Background(), "hello") }()
	pw := <-pipes

	_, err := pw.Write([]byte("partial"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.display.kinds("replace")) > 0 },
		time.Second, 5*time.Millisecond)

	h.ctrl.NewChat()
	assert.ErrorIs(t, <-done, ErrCancelled)
	pw.Close()

	assert.Empty(t, h.store.CurrentID())
	assert.Empty(t, h.store.Messages())

	events := h.display.all()
	last := events[len(events)-2:]
	assert.Equal(t, event{"clear", ""}, last[0])
	assert.Equal(t, "append:assistant", last[1].Kind)
	assert.Equal(t, session.OnboardingText, last[1].Text)
	assert.Empty(t, h.display.kinds("append:system"))
}

func TestSwitchSessionFailureLeavesDisplay(t *testing.T) {
	h := newHarness(t, replyWith("unused"))

	err := h.ctrl.SwitchSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Empty(t, h.display.all())
}

func TestCallerCancellationIsSilent(t *testing.T) {
	pipes := make(chan *io.PipeWriter, 1)
	h := newHarness(t, pipeAPI(pipes))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Send(ctx, "hello") }()
	pw := <-pipes
	defer pw.Close()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, h.display.kinds("append:system"))
	assert.Empty(t, h.store.Messages())
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestRefreshSessions(t *testing.T) {
	h := newHarness(t, replyWith("unused"))
	h.remote.add(model.SessionSummary{ID: "a", Title: "older"})
	h.remote.add(model.SessionSummary{ID: "b", Title: "newer"})

	require.NoError(t, h.ctrl.RefreshSessions(context.Background()))
	assert.Equal(t, []event{{"sessions", "newer,older"}}, h.display.all())
}

func TestStateMachine(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateSending))
	assert.True(t, CanTransition(StateStreaming, StateIdle))
	assert.False(t, CanTransition(StateIdle, StateCommitting))
	assert.False(t, CanTransition(StateCommitting, StateFailed))
	assert.True(t, StateStreaming.Busy())
	assert.False(t, StateIdle.Busy())
	assert.Equal(t, "committing", StateCommitting.String())
}

func TestSystemErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server", &ServerError{Message: "boom"}, "Error: boom"},
		{"status 502", &api.StatusError{Code: 502}, "HTTP 502"},
		{"status 400", &api.StatusError{Code: 400}, "rejected (HTTP 400)"},
		{"truncated", &stream.TruncatedError{Received: 3, Cause: io.ErrUnexpectedEOF}, "connection was lost"},
		{"deadline", context.DeadlineExceeded, "took too long"},
		{"transport", &api.TransportError{Op: "chat", Err: errors.New("dial")}, "could not reach"},
		{"other", errors.New("weird"), "Error: weird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, systemErrorText(tt.err), tt.want)
		})
	}
}

func TestSplitServerError(t *testing.T) {
	reply, se := splitServerError("all good")
	assert.Equal(t, "all good", reply)
	assert.Nil(t, se)

	reply, se = splitServerError("half" + ServerErrorMarker)
	assert.Equal(t, "half", reply)
	require.NotNil(t, se)
	assert.Equal(t, "unknown error", se.Message)
}
