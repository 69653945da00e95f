// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scout-tui/internal/auth"
	chatcore "github.com/jeranaias/scout-tui/internal/chat"
	"github.com/jeranaias/scout-tui/internal/model"
	"github.com/jeranaias/scout-tui/internal/session"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// Each creator captures what it needs so the goroutine never touches the
// model.

func (m *Model) sendCmd(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return sendDoneMsg{Err: ctrl.Send(ctx, text)}
	}
}

func (m *Model) newChatCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.NewChat()
		return nil
	}
}

func (m *Model) switchCmd(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return switchDoneMsg{ID: id, Err: ctrl.SwitchSession(ctx, id)}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{Err: ctrl.RefreshSessions(ctx)}
	}
}

func (m *Model) cancelCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Cancel()
		return nil
	}
}

func (m *Model) loginCmd(token string, isAdmin bool) tea.Cmd {
	gk := m.auth
	return func() tea.Msg {
		return loginDoneMsg{Err: gk.Login(token, isAdmin)}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	gk := m.auth
	return func() tea.Msg {
		return logoutDoneMsg{Err: gk.Logout()}
	}
}

// watchCmd waits for the next change of the local state file.
func (m *Model) watchCmd() tea.Cmd {
	changes := m.opts.Changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return watchStoppedMsg{}
		}
		return stateChangedMsg{}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Sequence(m.cancelCmd(), tea.Quit)
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.updateChat(msg)

	case spinner.TickMsg:
		if !m.composing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	// Display port
	case appendMsg:
		m.flushPending()
		m.entries = append(m.entries, entry{msg: msg.Message})
		m.refreshTranscript()
		return m, nil

	case replaceMsg:
		markup := msg.Markup
		m.pending = &markup
		m.refreshTranscript()
		return m, nil

	case composingMsg:
		m.composing = msg.On
		if msg.On {
			return m, m.spinner.Tick
		}
		return m, nil

	case inputEnabledMsg:
		m.inputEnabled = msg.Enabled
		if msg.Enabled && m.screen == screenChat {
			return m, m.input.Focus()
		}
		m.input.Blur()
		return m, nil

	case sessionsMsg:
		m.sessions = msg.Sessions
		m.currentID = m.opts.CurrentSession()
		m.cursor = m.indexOf(m.currentID)
		return m, nil

	case clearMsg:
		m.entries = nil
		m.pending = nil
		m.refreshTranscript()
		return m, nil

	// Command results
	case sendDoneMsg:
		m.currentID = m.opts.CurrentSession()
		switch {
		case msg.Err == nil:
			m.setStatus("", false)
		case errors.Is(msg.Err, chatcore.ErrBusy):
			m.setStatus("Scout is still answering", true)
		case errors.Is(msg.Err, chatcore.ErrCancelled), errors.Is(msg.Err, chatcore.ErrEmptyMessage):
		default:
			// The controller already put the failure in the transcript.
			m.setStatus("Last message failed", true)
		}
		return m, nil

	case switchDoneMsg:
		switch {
		case msg.Err == nil:
			m.currentID = msg.ID
			m.cursor = m.indexOf(msg.ID)
			m.setStatus("", false)
		case errors.Is(msg.Err, session.ErrSuperseded):
		default:
			m.setStatus("Could not open session: "+msg.Err.Error(), true)
		}
		return m, nil

	case refreshDoneMsg:
		if msg.Err != nil {
			m.setStatus("Could not refresh sessions", true)
		}
		return m, nil

	case loginRequiredMsg:
		status := "Please log in"
		if errors.Is(msg.Reason, auth.ErrUnauthorized) {
			status = "Session expired, please log in again"
		}
		m.enterLogin(status)
		return m, nil

	case loginDoneMsg:
		if msg.Err != nil {
			m.setStatus("Login failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.enterChat()
		m.setStatus("Logged in", false)
		return m, tea.Batch(m.newChatCmd(), m.refreshCmd())

	case logoutDoneMsg:
		if msg.Err != nil {
			m.setStatus("Logout failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.sessions = nil
		m.cursor = -1
		m.enterLogin("Logged out")
		return m, m.cancelCmd()

	case stateChangedMsg:
		return m, tea.Batch(m.syncCredential(), m.watchCmd())

	case watchStoppedMsg:
		return m, nil
	}

	return m, nil
}

// syncCredential follows a login or logout done by another scout process.
func (m *Model) syncCredential() tea.Cmd {
	_, ok := m.auth.Credential()
	switch {
	case !ok && m.screen == screenChat:
		m.enterLogin("Logged out elsewhere")
		return m.cancelCmd()
	case ok && m.screen == screenLogin:
		m.enterChat()
		m.setStatus("Logged in elsewhere", false)
		return tea.Batch(m.newChatCmd(), m.refreshCmd())
	}
	return nil
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		token := strings.TrimSpace(m.loginInput.Value())
		if token == "" {
			m.setStatus("Token is required", true)
			return m, nil
		}
		m.setStatus("Logging in...", false)
		return m, m.loginCmd(token, m.loginAdmin)
	case tea.KeyTab:
		m.loginAdmin = !m.loginAdmin
		return m, nil
	}
	var cmd tea.Cmd
	m.loginInput, cmd = m.loginInput.Update(msg)
	return m, cmd
}

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if !m.inputEnabled {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.setStatus("", false)
		return m, m.sendCmd(text)

	case key.Matches(msg, m.keys.NewChat):
		m.currentID = ""
		m.cursor = -1
		return m, m.newChatCmd()

	case key.Matches(msg, m.keys.SessionUp):
		if len(m.sessions) > 0 {
			if m.cursor <= 0 {
				m.cursor = 0
			} else {
				m.cursor--
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.SessionDown):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.OpenSession):
		if m.cursor < 0 || m.cursor >= len(m.sessions) {
			return m, nil
		}
		id := m.sessions[m.cursor].ID
		m.setStatus("Opening "+m.sessions[m.cursor].DisplayTitle()+"...", false)
		return m, m.switchCmd(id)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar && m.opts.SidebarWidth > 0
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Cancel):
		return m, m.cancelCmd()

	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil
	}

	if !m.inputEnabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// flushPending turns the in-progress assistant region into a finished entry.
func (m *Model) flushPending() {
	if m.pending == nil {
		return
	}
	m.entries = append(m.entries, entry{
		msg:         model.NewAssistantMessage(*m.pending),
		rendered:    *m.pending,
		prerendered: true,
	})
	m.pending = nil
}

func (m *Model) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range m.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}
