// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/scout-tui/internal/model"
	"github.com/jeranaias/scout-tui/internal/ui/styles"
)

const (
	headerHeight   = 1
	composerHeight = 3
	minMainWidth   = 30
)

// =============================================================================
// LAYOUT
// =============================================================================

// sidebarWidth is the width the sidebar takes, border included.
func (m *Model) sidebarWidth() int {
	if !m.showSidebar || m.width-m.opts.SidebarWidth < minMainWidth {
		return 0
	}
	return m.opts.SidebarWidth
}

func (m *Model) mainWidth() int {
	return max(m.width-m.sidebarWidth(), 1)
}

func (m *Model) footerHeight() int {
	if m.showHelp {
		return lipgloss.Height(m.help.View(m.keys)) + 1
	}
	return 1
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.help.Width = m.width
	m.help.ShowAll = m.showHelp

	w := m.mainWidth()
	m.viewport.Width = w
	m.viewport.Height = max(m.height-headerHeight-composerHeight-m.footerHeight(), 1)
	m.input.Width = max(w-6, 10)
	m.loginInput.Width = min(max(m.width-20, 20), 60)

	if m.opts.Renderer != nil {
		m.opts.Renderer.SetWidth(m.bodyWidth())
	}
	m.refreshTranscript()
}

// bodyWidth is the text width inside a message bubble.
func (m *Model) bodyWidth() int {
	return max(m.mainWidth()-4, 10)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m *Model) refreshTranscript() {
	if m.width == 0 {
		return
	}
	atBottom := m.viewport.AtBottom()
	width := m.bodyWidth()

	parts := make([]string, 0, len(m.entries)+1)
	for i := range m.entries {
		parts = append(parts, m.renderEntry(&m.entries[i], width))
	}
	if m.pending != nil {
		parts = append(parts, m.bubble(model.RoleAssistant, *m.pending))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	if atBottom || m.pending != nil {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderEntry(e *entry, width int) string {
	if e.prerendered {
		return m.bubble(e.msg.Role, e.rendered)
	}
	if e.width != width || e.rendered == "" {
		e.rendered = m.renderBody(e.msg, width)
		e.width = width
	}
	return m.bubble(e.msg.Role, e.rendered)
}

func (m *Model) renderBody(msg model.Message, width int) string {
	if msg.IsAssistant() && m.opts.Renderer != nil {
		return m.opts.Renderer.Render(msg.Content)
	}
	return lipgloss.NewStyle().Width(width).Render(msg.Content)
}

func (m *Model) bubble(role model.Role, body string) string {
	var label, style lipgloss.Style
	switch role {
	case model.RoleUser:
		label, style = m.theme.RoleUser, m.theme.UserBubble
	case model.RoleSystem:
		label, style = m.theme.RoleSystem, m.theme.SystemBubble
	default:
		label, style = m.theme.RoleAssistant, m.theme.AssistantBubble
	}
	return label.Render(role.DisplayName()) + "\n" + style.Render(body)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.screen == screenLogin {
		return m.viewLogin()
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.viewport.View(),
		m.viewComposer(),
	)
	body := main
	if sw := m.sidebarWidth(); sw > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(sw), main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.viewFooter())
}

func (m *Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("Scout")
	if m.isAdmin {
		title += " " + m.theme.HeaderMuted.Render("[admin]")
	}
	sub := "new chat"
	if i := m.indexOf(m.currentID); i >= 0 {
		sub = m.sessions[i].DisplayTitle()
	}
	avail := m.mainWidth() - lipgloss.Width(title) - 4
	sub = runewidth.Truncate(sub, max(avail, 0), "…")
	return m.theme.Header.Width(m.mainWidth()).Render(title + "  " + m.theme.HeaderMuted.Render(sub))
}

func (m *Model) viewComposer() string {
	w := max(m.mainWidth()-2, 1)
	if m.composing {
		return m.theme.InputDisabled.Width(w).Render(m.spinner.View() + " Scout is composing...")
	}
	if !m.inputEnabled {
		return m.theme.InputDisabled.Width(w).Render(m.input.View())
	}
	return m.theme.InputContainer.Width(w).Render(m.input.View())
}

func (m *Model) viewSidebar(width int) string {
	inner := max(width-2, 4)
	height := max(m.height-m.footerHeight(), 1)

	lines := []string{m.theme.SidebarTitle.Render("Sessions"), ""}
	if len(m.sessions) == 0 {
		lines = append(lines, m.theme.Help.Render("none yet"))
	}
	for i, s := range m.sessions {
		marker := "  "
		if s.ID == m.currentID {
			marker = "> "
		}
		text := marker + runewidth.Truncate(s.DisplayTitle(), inner-2, "…")
		text = runewidth.FillRight(text, inner)
		switch {
		case i == m.cursor:
			text = m.theme.SidebarSelected.Render(text)
		case s.ID == m.currentID:
			text = m.theme.SidebarCurrent.Render(text)
		default:
			text = m.theme.SidebarItem.Render(text)
		}
		lines = append(lines, text)
		if len(lines) >= height {
			break
		}
	}
	return m.theme.Sidebar.Width(inner).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) viewFooter() string {
	if m.showHelp {
		return m.help.View(m.keys)
	}
	if m.status != "" {
		if m.statusErr {
			return styles.RenderError(m.status)
		}
		return m.theme.StatusBar.Render(m.status)
	}
	return m.help.View(m.keys)
}

func (m *Model) viewLogin() string {
	admin := "no"
	if m.loginAdmin {
		admin = "yes"
	}
	form := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.LoginTitle.Render("Log in to Scout"),
		"",
		m.loginInput.View(),
		"",
		m.theme.Help.Render(fmt.Sprintf("admin: %s (tab to toggle)   enter to log in   ctrl+c to quit", admin)),
	)
	box := m.theme.LoginBox.Render(form)

	status := ""
	if m.status != "" {
		if m.statusErr {
			status = styles.RenderError(m.status)
		} else {
			status = m.theme.StatusBar.Render(m.status)
		}
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, box, status))
}
