// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scout-tui/internal/model"
)

// Sender is the part of *tea.Program the display needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Display implements the controller's display port on top of a running
// Bubble Tea program. It also serves as the auth redirector.
type Display struct {
	program Sender
}

// NewDisplay returns a display that forwards to program.
func NewDisplay(program Sender) *Display {
	return &Display{program: program}
}

func (d *Display) AppendMessage(msg model.Message) {
	d.program.Send(appendMsg{Message: msg})
}

func (d *Display) ReplaceAssistantRegion(markup string) {
	d.program.Send(replaceMsg{Markup: markup})
}

func (d *Display) ShowComposingIndicator() {
	d.program.Send(composingMsg{On: true})
}

func (d *Display) HideComposingIndicator() {
	d.program.Send(composingMsg{On: false})
}

func (d *Display) SetInputEnabled(enabled bool) {
	d.program.Send(inputEnabledMsg{Enabled: enabled})
}

func (d *Display) SetSessions(sessions []model.SessionSummary) {
	d.program.Send(sessionsMsg{Sessions: slices.Clone(sessions)})
}

func (d *Display) ClearTranscript() {
	d.program.Send(clearMsg{})
}

// RedirectToLogin switches the program to the login screen.
func (d *Display) RedirectToLogin(reason error) {
	d.program.Send(loginRequiredMsg{Reason: reason})
}
