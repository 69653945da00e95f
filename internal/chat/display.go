// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/scout-tui/internal/model"

// Display is the surface the controller paints on.
type Display interface {
	// AppendMessage adds a finished message to the visible transcript.
	AppendMessage(msg model.Message)
	// ReplaceAssistantRegion replaces the whole in-progress assistant
	// message with already rendered markup.
	ReplaceAssistantRegion(markup string)
	ShowComposingIndicator()
	HideComposingIndicator()

	// SetInputEnabled toggles the composer.
	SetInputEnabled(enabled bool)
	// SetSessions replaces the session list.
	SetSessions(sessions []model.SessionSummary)
	// ClearTranscript empties the visible transcript.
	ClearTranscript()
}

// RenderFunc turns assistant text into display markup. It is opaque to the
// controller and must accept any prefix of a reply.
type RenderFunc func(text string) string

// PlainText is the identity RenderFunc.
func PlainText(text string) string { return text }

// NopDisplay discards everything.
type NopDisplay struct{}

func (NopDisplay) AppendMessage(model.Message) {}
func (NopDisplay) ReplaceAssistantRegion(string) {}
func (NopDisplay) ShowComposingIndicator() {}
func (NopDisplay) HideComposingIndicator() {}
func (NopDisplay) SetInputEnabled(bool) {}
func (NopDisplay) SetSessions([]model.SessionSummary) {}
func (NopDisplay) ClearTranscript() {}
