// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// DefaultSessionTitle is shown for sessions without a user message yet.
const DefaultSessionTitle = "New Chat"

// =============================================================================
// SESSION TYPES
// =============================================================================

// SessionSummary is one entry of the session list.
type SessionSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DisplayTitle returns the title with whitespace collapsed, falling back to
// DefaultSessionTitle when the server sent nothing useful.
func (s SessionSummary) DisplayTitle() string {
	title := strings.Join(strings.Fields(s.Title), " ")
	if title == "" {
		return DefaultSessionTitle
	}
	return title
}

// Session is a conversation with its full ordered transcript.
type Session struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Summary returns the list entry for the session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{ID: s.ID, Title: s.Title}
}

// =============================================================================
// CREDENTIAL
// =============================================================================

// Credential is the locally held authentication state.
type Credential struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Token) != ""
}
