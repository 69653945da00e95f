// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Scout"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry. Messages are never mutated once
// they have been appended to a transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a message authored by the assistant.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a client-side notice (errors, onboarding).
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// IsUser returns true if this is a user message.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// IsAssistant returns true if this is an assistant message.
func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }

// IsSystem returns true if this is a system message.
func (m Message) IsSystem() bool { return m.Role == RoleSystem }

// CloneMessages returns a copy of msgs that callers may keep or modify
// without touching the original slice. A nil input yields an empty slice so
// that JSON encodes it as [] rather than null.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
