// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// State is the controller's position in an exchange.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCommitting
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCommitting:
		return "committing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether an exchange is in progress.
func (s State) Busy() bool {
	return s != StateIdle
}

// validTransitions lists the edges of the exchange state machine.
var validTransitions = map[State][]State{
	StateIdle:       {StateSending},
	StateSending:    {StateStreaming, StateFailed, StateIdle},
	StateStreaming:  {StateCommitting, StateFailed, StateIdle},
	StateCommitting: {StateIdle},
	StateFailed:     {StateIdle},
}

// CanTransition reports whether from -> to is an edge of the state machine.
// Sending/Streaming -> Idle is the cancellation edge.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
