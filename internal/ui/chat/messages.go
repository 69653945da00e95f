// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/scout-tui/internal/model"

// =============================================================================
// DISPLAY MESSAGES
// =============================================================================

// These mirror the Display methods one to one.

type appendMsg struct{ Message model.Message }

type replaceMsg struct{ Markup string }

type composingMsg struct{ On bool }

type inputEnabledMsg struct{ Enabled bool }

type sessionsMsg struct{ Sessions []model.SessionSummary }

type clearMsg struct{}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// sendDoneMsg reports the end of an exchange.
type sendDoneMsg struct{ Err error }

// switchDoneMsg reports the end of a session load.
type switchDoneMsg struct {
	ID  string
	Err error
}

// refreshDoneMsg reports a session list refresh.
type refreshDoneMsg struct{ Err error }

// loginRequiredMsg is sent by the auth redirect.
type loginRequiredMsg struct{ Reason error }

// loginDoneMsg reports the result of a login attempt.
type loginDoneMsg struct{ Err error }

// logoutDoneMsg reports the result of a logout.
type logoutDoneMsg struct{ Err error }

// stateChangedMsg is sent when the local state file changed on disk.
type stateChangedMsg struct{}

// watchStoppedMsg is sent when the state watcher channel closes.
type watchStoppedMsg struct{}
