// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/scout-tui/internal/api"
	"github.com/jeranaias/scout-tui/internal/auth"
	"github.com/jeranaias/scout-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// NotLoggedInMessage is printed when a line-mode command hits the login
// redirect.
const NotLoggedInMessage = "not logged in: run `scout login`"

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command with the exit code it maps to.
type CommandError struct {
	Command string
	Err     error
	Code    int
}

func (e *CommandError) Error() string {
	if e.Command == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports invalid arguments.
func UsageError(command, format string, args ...any) error {
	return &CommandError{Command: command, Err: fmt.Errorf(format, args...), Code: ExitUsageError}
}

// wrap attaches the exit code matching err.
func wrap(command string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return err
	}
	return &CommandError{Command: command, Err: err, Code: ExitCode(err)}
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	var (
		ce *CommandError
		se *api.StatusError
		te *api.TransportError
		ve config.ValidateErrors
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ce) && ce.Code != 0:
		return ce.Code
	case auth.IsAuthError(err):
		return ExitAuthError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case api.IsNotFound(err):
		return ExitNotFound
	case errors.As(err, &se), errors.As(err, &te):
		return ExitNetworkError
	case errors.As(err, &ve):
		return ExitConfigError
	default:
		return ExitGeneralError
	}
}

// describe is the one-line message printed for err.
func describe(err error) string {
	if auth.IsAuthError(err) {
		return NotLoggedInMessage
	}
	return err.Error()
}
