// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/scout-tui/internal/api"
	"github.com/jeranaias/scout-tui/internal/stream"
)

// ServerErrorMarker introduces an error the server reports inside the
// reply stream after the response has already started.
const ServerErrorMarker = "\n[SYSTEM ERROR]: "

var (
	// ErrBusy is returned by Send while another exchange is in progress.
	ErrBusy = errors.New("chat: an exchange is already in progress")
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("chat: message is empty")
	// ErrCancelled is returned by Send when the exchange was cancelled by a
	// session switch or new chat.
	ErrCancelled = errors.New("chat: exchange cancelled")
)

// ServerError is an error reported inline by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "chat: server reported: " + e.Message
}

// splitServerError separates a reply from a trailing inline server error.
func splitServerError(text string) (reply string, serverErr *ServerError) {
	idx := strings.Index(text, ServerErrorMarker)
	if idx < 0 {
		return text, nil
	}
	msg := strings.TrimSpace(text[idx+len(ServerErrorMarker):])
	if msg == "" {
		msg = "unknown error"
	}
	return text[:idx], &ServerError{Message: msg}
}

// systemErrorText is the transcript text shown for a failed exchange.
func systemErrorText(err error) string {
	var (
		se *api.StatusError
		te *api.TransportError
		ve *ServerError
	)
	switch {
	case errors.As(err, &ve):
		return "Error: " + ve.Message
	case errors.As(err, &se):
		if se.Code >= http.StatusInternalServerError {
			return fmt.Sprintf("Error: the server failed to answer (HTTP %d). Please try again.", se.Code)
		}
		return fmt.Sprintf("Error: the request was rejected (HTTP %d).", se.Code)
	case stream.IsTruncated(err):
		return "Error: the connection was lost before the reply finished."
	case errors.Is(err, context.DeadlineExceeded):
		return "Error: the reply took too long and was abandoned."
	case errors.As(err, &te):
		return "Error: could not reach the server."
	default:
		return "Error: " + err.Error()
	}
}
