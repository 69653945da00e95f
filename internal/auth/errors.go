// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

// AuthError reports that a request could not be made or was rejected for
// lack of a valid credential. The login redirect has always been issued by
// the time a caller sees one.
type AuthError struct {
	Reason string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// Is matches any AuthError against ErrAuth, and otherwise compares reasons.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	// ErrAuth matches every AuthError with errors.Is.
	ErrAuth = &AuthError{}

	// ErrNoCredential is returned without touching the network when no
	// credential is stored.
	ErrNoCredential = &AuthError{Reason: "no credential"}

	// ErrUnauthorized is returned when the server answered 401. The stored
	// credential has been cleared.
	ErrUnauthorized = &AuthError{Reason: "unauthorized"}
)

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
