// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one exchange at a time between the user and the
// assistant and projects it onto a Display.
//
// The controller moves through
//
//	Idle -> Sending -> Streaming -> Committing -> Idle
//	Sending|Streaming -> Failed -> Idle
//
// Every exchange owns a cancellation token. Starting a new chat or switching
// sessions cancels the in-flight exchange, and the token is checked before
// each display update, so a detached stream never paints over the new view
// and never commits.
//
// Display implementations are called from the goroutine running Send and
// must not call back into the Controller.
package chat
