// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the client's view of the conversation sessions.
//
// The server owns every transcript. The Store holds the id and transcript
// of the session currently on screen plus the cached session list, and
// mirrors exchanges the server has already persisted via CommitTurn.
//
// # Key Types
//
//   - Store: current session, transcript and session list
//   - Remote: the two read endpoints the store needs
//
// # Usage
//
//	store := session.NewStore(apiClient, session.DefaultConfig(), logger)
//	onboarding := store.StartNewSession()
//	id := store.EnsureSessionID()
//	// ... exchange succeeds ...
//	store.CommitTurn(id, userMsg, assistantMsg)
package session
