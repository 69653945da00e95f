// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the scout client.
//
// # Key Types
//
//   - Message: a single transcript entry (role + content)
//   - Session: a server-side conversation with its ordered transcript
//   - SessionSummary: the id/title pair shown in the session list
//   - Credential: the bearer token and admin flag of the logged-in user
//
// # Usage
//
//	msgs := []model.Message{
//	    model.NewUserMessage("Find me a backend engineer in Berlin"),
//	}
//	history := model.CloneMessages(msgs)
package model
