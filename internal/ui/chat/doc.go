// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea front end of scout.
//
// The model never calls the chat controller from Update. Every controller
// call runs inside a tea.Cmd goroutine, and the controller paints back
// through Display, which turns each call into a tea.Msg via Program.Send.
// Calling the controller from Update would deadlock: the controller blocks
// in Send while Update waits for the controller.
//
// # Layout
//
//	+-----------+--------------------------------------+
//	| sessions  | header                               |
//	|           | transcript (viewport)                |
//	|           |                                      |
//	|           | composer (textinput) / spinner       |
//	+-----------+--------------------------------------+
//	 status / help
//
// A credential redirect swaps the whole screen for the login form.
package chat
