// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the scout TUI.
//
// Colors are Lip Gloss AdaptiveColors so the palette follows the terminal's
// light or dark background. Theme bundles the derived styles.
//
// # Usage
//
//	theme := styles.NewTheme("auto")
//	fmt.Println(theme.UserBubble.Render("hello"))
package styles
