// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/scout-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// Shared styles for line-mode output.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(28)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Purple)

	systemStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)
)

// renderKeyValue renders one "label value" line.
func renderKeyValue(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
