// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Keepsake.
// This file defines the shared lipgloss styles.
package tui // import "github.com/toeirei/keepsake/internal/tui"

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/keepsake/internal/strength"
)

// colorPalette defines the core colors used in the TUI.
const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // A nice teal/cyan
	colorSpecial   = lipgloss.Color("208") // An orange for special attention
	colorError     = lipgloss.Color("196") // A bright red
	colorSuccess   = lipgloss.Color("40")  // A nice green
	colorEmpty     = lipgloss.Color("237") // Dark gray
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	helpStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true).
			Padding(1, 0)

	labelStyle        = lipgloss.NewStyle().Width(10)
	focusedLabelStyle = labelStyle.Foreground(colorHighlight)

	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorHighlight).
			Padding(1, 2).
			Width(64)
)

// meterColors colors the strength meter per level.
var meterColors = map[strength.Level]lipgloss.Color{
	strength.TooShort: colorSubtle,
	strength.Weak:     colorError,
	strength.Medium:   colorSpecial,
	strength.Strong:   colorSuccess,
}
