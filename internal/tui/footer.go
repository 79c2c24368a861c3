// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// footerWidth is the usable width inside the dialog box.
const footerWidth = 58

// AlignFooter returns a single line with left at the start and right
// right-aligned within width columns. Styled strings are measured by their
// visible width. If width is too small a single space separates them.
func AlignFooter(left, right string, width int) string {
	spaces := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}
