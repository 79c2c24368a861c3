// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/toeirei/keepsake/internal/kv"
	"github.com/toeirei/keepsake/internal/logging"
	"github.com/toeirei/keepsake/internal/state"
)

// Run starts the interactive password form. Form settings are remembered in
// store; a nil store keeps them for this run only.
func Run(store kv.Store, opts ...tea.ProgramOption) error {
	prefs := state.New(store, PrefsKey, formPrefs{})
	defer func() {
		if err := prefs.Close(); err != nil {
			logging.Warnf("closing form settings: %v", err)
		}
	}()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(newFormModel(prefs), opts...).Run(); err != nil {
		return fmt.Errorf("TUI run error: %w", err)
	}
	return nil
}
