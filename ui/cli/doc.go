// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Keepsake using Cobra.
// It loads configuration, opens the configured store and provides commands
// that delegate to the strength, state, snapshot, nav and db packages. CLI
// code should remain thin.
package cli
