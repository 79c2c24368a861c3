// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Keepsake.
//
// Usage:
//
//	go run . [flags]
//	./keepsake [flags]
//
// This launches the Keepsake CLI. See --help for options.
package main

import (
	"os"

	"github.com/toeirei/keepsake/internal/logging"
	"github.com/toeirei/keepsake/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("keepsake: %v", err)
		os.Exit(1)
	}
}
