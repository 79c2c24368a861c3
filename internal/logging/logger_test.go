// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"strings"
	"testing"
)

// TestHelpers_WriteToBuffer swaps the package logger for a buffer-backed one
// and checks every helper reaches it.
func TestHelpers_WriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	defer func() { L = prev }()
	SetOutput(&buf)
	SetDebug(true)

	Debugf("hello %s", "dbg")
	Infof("info %d", 1)
	Warnf("warn")
	Errorf("err %v", "E")

	out := buf.String()
	for _, want := range []string{"hello dbg", "info 1", "warn", "err E", "keepsake"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output; got: %s", want, out)
		}
	}
}

func TestSetDebug_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	defer func() { L = prev }()
	SetOutput(&buf)
	SetDebug(false)

	if DebugEnabled() {
		t.Fatalf("debug should be disabled")
	}
	Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug message leaked at info level: %s", buf.String())
	}
	SetDebug(true)
	if !DebugEnabled() {
		t.Fatalf("debug should be enabled")
	}
}
