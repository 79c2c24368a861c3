// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/toeirei/keepsake/internal/config"
	"github.com/toeirei/keepsake/internal/kv"
	"github.com/toeirei/keepsake/internal/logging"
)

// isolate points config discovery and the file store at a temp dir and
// returns the store path.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	storePath := filepath.Join(dir, "state.json")
	t.Setenv("KEEPSAKE_STORE_TYPE", "file")
	t.Setenv("KEEPSAKE_STORE_DSN", storePath)
	logging.SetOutput(io.Discard)
	t.Cleanup(func() {
		closeStore()
		logging.SetOutput(io.Discard)
	})
	return storePath
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	if args == nil {
		// A nil slice would make cobra fall back to os.Args.
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	// PersistentPostRun is skipped when the command fails.
	closeStore()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	if err != nil {
		t.Fatalf("%v: unexpected error: %v", args, err)
	}
	return out
}

func TestStrengthCmd_Argument(t *testing.T) {
	isolate(t)
	out := mustRun(t, "strength", "Abcdefg1!")
	if !strings.Contains(out, "Strong (3/3)") || !strings.Contains(out, "Strong password.") {
		t.Fatalf("unexpected output: %q", out)
	}

	out = mustRun(t, "strength", "abcdefgh")
	if !strings.Contains(out, "Weak (1/3)") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStrengthCmd_JSONFromStdin(t *testing.T) {
	isolate(t)
	out, err := run(t, "abc\n", "strength", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rep strengthReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, out)
	}
	if rep.Level != 0 || rep.Name != "too_short" || rep.Max != 3 || rep.Advisory != "" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestStateCmd_SetGetListDelete(t *testing.T) {
	isolate(t)

	mustRun(t, "state", "set", "prefs", `{"theme":"dark","count":2}`)
	mustRun(t, "state", "set", "draft", `"hello"`)

	out := mustRun(t, "state", "get", "prefs")
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("get output is not JSON: %v (%q)", err, out)
	}
	if got["theme"] != "dark" || got["count"] != float64(2) {
		t.Fatalf("unexpected value: %v", got)
	}

	out = mustRun(t, "state", "list")
	if out != "draft\nprefs\n" {
		t.Fatalf("unexpected key list: %q", out)
	}

	mustRun(t, "state", "delete", "draft")
	if _, err := run(t, "", "state", "get", "draft"); err == nil || !strings.Contains(err.Error(), "no value stored") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestStateCmd_SetRejectsInvalidJSON(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "state", "set", "k", "{not json")
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestStateCmd_ExportImport(t *testing.T) {
	storePath := isolate(t)
	mustRun(t, "state", "set", "a", `1`)
	mustRun(t, "state", "set", "b", `[true,null]`)

	snap := filepath.Join(filepath.Dir(storePath), "snap.zst")
	mustRun(t, "state", "export", snap)

	t.Setenv("KEEPSAKE_STORE_DSN", filepath.Join(filepath.Dir(storePath), "other.json"))
	out := mustRun(t, "state", "import", snap)
	if !strings.Contains(out, "imported 2 entries") {
		t.Fatalf("unexpected import output: %q", out)
	}
	if out := mustRun(t, "state", "get", "b"); !strings.Contains(out, "true") {
		t.Fatalf("imported value missing: %q", out)
	}
}

func TestNavCmd_Visible(t *testing.T) {
	isolate(t)
	cases := []struct {
		route string
		want  string
	}{
		{"/dashboard", "navigation visible on /dashboard"},
		{"/login", "navigation hidden on /login"},
		{"/auth/callback/", "navigation hidden on /auth/callback"},
		{"/authors", "navigation visible on /authors"},
		{"/reset-password", "navigation hidden on /reset-password"},
	}
	for _, c := range cases {
		out := mustRun(t, "nav", "visible", c.route)
		if strings.TrimSpace(out) != c.want {
			t.Fatalf("route %s: got %q want %q", c.route, out, c.want)
		}
	}
}

func TestDBMaintainCmd(t *testing.T) {
	storePath := isolate(t)
	if _, err := run(t, "", "db-maintain"); err == nil || !strings.Contains(err.Error(), "only available for sql stores") {
		t.Fatalf("expected unsupported error for file store, got %v", err)
	}

	t.Setenv("KEEPSAKE_STORE_TYPE", "sqlite")
	t.Setenv("KEEPSAKE_STORE_DSN", filepath.Join(filepath.Dir(storePath), "state.db"))
	mustRun(t, "state", "set", "k", `"v"`)
	out := mustRun(t, "db-maintain", "--skip-integrity")
	if !strings.Contains(out, "Maintenance completed successfully") {
		t.Fatalf("unexpected output: %q", out)
	}
	if out := mustRun(t, "state", "get", "k"); !strings.Contains(out, `"v"`) {
		t.Fatalf("value lost after maintenance: %q", out)
	}
}

func TestRootCmd_LaunchesTUIWithStore(t *testing.T) {
	isolate(t)
	orig := runTUI
	defer func() { runTUI = orig }()

	var got kv.Store
	runTUI = func(s kv.Store, _ ...tea.ProgramOption) error {
		got = s
		return nil
	}
	mustRun(t)
	if got == nil {
		t.Fatalf("expected the TUI to receive the opened store")
	}
}

func TestRootCmd_UnknownStoreType(t *testing.T) {
	isolate(t)
	t.Setenv("KEEPSAKE_STORE_TYPE", "redis")
	if _, err := run(t, "", "state", "list"); err == nil || !strings.Contains(err.Error(), "could not open the redis store") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	isolate(t)
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "version: ") || !strings.Contains(out, "commit: ") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

type failingCloseFile struct {
	bytes.Buffer
}

func (f *failingCloseFile) Close() error { return errors.New("disk full") }

func TestStateCmd_ExportReportsCloseError(t *testing.T) {
	isolate(t)
	mustRun(t, "state", "set", "a", `1`)

	orig := createSnapshotFile
	defer func() { createSnapshotFile = orig }()
	createSnapshotFile = func(string) (io.WriteCloser, error) { return &failingCloseFile{}, nil }

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"state", "export", "snap.zst"})
	err := root.Execute()
	closeStore()
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected close error to fail the export, got %v", err)
	}
	if strings.Contains(errOut.String(), "exported") {
		t.Fatalf("must not report success when close fails: %q", errOut.String())
	}
}

func TestFirstRun_PureCommandsDoNotWriteConfig(t *testing.T) {
	isolate(t)
	cfgPath, err := config.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath: %v", err)
	}

	mustRun(t, "strength", "abcdefgh")
	mustRun(t, "nav", "visible", "/home")
	if _, err := os.Stat(cfgPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pure commands must not write %s (stat err=%v)", cfgPath, err)
	}

	mustRun(t, "state", "list")
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected default config after opening the store: %v", err)
	}
}
