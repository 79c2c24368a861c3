// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/toeirei/keepsake/internal/i18n"
	"github.com/toeirei/keepsake/internal/kv"
	"github.com/toeirei/keepsake/internal/snapshot"
	"github.com/toeirei/keepsake/internal/state"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Read and write persisted state in the configured store",
	}
	cmd.AddCommand(
		newStateGetCmd(),
		newStateSetCmd(),
		newStateDeleteCmd(),
		newStateListCmd(),
		newStateExportCmd(),
		newStateImportCmd(),
	)
	return cmd
}

// stateErrors collects what a Persisted reports instead of only logging it.
type stateErrors struct {
	load  error
	write error
}

func (r *stateErrors) handle(e *state.Error) {
	switch e.Op {
	case state.OpRead, state.OpDecode:
		if r.load == nil {
			r.load = e
		}
	default:
		if r.write == nil {
			r.write = e
		}
	}
}

// openRaw opens key as raw JSON with errors collected in the returned
// recorder. Write errors are only complete after Close.
func openRaw(key string) (*state.Persisted[json.RawMessage], *stateErrors) {
	rec := &stateErrors{}
	p := state.New[json.RawMessage](appStore, key, nil, state.WithErrorHandler(rec.handle))
	return p, rec
}

func newStateGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the JSON value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, errs := openRaw(args[0])
			defer func() { _ = p.Close() }()
			if errs.load != nil {
				return errs.load
			}
			raw := p.Get()
			if raw == nil {
				return errors.New(i18n.T("state.not_found", args[0]))
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return err
			}
			buf.WriteByte('\n')
			_, err := buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func newStateSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a JSON value under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], []byte(args[1])
			var probe any
			if err := json.Unmarshal(value, &probe); err != nil {
				return errors.New(i18n.T("state.error_invalid_json", key, err))
			}

			p, errs := openRaw(key)
			if !p.Persistent() {
				return kv.ErrUnavailable
			}
			// A value that no longer decodes is simply overwritten.
			p.Set(json.RawMessage(value))
			// Close waits for the write-through, so its outcome is known here.
			if err := p.Close(); err != nil {
				return err
			}
			if errs.write != nil {
				return errs.write
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("state.saved", key))
			return nil
		},
	}
}

func newStateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := appStore.(kv.Deleter)
			if !ok {
				return errors.New(i18n.T("state.error_unsupported", "delete"))
			}
			if err := d.Delete(args[0]); err != nil {
				if errors.Is(err, errors.ErrUnsupported) {
					return errors.New(i18n.T("state.error_unsupported", "delete"))
				}
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("state.deleted", args[0]))
			return nil
		},
	}
}

func listStore() (snapshot.ListStore, error) {
	ls, ok := appStore.(snapshot.ListStore)
	if !ok {
		return nil, errors.New(i18n.T("state.error_unsupported", "list"))
	}
	return ls, nil
}

func newStateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := listStore()
			if err != nil {
				return err
			}
			keys, err := ls.Keys()
			if err != nil {
				if errors.Is(err, errors.ErrUnsupported) {
					return errors.New(i18n.T("state.error_unsupported", "list"))
				}
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range keys {
				_, _ = fmt.Fprintln(out, k)
			}
			return nil
		},
	}
}

// createSnapshotFile is swapped out by tests.
var createSnapshotFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func newStateExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a compressed snapshot of the store",
		Long:  `Writes every entry as Zstandard-compressed JSON to file, or to standard output when no file (or "-") is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := listStore()
			if err != nil {
				return err
			}

			target := "-"
			if len(args) == 1 {
				target = args[0]
			}

			if target == "-" {
				_, err := snapshot.Export(ls, cmd.OutOrStdout())
				return err
			}

			f, err := createSnapshotFile(target)
			if err != nil {
				return fmt.Errorf("could not create snapshot file: %w", err)
			}
			n, err := snapshot.Export(ls, f)
			if err != nil {
				_ = f.Close()
				return err
			}
			// A failed close can mean a truncated snapshot.
			if err := f.Close(); err != nil {
				return fmt.Errorf("could not write snapshot file: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("state.exported", n, target))
			return nil
		},
	}
}

func newStateImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a snapshot into the store",
		Long:  `Sets every entry of a snapshot written by "state export". Existing keys are overwritten.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("could not open snapshot file: %w", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			n, err := snapshot.Import(r, appStore)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("state.imported", n, args[0]))
			return nil
		},
	}
}
