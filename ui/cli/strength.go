// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/keepsake/internal/i18n"
	"github.com/toeirei/keepsake/internal/strength"
	"golang.org/x/term"
)

// strengthReport is the --json output of the strength command.
type strengthReport struct {
	Level    int    `json:"level"`
	Name     string `json:"name"`
	Max      int    `json:"max"`
	Advisory string `json:"advisory"`
}

func newStrengthCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "strength [password]",
		Short: "Rate the strength of a password",
		Long: `Rates a password on a scale from 0 (too short) to 3 (strong).
Without an argument the password is read from the terminal without echo,
or as a single line from standard input when it is piped.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var candidate string
			if len(args) == 1 {
				candidate = args[0]
			} else {
				pw, err := readPassword(cmd)
				if err != nil {
					return fmt.Errorf("could not read password: %w", err)
				}
				candidate = pw
			}

			res := strength.Classify(candidate)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				return enc.Encode(strengthReport{
					Level:    int(res.Level),
					Name:     res.Level.String(),
					Max:      int(strength.MaxLevel),
					Advisory: res.Advisory,
				})
			}

			label := i18n.T("strength.level." + res.Level.String())
			_, _ = fmt.Fprintln(out, i18n.T("strength.cli_result", label, int(res.Level), int(strength.MaxLevel)))
			if res.Level != strength.TooShort {
				_, _ = fmt.Fprintln(out, i18n.T("strength.advisory."+res.Level.String()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line from the command's input.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), i18n.T("strength.prompt"))
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
