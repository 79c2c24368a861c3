// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/keepsake/internal/i18n"
	"github.com/toeirei/keepsake/internal/nav"
)

func navRules() nav.Rules {
	return nav.Rules{
		HiddenPrefixes: appConfig.Navigation.HiddenPrefixes,
		HiddenExact:    appConfig.Navigation.HiddenExact,
	}
}

func newNavCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "nav",
		Short:       "Inspect navigation visibility rules",
		Annotations: map[string]string{annotationNoStore: "true"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "visible <route>",
		Short: "Report whether the navigation bar is shown on a route",
		Long: `Checks a route against navigation.hidden_prefixes and
navigation.hidden_exact from the configuration.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			route := nav.Normalize(args[0])
			if nav.Visible(route, navRules()) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("nav.visible", route))
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("nav.hidden", route))
			}
		},
	})
	return cmd
}
