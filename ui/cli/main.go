// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Keepsake using the
// Cobra library. It defines the root command, the shared setup that loads
// configuration and opens the store, and the version and maintenance
// subcommands.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/keepsake/buildvars"
	"github.com/toeirei/keepsake/internal/config"
	"github.com/toeirei/keepsake/internal/db"
	"github.com/toeirei/keepsake/internal/i18n"
	"github.com/toeirei/keepsake/internal/kv"
	"github.com/toeirei/keepsake/internal/logging"
	"github.com/toeirei/keepsake/internal/tui"
)

const modulePath = "github.com/toeirei/keepsake"

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var cfgFile string
var verbose bool

var appConfig config.Config

// appStore is the store opened by setupDefaultServices. Tests may set it
// beforehand to skip opening the configured one.
var appStore kv.Store

// runTUI is swapped out by tests.
var runTUI = tui.Run

// annotationNoStore marks commands that only need configuration. They do
// not open the store and do not write a default config file.
const annotationNoStore = "keepsake.no-store"

func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoStore] == "true" {
			return false
		}
	}
	return true
}

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, config.Defaults(), optionalConfigPath)
	// A "file not found" error is expected on first run.
	firstRun := config.IsNotFound(err)
	if err != nil && !firstRun {
		return fmt.Errorf("error loading config: %w", err)
	}

	debugOn := verbose || appConfig.Log.Debug
	logging.SetDebug(debugOn)
	db.SetDebug(debugOn)

	i18n.Init(appConfig.Language)

	if !needsStore(cmd) {
		return nil
	}

	if firstRun {
		writeDefaultConfig()
	}

	if appStore == nil {
		s, err := kv.Open(kv.Options{
			Type:      appConfig.Store.Type,
			DSN:       appConfig.Store.Dsn,
			Namespace: appConfig.Store.Namespace,
		})
		if err != nil {
			return errors.New(i18n.T("config.error_open_store", appConfig.Store.Type, err))
		}
		appStore = s
	}
	return nil
}

// writeDefaultConfig persists the effective configuration to the user
// config path so there is a file to edit. Failures only warn; the app runs
// on defaults.
func writeDefaultConfig() {
	if err := config.WriteConfigFile(&appConfig, false); err != nil {
		logging.Warnf("could not write default config file: %v", err)
		return
	}
	if path, err := config.GetConfigPath(false); err == nil {
		logging.Infof("%s", i18n.T("config.wrote_default", path))
	}
}

// closeStore releases the store opened for this invocation.
func closeStore() {
	if appStore == nil {
		return
	}
	if err := kv.Close(appStore); err != nil {
		logging.Errorf("error closing store: %v", err)
	}
	appStore = nil
}

// Execute runs the CLI entrypoint. The main package should call this
// function and handle process exit.
func Execute() error {
	defer closeStore()
	return NewRootCmd().Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// NewRootCmd may run several times in one process (tests), and pflag
	// panics on duplicate definitions.
	if cmd.PersistentFlags().Lookup("store.type") == nil {
		cmd.PersistentFlags().String("store.type", "", "Store type (memory, file, sqlite, postgres, mysql)")
	}
	if cmd.PersistentFlags().Lookup("store.dsn") == nil {
		cmd.PersistentFlags().String("store.dsn", "", "Store location: file path for file/sqlite, DSN for SQL servers")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keepsake",
		Short: "Keepsake keeps small pieces of UI state and rates passwords.",
		Long: `Keepsake is a local toolkit around two things: a password strength
classifier and persisted state mirrored into a durable key-value store
(a JSON file, SQLite, PostgreSQL or MySQL).

Running without a subcommand will launch the interactive sign-up form.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupDefaultServices,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeStore()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(appStore)
		},
	}
	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logs)")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "", `Language ("en", "de")`)
	applyDefaultFlags(cmd)

	cmd.AddCommand(
		newStrengthCmd(),
		newStateCmd(),
		newNavCmd(),
		newDBMaintainCmd(),
		newVersionCmd(),
	)
	return cmd
}

// newVersionCmd adds a lightweight `version` subcommand so users and CI can
// run `keepsake version` without a config or store.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		// Overrides the root hook: no config, no store.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "version: %s\n", v)
			_, _ = fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				_, _ = fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
		}
	}

	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// Some build paths only record our version among the dependencies.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == modulePath && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort show the commit passed via ldflags.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}

func isSQLStore(storeType string) bool {
	switch storeType {
	case "sqlite", "postgres", "mysql":
		return true
	}
	return false
}

// newDBMaintainCmd runs database maintenance tasks for the configured SQL store.
func newDBMaintainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db-maintain",
		Short: "Run database maintenance (VACUUM/OPTIMIZE) for the configured SQL store",
		Long:  `Runs engine-specific maintenance tasks (VACUUM, OPTIMIZE TABLE, PRAGMA optimize).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isSQLStore(appConfig.Store.Type) {
				return errors.New(i18n.T("db.maintain_unsupported", appConfig.Store.Type))
			}
			skipIntegrity, _ := cmd.Flags().GetBool("skip-integrity")
			timeoutSec, _ := cmd.Flags().GetInt("timeout")
			out := cmd.OutOrStdout()
			if skipIntegrity {
				_, _ = fmt.Fprintln(out, i18n.T("db.maintain_skip_integrity"))
			}
			opts := db.MaintenanceOptions{
				SkipIntegrity: skipIntegrity,
				Timeout:       time.Duration(timeoutSec) * time.Second,
			}
			if err := db.RunDBMaintenance(cmd.Context(), appConfig.Store.Type, appConfig.Store.Dsn, opts); err != nil {
				return errors.New(i18n.T("db.maintain_failed", err))
			}
			_, _ = fmt.Fprintln(out, i18n.T("db.maintain_done"))
			return nil
		},
	}
	cmd.Flags().Bool("skip-integrity", false, "Skip integrity_check (SQLite) during maintenance")
	cmd.Flags().Int("timeout", 0, "Timeout in seconds for maintenance (0 means the default of two minutes)")
	return cmd
}
