// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and writes Keepsake configuration. Values come from
// defaults, keepsake.yaml in the user, system and working directories, an
// explicit --config file, KEEPSAKE_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Language   string           `mapstructure:"language" yaml:"language"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
}

// StoreConfig selects the durable store backing persisted state.
type StoreConfig struct {
	Type      string `mapstructure:"type" yaml:"type"`
	Dsn       string `mapstructure:"dsn" yaml:"dsn"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// NavigationConfig lists the routes on which the navigation bar is hidden.
type NavigationConfig struct {
	HiddenPrefixes []string `mapstructure:"hidden_prefixes" yaml:"hidden_prefixes"`
	HiddenExact    []string `mapstructure:"hidden_exact" yaml:"hidden_exact"`
}

// Defaults returns the built-in defaults keyed the way viper expects them.
func Defaults() map[string]any {
	dsn := "keepsake-state.json"
	if dir, err := os.UserConfigDir(); err == nil {
		dsn = filepath.Join(dir, "keepsake", "state.json")
	}
	return map[string]any{
		"store.type":                 "file",
		"store.dsn":                  dsn,
		"store.namespace":            "keepsake",
		"language":                   "en",
		"log.debug":                  false,
		"navigation.hidden_prefixes": []string{"/auth", "/login", "/signup"},
		"navigation.hidden_exact":    []string{"/reset-password"},
	}
}

// GetConfigPath returns the full path for the user or system configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Keepsake")
		default: // Linux, macOS, etc.
			configDir = "/etc/keepsake"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, "keepsake")
	}
	return filepath.Join(configDir, "keepsake.yaml"), nil
}

// IsNotFound reports whether err means no config file was found. It is
// expected on first run.
func IsNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

// LoadConfig resolves configuration into T. When no file exists the
// returned value is still populated from defaults, env and flags, and the
// error satisfies IsNotFound.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("keepsake")
	v.SetConfigType("yaml")
	// An explicit --config file wins over the search paths.
	if configFile != nil {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if !IsNotFound(err) {
			return c, err
		}
		notFound = err
	}

	v.SetEnvPrefix("keepsake")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, notFound
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

// WriteConfigFileTo writes c as YAML to path, creating parent directories.
func WriteConfigFileTo[T any](c *T, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	// 0600: the store DSN may contain credentials.
	return os.WriteFile(path, data, 0o600)
}
