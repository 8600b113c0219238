// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// applyConfigDefaults overlays ~/.config/bs21/config.yaml and BS21_*
// environment variables onto flags the user left at their defaults.
// Precedence: flag > environment > config file > built-in default.
func applyConfigDefaults(cmd *cobra.Command) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "bs21"))
	}
	v.SetEnvPrefix("BS21")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// A missing config file just means built-in defaults.
	_ = v.ReadInConfig()

	flags := cmd.Flags()
	for _, name := range []string{"port", "baud", "url", "username", "no-ssl-verify", "timeout", "debug"} {
		if flags.Changed(name) || !v.IsSet(name) {
			continue
		}
		_ = flags.Set(name, v.GetString(name))
	}
}
