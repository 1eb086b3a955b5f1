// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the libgrab CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the libgrab CLI.
var rootCmd = &cobra.Command{
	Use:   "libgrab",
	Short: "Search a mirrored document index and download book files",
	Long: `libgrab searches a scraped public document index for digital book files,
filters and ranks the results under a configurable preference policy, and
downloads the best match through the first working mirror.

Use "get" for a single query, "search" to inspect results without
downloading, "shell" for an interactive session over many queries, and
"history" to review past downloads.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./libgrab.yaml or ~/.config/libgrab/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "books", "directory for downloaded files")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request timeout (default 60s)")

	// Credential sources, one at a time.
	rootCmd.PersistentFlags().String("account-id", "", "index account id cookie value")
	rootCmd.PersistentFlags().String("auth", "", "path to JSON file of authentication headers")
	rootCmd.PersistentFlags().String("curl", "", "path to file containing a curl command with authentication")
	rootCmd.MarkFlagsMutuallyExclusive("account-id", "auth", "curl")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("libgrab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "libgrab"))
		}
	}

	viper.SetEnvPrefix("LIBGRAB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
