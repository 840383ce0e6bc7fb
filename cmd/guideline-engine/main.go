// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the guideline-engine CLI.
// Implements: prd001-ingestion, prd002-extraction, prd003-normalization,
//             prd004-synthesis, prd005-validation, prd006-audit-store,
//             prd007-rendering (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/guideline-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the guideline-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "guideline-engine",
	Short: "Distill clinical guidelines into cited, executable decision graphs",
	Long: `guideline-engine converts a line-numbered clinical guideline into a
machine-executable decision graph with exact provenance from every graph
element back to source line ranges.

Each pipeline stage is a subcommand: ingest, extract, normalize,
synthesize, render, and store. Synthesis and validation are fail-closed:
any invariant violation aborts artifact production entirely.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./guideline-engine.yaml or ~/.config/guideline-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("guideline-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "guideline-engine"))
		}
	}

	viper.SetEnvPrefix("GUIDELINE_ENGINE")
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
