/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inboxbrief/internal/config"
	"inboxbrief/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inboxbrief",
		Short: "Inboxbrief turns newsletter mail into a daily intelligence brief.",
		Long: `Inboxbrief reads newsletters from a Gmail label or IMAP mailbox, summarizes
each one with Gemini, groups the summaries by theme and prepends a formatted
brief to a Google Doc, a markdown file or the terminal.

Already-handled messages are remembered in a local SQLite ledger so a message
is summarized at most once.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.inboxbrief.yaml or $HOME/.inboxbrief.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewPreviewCmd())
	rootCmd.AddCommand(NewLedgerCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewScheduleCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings reads the configuration and points the logger at stderr so
// log lines never interleave with a brief printed to stdout.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	logger.ConfigureWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
	return cfg, nil
}
