// Package main provides the foreman CLI, a thin front over the project
// state store for shells and scripts. Agents talk to the same database
// through the library API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes: 1 for user errors (bad input, unknown ids), 2 for system
// errors (storage unavailable).
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagActor     string
	flagJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Foreman tracks project state in a single local database",
	Long: `Foreman stores epics, tasks, sprints, and versioned documents in one
SQLite file so multiple agents and people can work the same project plan
concurrently.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.foreman)")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "cli", "acting identity recorded in change history")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(epicCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(sprintCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
