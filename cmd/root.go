// Package cmd contains the mailroom CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mailroom",
	Short: "Storefront notification dispatch pipeline",
	Long: "Mailroom turns domain events into durably queued email jobs and " +
		"delivers them with retry and backoff. Run `serve` for the API role " +
		"and `work` for the delivery worker.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workCmd)
}
