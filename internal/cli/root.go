// Package cli defines the notemarket command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the build version, overridable at link time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "notemarketd",
	Short: "Wallet ledger and settlement backend for the notes marketplace",
	Long: `notemarketd runs the marketplace wallet backend: account balances,
the append-only transaction log, purchase settlement with commission splits,
and external payment reconciliation.`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notemarketd %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
