// Package cli defines the Cobra commands for the intake CLI: initializing
// an intake file, validating it, and running a full analysis round trip
// against the intake server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Energy audit intake toolkit",
	Long: `Intake drives the ASHRAE Level 1 preliminary audit flow from the
command line: fill an intake file, upload supporting documents to object
storage, and submit the aggregate payload for analysis.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3003", "Intake server base URL")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
}
