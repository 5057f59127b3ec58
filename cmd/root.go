package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seance",
	Short: "A run-once, assert-many test harness for simulated multi-party ledgers",
	Long: `Seance executes an effectful unit of work exactly once against a simulated
multi-party ledger and evaluates many declarative predicates against the single
captured record. Diagnostic reports and a JSON suite summary are emitted for
operators, with optional webhook delivery and report publishing.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
