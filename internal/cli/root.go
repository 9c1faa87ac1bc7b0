package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uselens",
	Short: "Uselens - component usage analytics for SwiftPM codebases",
	Long: `Uselens catalogs the reusable components a codebase defines and measures
where they are actually used.

It resolves module topology from the build manifest, builds a per-module
symbol catalog through the completion oracle, scans source files for
declarations and call expressions, and aggregates per-symbol usage
records into .uselens/.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
