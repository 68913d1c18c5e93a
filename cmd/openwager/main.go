// Command openwager runs a wagering exchange node: order intake, matching,
// position accounting, settlement and the commission pipeline.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "openwager",
	Short:         "openwager is a decentralised wagering exchange node",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(initCmd, runCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
