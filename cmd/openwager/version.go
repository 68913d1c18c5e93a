package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// overridden at build time with -ldflags.
var (
	cliVersion     = "v0.1.0+dev"
	cliVersionHash = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("openwager %s (%s) %s/%s\n",
			cliVersion, cliVersionHash, runtime.GOOS, runtime.GOARCH)
	},
}
