package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the runic version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("runic %s (%s, built %s, %s)\n", Version, GitCommit, BuildDate, goVersion())
	},
}

func goVersion() string {
	if GoVersion != "unknown" {
		return GoVersion
	}
	return runtime.Version()
}
