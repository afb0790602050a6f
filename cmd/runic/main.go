package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// overridden via -ldflags on release builds
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "runic",
		Short: "Runic model runtime tooling",
		Long: `Runic tooling for generated data models: validate JSON documents against
a compiled schema, inspect registered types, and round-trip documents to
verify that keys and references survive serialization.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(roundtripCmd)
	rootCmd.AddCommand(typesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
