package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/runic-lang/runic/internal/cli/config"
	"github.com/runic-lang/runic/runtime/schema"
)

var typesSchema string

func init() {
	typesCmd.Flags().StringVar(&typesSchema, "schema", "", "Path to the compiled schema payload")
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the types declared by the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path := typesSchema
		if path == "" {
			path = cfg.Schema.Path
		}
		if path == "" {
			return fmt.Errorf("no schema given - pass --schema or set schema.path in runic.yml")
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read schema %s: %w", path, err)
		}
		manifest, err := schema.LoadJSON(data)
		if err != nil {
			return err
		}

		names := manifest.Registry.List()
		sort.Strings(names)
		for _, name := range names {
			t, _ := manifest.Registry.Get(name)
			line := name
			if t.Extends != "" {
				line += " extends " + t.Extends
			}
			if t.ScopeBoundary {
				line += " [scope]"
			}
			fmt.Println(line)
		}
		fmt.Printf("\n%d type(s)\n", manifest.Registry.Count())
		return nil
	},
}
