package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	roundtripSchema  string
	roundtripType    string
	roundtripVerbose bool
)

func init() {
	roundtripCmd.Flags().StringVar(&roundtripSchema, "schema", "", "Path to the compiled schema payload")
	roundtripCmd.Flags().StringVar(&roundtripType, "type", "", "Fully-qualified root type of the document")
	roundtripCmd.Flags().BoolVar(&roundtripVerbose, "verbose", false, "Show runtime tracing")
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <document.json>",
	Short: "Deserialize and re-serialize a document",
	Long: `Build the instance tree from a JSON document and print its canonical
serialization, verifying that keys, references, and metadata survive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, rootType, err := loadCodec(roundtripSchema, roundtripType, roundtripVerbose)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		root, err := c.Deserialize(data, rootType)
		if err != nil {
			return err
		}
		out, err := c.Serialize(root)
		if err != nil {
			return err
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, out, "", "  "); err != nil {
			return err
		}
		fmt.Println(pretty.String())
		return nil
	},
}
