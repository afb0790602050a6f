package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runic-lang/runic/internal/cli/ui"
)

var (
	validateSchema  string
	validateType    string
	validateJSON    bool
	validateVerbose bool
)

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to the compiled schema payload")
	validateCmd.Flags().StringVar(&validateType, "type", "", "Fully-qualified root type of the document")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output violations in JSON format")
	validateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "Show runtime tracing")
}

var validateCmd = &cobra.Command{
	Use:   "validate <document.json>",
	Short: "Validate a document against the schema",
	Long: `Deserialize a JSON document, resolve its references, and report every
structural violation and failed business-rule condition.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, rootType, err := loadCodec(validateSchema, validateType, validateVerbose)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		root, err := c.DeserializeLenient(data, rootType)
		if err != nil {
			// the document never became a tree; nothing more to report
			return err
		}

		violations := c.ValidateModel(root, true)
		if len(violations) == 0 {
			if validateJSON {
				fmt.Println(`{"valid": true}`)
			} else {
				ui.PrintOK(os.Stdout, "%s is valid", args[0])
			}
			return nil
		}

		if validateJSON {
			outputViolationsJSON(violations)
		} else {
			ui.PrintViolations(os.Stderr, violations)
		}
		return fmt.Errorf("validation failed with %d violation(s)", len(violations))
	},
}

func outputViolationsJSON(violations []error) {
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Error())
	}
	output := struct {
		Valid      bool     `json:"valid"`
		Violations []string `json:"violations"`
	}{
		Valid:      false,
		Violations: messages,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}
