// Package ui renders CLI output: validation reports with severity colors and
// plain success lines.
package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/runic-lang/runic/runtime/conditions"
	"github.com/runic-lang/runic/runtime/schema"
)

var (
	okColor     = color.New(color.FgGreen, color.Bold)
	errColor    = color.New(color.FgRed, color.Bold)
	detailColor = color.New(color.FgRed)
	ruleColor   = color.New(color.FgYellow)
)

// PrintOK writes a green success line.
func PrintOK(w io.Writer, format string, args ...interface{}) {
	okColor.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintViolations renders a validation report. Structural violations list
// per-field messages; condition violations show the failed rule.
func PrintViolations(w io.Writer, violations []error) {
	errColor.Fprintf(w, "✗ %d violation(s):\n\n", len(violations))

	for _, violation := range violations {
		var structural *schema.ValidationErrors
		if errors.As(violation, &structural) {
			for field, messages := range structural.Fields {
				for _, msg := range messages {
					detailColor.Fprintf(w, "  %s: %s\n", field, msg)
				}
			}
			continue
		}

		var cond *conditions.Violation
		if errors.As(violation, &cond) {
			ruleColor.Fprintf(w, "  condition %s.%s failed", cond.TypeName, cond.Condition)
			if cond.Cause != nil {
				fmt.Fprintf(w, ": %s", cond.Cause)
			}
			fmt.Fprintln(w)
			continue
		}

		detailColor.Fprintf(w, "  %s\n", violation)
	}
}
