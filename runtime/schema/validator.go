package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Validator is the structural validation collaborator consumed by the codec's
// validate-model entry point. Implementations check bounds, patterns,
// presence and cardinality; they never evaluate business-rule conditions.
type Validator interface {
	Validate(rec Record) []error
}

// ConstraintValidator is the default Validator. It walks the record tree and
// checks every declared field against its descriptor.
type ConstraintValidator struct{}

// NewConstraintValidator creates the default structural validator.
func NewConstraintValidator() *ConstraintValidator {
	return &ConstraintValidator{}
}

// Validate checks rec and its nested records, returning all violations as a
// single-element list wrapping a ValidationErrors collector.
func (v *ConstraintValidator) Validate(rec Record) []error {
	errs := NewValidationErrors()
	v.validateRecord(rec, "", errs)
	if errs.HasErrors() {
		return []error{errs}
	}
	return nil
}

func (v *ConstraintValidator) validateRecord(rec Record, path string, errs *ValidationErrors) {
	t := rec.Type()
	alias, _ := rec.(AliasRecord)
	for _, name := range t.EffectiveFieldOrder() {
		if alias != nil && alias.Aliased(name) {
			// the target validates at its own position
			continue
		}
		field, _ := t.Field(name)
		fieldPath := name
		if path != "" {
			fieldPath = path + "." + name
		}

		value, exists := rec.Field(name)
		if !exists || value == nil {
			if field.Required || field.MinOccurs > 0 {
				errs.Add(fieldPath, "is required")
			}
			continue
		}

		if field.Type.List {
			items, ok := value.([]interface{})
			if !ok {
				errs.Add(fieldPath, "expected a list")
				continue
			}
			v.validateCardinality(field, len(items), fieldPath, errs)
			for i, item := range items {
				v.validateValue(field, item, fmt.Sprintf("%s[%d]", fieldPath, i), errs)
			}
			continue
		}

		v.validateValue(field, value, fieldPath, errs)
	}
}

func (v *ConstraintValidator) validateCardinality(field *Field, n int, path string, errs *ValidationErrors) {
	if n < field.MinOccurs {
		errs.Add(path, fmt.Sprintf("expected at least %d element(s), got %d", field.MinOccurs, n))
	}
	if field.MaxOccurs >= 0 && n > field.MaxOccurs {
		errs.Add(path, fmt.Sprintf("expected at most %d element(s), got %d", field.MaxOccurs, n))
	}
}

func (v *ConstraintValidator) validateValue(field *Field, value interface{}, path string, errs *ValidationErrors) {
	if nested, ok := value.(Record); ok {
		v.validateRecord(nested, path, errs)
		return
	}

	plain := Unwrap(value)
	if plain == nil {
		return
	}

	switch field.Type.Base {
	case TypeEnum:
		v.validateEnum(field, plain, path, errs)
	default:
		for i := range field.Constraints {
			if err := v.checkConstraint(&field.Constraints[i], plain); err != nil {
				errs.Add(path, err.Error())
			}
		}
	}
}

func (v *ConstraintValidator) validateEnum(field *Field, value interface{}, path string, errs *ValidationErrors) {
	s, ok := value.(string)
	if !ok {
		errs.Add(path, fmt.Sprintf("expected an enum value, got %T", value))
		return
	}
	for _, legal := range field.Type.EnumValues {
		if s == legal {
			return
		}
	}
	errs.Add(path, fmt.Sprintf("%q is not a legal value of %s", s, field.Type.TypeName))
}

func (v *ConstraintValidator) checkConstraint(c *Constraint, value interface{}) error {
	switch c.Type {
	case ConstraintMin, ConstraintMax:
		return v.checkBound(c, value)
	case ConstraintMinLength, ConstraintMaxLength:
		return v.checkLength(c, value)
	case ConstraintPattern:
		return v.checkPattern(c, value)
	default:
		return nil
	}
}

func (v *ConstraintValidator) checkBound(c *Constraint, value interface{}) error {
	num, ok := toFloat(value)
	if !ok {
		return fmt.Errorf("expected a numeric value, got %T", value)
	}
	bound, ok := toFloat(c.Value)
	if !ok {
		return fmt.Errorf("invalid %s constraint", c.Type)
	}
	if c.Type == ConstraintMin && num < bound {
		return constraintError(c, fmt.Sprintf("must be at least %v", c.Value))
	}
	if c.Type == ConstraintMax && num > bound {
		return constraintError(c, fmt.Sprintf("must be at most %v", c.Value))
	}
	return nil
}

func (v *ConstraintValidator) checkLength(c *Constraint, value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected a string value, got %T", value)
	}
	bound, ok := toFloat(c.Value)
	if !ok {
		return fmt.Errorf("invalid %s constraint", c.Type)
	}
	n := len([]rune(s))
	if c.Type == ConstraintMinLength && float64(n) < bound {
		return constraintError(c, fmt.Sprintf("must be at least %v characters", c.Value))
	}
	if c.Type == ConstraintMaxLength && float64(n) > bound {
		return constraintError(c, fmt.Sprintf("must be at most %v characters", c.Value))
	}
	return nil
}

func (v *ConstraintValidator) checkPattern(c *Constraint, value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected a string value, got %T", value)
	}
	pattern, ok := c.Value.(*regexp.Regexp)
	if !ok {
		if patternStr, isStr := c.Value.(string); isStr {
			var err error
			pattern, err = regexp.Compile(patternStr)
			if err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}
		} else {
			return fmt.Errorf("invalid pattern constraint")
		}
	}
	if !pattern.MatchString(s) {
		return constraintError(c, fmt.Sprintf("must match pattern %s", pattern))
	}
	return nil
}

func constraintError(c *Constraint, fallback string) error {
	if c.ErrorMessage != "" {
		return fmt.Errorf("%s", c.ErrorMessage)
	}
	return fmt.Errorf("%s", fallback)
}

func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
