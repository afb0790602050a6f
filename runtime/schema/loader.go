package schema

import (
	"encoding/json"
	"fmt"
)

// The JSON schema payload is produced by the code generator alongside the
// generated classes. Tooling (the runic CLI in particular) loads it to obtain
// a populated type registry without linking the generated package.

type typeSpecJSON struct {
	Name          string      `json:"name"`
	Extends       string      `json:"extends,omitempty"`
	ScopeBoundary bool        `json:"scopeBoundary,omitempty"`
	AllowedMeta   []string    `json:"allowedMeta,omitempty"`
	Fields        []fieldJSON `json:"fields"`
	Conditions    []condJSON  `json:"conditions,omitempty"`
}

type fieldJSON struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	List        bool     `json:"list,omitempty"`
	Required    bool     `json:"required,omitempty"`
	MinOccurs   *int     `json:"minOccurs,omitempty"`
	MaxOccurs   *int     `json:"maxOccurs,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	AllowedMeta []string `json:"allowedMeta,omitempty"`
	AllowedRefs []string `json:"allowedRefs,omitempty"`
}

type condJSON struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

type schemaJSON struct {
	Model   string         `json:"model,omitempty"`
	Version string         `json:"version,omitempty"`
	Types   []typeSpecJSON `json:"types"`
}

// ExprCondition is a condition declared as an expression in the schema
// payload. The caller registers these into a conditions registry; returning
// them keeps the descriptor layer free of the evaluation dependency.
type ExprCondition struct {
	TypeName string
	Name     string
	Expr     string
}

// Manifest is the result of loading a schema payload.
type Manifest struct {
	Model      string
	Version    string
	Registry   *Registry
	Conditions []ExprCondition
}

// LoadJSON unmarshals a generated schema payload into a populated type
// registry plus the expression conditions it declares.
func LoadJSON(data []byte) (*Manifest, error) {
	var payload schemaJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	m := &Manifest{
		Model:    payload.Model,
		Version:  payload.Version,
		Registry: NewRegistry(),
	}

	for _, ts := range payload.Types {
		t, err := buildType(ts)
		if err != nil {
			return nil, err
		}
		if err := m.Registry.Register(t); err != nil {
			return nil, err
		}
		for _, c := range ts.Conditions {
			m.Conditions = append(m.Conditions, ExprCondition{
				TypeName: ts.Name,
				Name:     c.Name,
				Expr:     c.Expr,
			})
		}
	}

	if err := m.Registry.ValidateAll(); err != nil {
		return nil, err
	}
	return m, nil
}

func buildType(ts typeSpecJSON) (*Type, error) {
	if ts.Name == "" {
		return nil, fmt.Errorf("schema declares a type without a name")
	}
	t := NewType(ts.Name)
	t.Extends = ts.Extends
	t.ScopeBoundary = ts.ScopeBoundary
	t.AllowedMeta = ts.AllowedMeta

	for _, fs := range ts.Fields {
		f, err := buildField(ts.Name, fs)
		if err != nil {
			return nil, err
		}
		t.AddField(f)
	}
	return t, nil
}

func buildField(typeName string, fs fieldJSON) (*Field, error) {
	if fs.Name == "" {
		return nil, fmt.Errorf("type %s declares a field without a name", typeName)
	}

	base := ParseBaseType(fs.Type)
	spec := &TypeSpec{Base: base, List: fs.List}
	switch base {
	case TypeObject:
		spec.TypeName = fs.Type
	case TypeEnum:
		spec.TypeName = fs.Type
		spec.EnumValues = fs.Enum
	}

	f := &Field{
		Name:        fs.Name,
		Type:        spec,
		Required:    fs.Required,
		MaxOccurs:   -1,
		AllowedMeta: fs.AllowedMeta,
		AllowedRefs: fs.AllowedRefs,
	}
	if fs.MinOccurs != nil {
		f.MinOccurs = *fs.MinOccurs
	}
	if fs.MaxOccurs != nil {
		f.MaxOccurs = *fs.MaxOccurs
	}

	if fs.Min != nil {
		f.Constraints = append(f.Constraints, Constraint{Type: ConstraintMin, Value: *fs.Min})
	}
	if fs.Max != nil {
		f.Constraints = append(f.Constraints, Constraint{Type: ConstraintMax, Value: *fs.Max})
	}
	if fs.MinLength != nil {
		f.Constraints = append(f.Constraints, Constraint{Type: ConstraintMinLength, Value: *fs.MinLength})
	}
	if fs.MaxLength != nil {
		f.Constraints = append(f.Constraints, Constraint{Type: ConstraintMaxLength, Value: *fs.MaxLength})
	}
	if fs.Pattern != "" {
		f.Constraints = append(f.Constraints, Constraint{Type: ConstraintPattern, Value: fs.Pattern})
	}

	return f, nil
}
