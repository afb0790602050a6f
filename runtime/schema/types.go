// Package schema provides the build-time type descriptors consumed by the
// Runic runtime. The code generator emits one Type per modeled class; the
// runtime resolves `@type` tags, allowed metadata and reference kinds, and
// structural constraints against these descriptors rather than reflecting
// over generated structs.
package schema

import "fmt"

// BaseType represents the built-in primitive types of the modeling language.
type BaseType int

const (
	TypeString BaseType = iota
	TypeInt
	TypeNumber
	TypeBool
	TypeDate
	TypeTime
	TypeDateTime
	TypeEnum
	TypeObject
)

// String returns the string representation of the base type.
func (b BaseType) String() string {
	switch b {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeDateTime:
		return "datetime"
	case TypeEnum:
		return "enum"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParseBaseType converts a string to a BaseType. Any name that is not a
// built-in primitive is treated as an object type reference.
func ParseBaseType(s string) BaseType {
	switch s {
	case "string":
		return TypeString
	case "int":
		return TypeInt
	case "number":
		return TypeNumber
	case "bool":
		return TypeBool
	case "date":
		return TypeDate
	case "time":
		return TypeTime
	case "datetime":
		return TypeDateTime
	case "enum":
		return TypeEnum
	default:
		return TypeObject
	}
}

// TypeSpec is a complete field type specification.
type TypeSpec struct {
	Base BaseType
	// TypeName is the fully-qualified declared type for TypeObject fields
	// and the enum name for TypeEnum fields.
	TypeName string
	// List marks a multi-occurrence field.
	List bool
	// EnumValues holds the legal values of a TypeEnum field.
	EnumValues []string
}

// String returns a readable representation of the type spec.
func (t *TypeSpec) String() string {
	s := t.Base.String()
	if t.Base == TypeObject || t.Base == TypeEnum {
		s = t.TypeName
	}
	if t.List {
		s = fmt.Sprintf("list<%s>", s)
	}
	return s
}

// IsNumeric returns true for int and number fields.
func (t *TypeSpec) IsNumeric() bool {
	return t.Base == TypeInt || t.Base == TypeNumber
}

// ConstraintType represents the kind of a field constraint.
type ConstraintType int

const (
	ConstraintMin ConstraintType = iota
	ConstraintMax
	ConstraintMinLength
	ConstraintMaxLength
	ConstraintPattern
)

// String returns the string representation of the constraint type.
func (c ConstraintType) String() string {
	switch c {
	case ConstraintMin:
		return "min"
	case ConstraintMax:
		return "max"
	case ConstraintMinLength:
		return "min_length"
	case ConstraintMaxLength:
		return "max_length"
	case ConstraintPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Constraint is a structural constraint on a field value.
type Constraint struct {
	Type         ConstraintType
	Value        interface{}
	ErrorMessage string
}

// Field describes one declared field of a modeled type.
type Field struct {
	Name     string
	Type     *TypeSpec
	Required bool

	// Cardinality for list fields. MaxOccurs < 0 means unbounded.
	MinOccurs int
	MaxOccurs int

	Constraints []Constraint

	// AllowedMeta lists the reserved tags permitted on this field's value
	// (e.g. "@key", "@scheme"). Empty means the value carries no metadata.
	AllowedMeta []string

	// AllowedRefs lists the reference tags this field may be re-pointed
	// with (e.g. "@ref", "@ref:external").
	AllowedRefs []string
}

// Annotated reports whether values of this field carry a metadata sidecar.
func (f *Field) Annotated() bool {
	return len(f.AllowedMeta) > 0 || len(f.AllowedRefs) > 0
}

// AllowsRef reports whether the field declares the given reference tag.
func (f *Field) AllowsRef(tag string) bool {
	for _, t := range f.AllowedRefs {
		if t == tag {
			return true
		}
	}
	return false
}

// Type is the complete descriptor for one modeled type.
type Type struct {
	// Name is the fully-qualified type name, e.g. "model.trade.CashFlow".
	Name string

	// Extends names the direct ancestor type, empty for root types.
	Extends string

	// ScopeBoundary marks a type whose subtree owns its own registry for
	// scoped keys.
	ScopeBoundary bool

	// AllowedMeta is the type-level metadata allow-list, merged with the
	// per-field allow-list at attachment time.
	AllowedMeta []string

	Fields     map[string]*Field
	FieldOrder []string

	parent *Type
}

// NewType creates an empty type descriptor.
func NewType(name string) *Type {
	return &Type{
		Name:   name,
		Fields: make(map[string]*Field),
	}
}

// AddField appends a field, preserving declaration order.
func (t *Type) AddField(f *Field) *Type {
	t.Fields[f.Name] = f
	t.FieldOrder = append(t.FieldOrder, f.Name)
	return t
}

// Parent returns the resolved ancestor descriptor, nil for root types.
func (t *Type) Parent() *Type {
	return t.parent
}

// IsSubtypeOf reports whether t equals other or descends from it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for c := t; c != nil; c = c.parent {
		if c.Name == other.Name {
			return true
		}
	}
	return false
}

// AncestorChain returns the inheritance chain from the most distant ancestor
// down to t itself.
func (t *Type) AncestorChain() []*Type {
	var chain []*Type
	for c := t; c != nil; c = c.parent {
		chain = append([]*Type{c}, chain...)
	}
	return chain
}

// Field returns the descriptor for a field declared on t or an ancestor.
func (t *Type) Field(name string) (*Field, bool) {
	for c := t; c != nil; c = c.parent {
		if f, ok := c.Fields[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// EffectiveAllowedMeta returns the type-level metadata allow-list including
// tags declared by ancestors.
func (t *Type) EffectiveAllowedMeta() []string {
	var tags []string
	for _, c := range t.AncestorChain() {
		tags = append(tags, c.AllowedMeta...)
	}
	return tags
}

// EffectiveFieldOrder returns the declaration order of all fields, ancestors
// first.
func (t *Type) EffectiveFieldOrder() []string {
	var order []string
	for _, c := range t.AncestorChain() {
		order = append(order, c.FieldOrder...)
	}
	return order
}
