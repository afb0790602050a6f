package schema

// Record is the view of a constructed instance the structural validator and
// the condition engine operate on. *meta.Node implements it; keeping the
// interface here avoids a dependency of the descriptor layer on the runtime
// object model.
type Record interface {
	// Type returns the descriptor of the instance's concrete type.
	Type() *Type
	// Field returns the current value of a declared field. The second
	// return is false when the field was never set.
	Field(name string) (interface{}, bool)
}

// AliasRecord is implemented by records whose fields can be bound as
// reference aliases. An aliased field's target is validated at its own
// position in the tree; walkers skip the alias itself, which also keeps
// them off reference cycles (a reference may legally target its own
// ancestor).
type AliasRecord interface {
	Record
	Aliased(name string) bool
}

// Valuer is implemented by annotated scalar wrappers; Value returns the
// underlying plain value.
type Valuer interface {
	Value() interface{}
}

// Unwrap strips an annotated scalar wrapper, returning plain values as-is.
func Unwrap(v interface{}) interface{} {
	if av, ok := v.(Valuer); ok {
		return av.Value()
	}
	return v
}
