package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/runic-lang/runic/runtime/schema"
)

// Reference names a registered target for aliasing: assigning it to a field
// (or passing it to Bind) re-points the field at the target.
type Reference struct {
	Target Annotated
	Key    string
	Kind   Kind
}

// NewReference creates an internal reference to target, minting its key if
// absent.
func NewReference(target Annotated) (*Reference, error) {
	key, err := getOrCreateKey(target)
	if err != nil {
		return nil, err
	}
	return &Reference{Target: target, Key: key, Kind: KindInternal}, nil
}

// NewKeyedReference registers target under a caller-supplied external or
// scoped key and returns a reference to it. Assigning the key is idempotent.
func NewKeyedReference(target Annotated, key string, kind Kind) (*Reference, error) {
	if kind == KindInternal {
		return nil, fmt.Errorf("%w: caller-supplied keys must be external or scoped", ErrUnknownKind)
	}
	if err := setKeyedKey(target, key, kind); err != nil {
		return nil, err
	}
	return &Reference{Target: target, Key: key, Kind: kind}, nil
}

// ResolveKey resolves (kind, key) in the registry visible from scope. A miss
// is a dangling reference.
func ResolveKey(scope *Node, key string, kind Kind) (*Reference, error) {
	target, ok := lookup(scope, kind, key)
	if !ok {
		return nil, fmt.Errorf("%w: no %s key %q is visible", ErrDanglingReference, kind, key)
	}
	return &Reference{Target: target, Key: key, Kind: kind}, nil
}

// Unresolved is the transient placeholder a bare reference envelope
// deserializes to. The post-construction resolution pass replaces it with a
// live alias.
type Unresolved struct {
	Key  string
	Kind Kind
}

// UnresolvedFromEnvelope extracts a reference placeholder from a
// deserialized envelope. When several reference tags are present the most
// specific kind wins (scoped over external over internal); genuinely
// ambiguous envelopes are an error.
func UnresolvedFromEnvelope(envelope map[string]interface{}) (*Unresolved, error) {
	refs := make(map[string]string)
	for tag, v := range envelope {
		if !IsRefTag(tag) {
			continue
		}
		if key, ok := v.(string); ok && key != "" {
			refs[tag] = key
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}
	if len(refs) > 1 {
		delete(refs, KindInternal.RefTag())
	}
	if len(refs) > 1 {
		delete(refs, KindExternal.RefTag())
	}
	if len(refs) != 1 {
		tags := make([]string, 0, len(refs))
		for tag := range refs {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		return nil, fmt.Errorf("multiple references found: %v", tags)
	}
	for tag, key := range refs {
		kind, err := KindFromTag(tag)
		if err != nil {
			return nil, err
		}
		return &Unresolved{Key: key, Kind: kind}, nil
	}
	return nil, nil
}

// Resolve converts the placeholder into a live reference using the registry
// visible from scope.
func (u *Unresolved) Resolve(scope *Node) (*Reference, error) {
	return ResolveKey(scope, u.Key, u.Kind)
}

// Bind re-points the field at ref's target. Preconditions, checked in order:
// the field declares the reference's kind; the target's runtime type is
// compatible with the declared field type; and, unless the field is already
// an alias, its current value is itself eligible to become one. On success
// the binding is recorded so re-serialization emits a reference envelope.
func (n *Node) Bind(name string, ref *Reference) error {
	f, ok := n.typ.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, n.typ.Name, name)
	}

	refTag := ref.Kind.RefTag()
	if !f.AllowsRef(refTag) {
		return fmt.Errorf("%w: %s does not declare %s (allowed: %v)",
			ErrReferenceKindNotAllowed, name, refTag, f.AllowedRefs)
	}

	if f.Type.Base == schema.TypeObject {
		target, ok := ref.Target.(*Node)
		if !ok {
			return fmt.Errorf("%w: field %s expects %s, reference targets a scalar",
				ErrTypeMismatch, name, f.Type.TypeName)
		}
		if !typeNameInChain(target.typ, f.Type.TypeName) {
			return fmt.Errorf("%w: field %s expects %s, reference targets %s",
				ErrTypeMismatch, name, f.Type.TypeName, target.typ.Name)
		}
	} else {
		target, ok := ref.Target.(*Scalar)
		if !ok {
			return fmt.Errorf("%w: field %s expects a scalar value", ErrTypeMismatch, name)
		}
		if !scalarCompatible(f.Type.Base, target.Value()) {
			return fmt.Errorf("%w: field %s expects %s, reference targets %T",
				ErrTypeMismatch, name, f.Type.Base, target.Value())
		}
	}

	if _, bound := n.refs[name]; !bound {
		switch old := n.fields[name].(type) {
		case nil, *Unresolved, *Reference:
			// nothing to preserve
		case Annotated:
			if !old.allowsTag(refTag) {
				return fmt.Errorf("%w: current value of %s does not permit %s",
					ErrNotAliasable, name, refTag)
			}
		default:
			return fmt.Errorf("%w: field %s holds %T", ErrNotAliasable, name, old)
		}
	}

	n.fields[name] = ref.Target
	n.refs[name] = binding{key: ref.Key, kind: ref.Kind}
	return nil
}

// scalarCompatible checks a scalar target's wire value against the declared
// base type. Dates and times ride as strings.
func scalarCompatible(base schema.BaseType, v interface{}) bool {
	if v == nil {
		return true
	}
	switch base {
	case schema.TypeString, schema.TypeEnum, schema.TypeDate, schema.TypeTime, schema.TypeDateTime:
		_, ok := v.(string)
		return ok
	case schema.TypeBool:
		_, ok := v.(bool)
		return ok
	case schema.TypeInt, schema.TypeNumber:
		switch v.(type) {
		case json.Number, float64, float32, int, int32, int64:
			return true
		}
		return false
	default:
		return true
	}
}

func typeNameInChain(t *schema.Type, name string) bool {
	for c := t; c != nil; c = c.Parent() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ResolveReferences converts every unresolved placeholder in the tree into a
// live alias. With ignoreDangling set, lookup misses are left in place for a
// later pass (used mid-construction); otherwise a miss fails with
// ErrDanglingReference.
func ResolveReferences(n *Node, ignoreDangling, recurse bool) error {
	names := make([]string, 0, len(n.fields))
	for name := range n.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	if recurse {
		for _, name := range names {
			if _, bound := n.refs[name]; bound {
				continue
			}
			switch v := n.fields[name].(type) {
			case *Node:
				if err := ResolveReferences(v, ignoreDangling, recurse); err != nil {
					return err
				}
			case []interface{}:
				for _, item := range v {
					if child, ok := item.(*Node); ok {
						if err := ResolveReferences(child, ignoreDangling, recurse); err != nil {
							return err
						}
					}
				}
			}
		}
	}

	for _, name := range names {
		switch v := n.fields[name].(type) {
		case *Unresolved:
			ref, err := v.Resolve(n)
			if err != nil {
				if ignoreDangling && errors.Is(err, ErrDanglingReference) {
					continue
				}
				return fmt.Errorf("field %s: %w", name, err)
			}
			if err := n.Bind(name, ref); err != nil {
				return err
			}
		case *Reference:
			if err := n.Bind(name, v); err != nil {
				return err
			}
		case []interface{}:
			for _, item := range v {
				if u, ok := item.(*Unresolved); ok {
					return fmt.Errorf("%w: reference %q in list field %s cannot be bound",
						ErrNotAliasable, u.Key, name)
				}
			}
		}
	}
	return nil
}
