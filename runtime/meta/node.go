package meta

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/runic-lang/runic/runtime/schema"
)

// Annotated is the closed set of values that carry a metadata sidecar and can
// be registered under a key: constructed instances (*Node) and annotated
// scalars (*Scalar). The variant is decided at construction.
type Annotated interface {
	// Meta returns the value's metadata store.
	Meta() *Store
	// Parent returns the owning node, nil while detached.
	Parent() *Node

	setParent(p *Node) error
	registryFor(kind Kind) map[string]Annotated
	allowsTag(tag string) bool
}

// binding records that a field is an alias, so re-serialization emits a
// reference envelope instead of inlined data.
type binding struct {
	key  string
	kind Kind
}

// Node is a constructed instance of a generated type. It owns its field
// values; the parent pointer is a non-owning handle used only for scope
// lookup and registry bubbling. A node is attached at most once.
type Node struct {
	typ    *schema.Type
	fields map[string]interface{}
	meta   *Store
	refs   map[string]binding
	parent *Node

	// maps holds the key registries owned by this node: the standalone
	// registries of a detached subtree root, the scoped registry of a
	// scope-boundary node, and all registries of the tree root.
	maps map[Kind]map[string]Annotated

	// suspended counts nested validation calls that disabled metadata
	// allow-list enforcement. Meaningful on the tree root only.
	suspended int
}

// NewNode creates a detached instance of the given type. The type-level
// metadata allow-list is seeded as unset slots.
func NewNode(t *schema.Type) *Node {
	n := &Node{
		typ:    t,
		fields: make(map[string]interface{}),
		meta:   NewStore(),
		refs:   make(map[string]binding),
	}
	if allowed := t.EffectiveAllowedMeta(); len(allowed) > 0 {
		// a fresh store cannot mismatch
		_ = n.meta.Init(allowed)
	}
	return n
}

// Type returns the node's concrete type descriptor.
func (n *Node) Type() *schema.Type { return n.typ }

// Meta returns the node's metadata store.
func (n *Node) Meta() *Store { return n.meta }

// Parent returns the owning node, nil for a tree root.
func (n *Node) Parent() *Node { return n.parent }

// String identifies the node in diagnostics.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%p)", n.typ.Name, n)
}

// Field returns the current value of a declared field.
func (n *Node) Field(name string) (interface{}, bool) {
	v, ok := n.fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Get returns the current value of a field, nil when unset.
func (n *Node) Get(name string) interface{} {
	return n.fields[name]
}

// Set assigns a field value. Assigning a *Reference binds the field as an
// alias; assigning a plain value to a field that currently holds an alias
// drops the binding. Annotated values are attached: their parent handle is
// set and any standalone registries they accumulated merge into the visible
// registries, failing with ErrDuplicateKey on collision.
func (n *Node) Set(name string, value interface{}) error {
	if _, ok := n.typ.Field(name); !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, n.typ.Name, name)
	}

	if ref, ok := value.(*Reference); ok {
		return n.Bind(name, ref)
	}

	if _, bound := n.refs[name]; bound {
		delete(n.refs, name)
	}

	switch v := value.(type) {
	case Annotated:
		if err := v.setParent(n); err != nil {
			return err
		}
	case []interface{}:
		for _, item := range v {
			if a, ok := item.(Annotated); ok {
				if err := a.setParent(n); err != nil {
					return err
				}
			}
		}
	}

	n.fields[name] = value
	return nil
}

// SetMeta merges metadata tags, enforcing the allow-list.
func (n *Node) SetMeta(tags map[string]interface{}) error {
	return n.meta.Set(tags, true)
}

// InitMeta seeds the attachment-site allow-list (merged with the type-level
// one) as unset slots; fails with ErrAllowlistMismatch if the store already
// carries tags outside it.
func (n *Node) InitMeta(allowed []string) error {
	merged := append([]string{}, allowed...)
	merged = append(merged, n.typ.EffectiveAllowedMeta()...)
	return n.meta.Init(merged)
}

// Binding reports whether the field is bound as an alias and under which
// key.
func (n *Node) Binding(name string) (string, Kind, bool) {
	b, ok := n.refs[name]
	return b.key, b.kind, ok
}

// Aliased reports whether the field is currently bound as a reference alias.
func (n *Node) Aliased(name string) bool {
	_, ok := n.refs[name]
	return ok
}

func (n *Node) allowsTag(tag string) bool {
	if n.meta.Allows(tag) {
		return true
	}
	for _, t := range n.typ.EffectiveAllowedMeta() {
		if t == tag {
			return true
		}
	}
	return false
}

// root walks the parent chain to the tree root.
func (n *Node) root() *Node {
	c := n
	for c.parent != nil {
		c = c.parent
	}
	return c
}

// SuspendMetaChecks disables allow-list enforcement for the node's tree.
// Calls nest; each must be paired with ResumeMetaChecks.
func (n *Node) SuspendMetaChecks() {
	n.root().suspended++
}

// ResumeMetaChecks restores enforcement to its prior depth.
func (n *Node) ResumeMetaChecks() {
	r := n.root()
	if r.suspended > 0 {
		r.suspended--
	}
}

// ChecksEnabled reports whether metadata allow-list enforcement is active
// for the node's tree.
func (n *Node) ChecksEnabled() bool {
	return n.root().suspended == 0
}

func (n *Node) setParent(p *Node) error {
	if n.parent == p {
		return nil
	}
	if n.parent != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, n.typ.Name)
	}
	n.parent = p
	if len(n.maps) > 0 {
		maps := n.maps
		n.maps = nil
		return n.absorb(maps)
	}
	return nil
}

func (n *Node) mapFor(kind Kind) map[string]Annotated {
	if n.maps == nil {
		n.maps = make(map[Kind]map[string]Annotated)
	}
	m, ok := n.maps[kind]
	if !ok {
		m = make(map[string]Annotated)
		n.maps[kind] = m
	}
	return m
}

// registryFor returns the registry visible to this node for the kind:
// non-scoped kinds bubble to the tree root, scoped kinds stop at the nearest
// scope boundary (including self), falling back to the root when the path
// has no boundary.
func (n *Node) registryFor(kind Kind) map[string]Annotated {
	if kind == KindScoped {
		for c := n; c != nil; c = c.parent {
			if c.typ.ScopeBoundary {
				return c.mapFor(kind)
			}
		}
	}
	return n.root().mapFor(kind)
}

// absorb merges standalone registries up the ancestor chain: scoped entries
// are retained by the first scope boundary on the path, everything else
// lands at the root. Collisions are hard errors.
func (n *Node) absorb(maps map[Kind]map[string]Annotated) error {
	if len(maps) == 0 {
		return nil
	}
	if p := n.parent; p != nil {
		var scoped map[string]Annotated
		if n.typ.ScopeBoundary {
			if m, ok := maps[KindScoped]; ok {
				scoped = m
				delete(maps, KindScoped)
			}
		}
		if err := p.absorb(maps); err != nil {
			return err
		}
		if scoped == nil {
			return nil
		}
		maps = map[Kind]map[string]Annotated{KindScoped: scoped}
	}

	for kind, incoming := range maps {
		local := n.mapFor(kind)
		keys := make([]string, 0, len(incoming))
		for key := range incoming {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if existing, dup := local[key]; dup && existing != incoming[key] {
				return fmt.Errorf("%w: %s key %q collides during subtree attach", ErrDuplicateKey, kind, key)
			}
		}
		for _, key := range keys {
			local[key] = incoming[key]
		}
	}
	return nil
}

// Snapshot returns a plain-value view of the node's fields: annotated
// scalars unwrap, nested nodes recurse, json numbers convert to float64.
// Unresolved placeholders and alias-bound fields are omitted — following
// an alias could walk a reference cycle. This is the environment handed to
// expression conditions.
func (n *Node) Snapshot() map[string]interface{} {
	out := make(map[string]interface{}, len(n.fields))
	for name, v := range n.fields {
		if v == nil || n.Aliased(name) {
			continue
		}
		if sv, ok := snapshotValue(v); ok {
			out[name] = sv
		}
	}
	return out
}

func snapshotValue(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case *Node:
		return x.Snapshot(), true
	case *Scalar:
		return plainValue(x.Value()), true
	case *Unresolved:
		return nil, false
	case []interface{}:
		items := make([]interface{}, 0, len(x))
		for _, item := range x {
			if sv, ok := snapshotValue(item); ok {
				items = append(items, sv)
			}
		}
		return items, true
	default:
		return plainValue(v), true
	}
}

func plainValue(v interface{}) interface{} {
	if num, ok := v.(json.Number); ok {
		if f, err := num.Float64(); err == nil {
			return f
		}
	}
	return v
}
