package meta

import "fmt"

// Scalar wraps a plain value that carries metadata: a coding-scheme tag, an
// identity key, or both. On the wire it appears as {"@data": v, ...tags};
// bare values are accepted on input for legacy documents.
type Scalar struct {
	value  interface{}
	meta   *Store
	parent *Node
	maps   map[Kind]map[string]Annotated
}

// NewScalar wraps a value with metadata tags. Tags are stored unchecked;
// enforcement against the attachment site's allow-list happens at InitMeta.
func NewScalar(value interface{}, tags map[string]interface{}) *Scalar {
	s := &Scalar{value: value, meta: NewStore()}
	_ = s.meta.Set(tags, false)
	return s
}

// Value returns the wrapped plain value.
func (s *Scalar) Value() interface{} { return s.value }

// Meta returns the scalar's metadata store.
func (s *Scalar) Meta() *Store { return s.meta }

// Parent returns the owning node, nil while detached.
func (s *Scalar) Parent() *Node { return s.parent }

// String identifies the scalar in diagnostics.
func (s *Scalar) String() string {
	return fmt.Sprintf("scalar(%v)", s.value)
}

// InitMeta seeds the attachment-site allow-list as unset slots.
func (s *Scalar) InitMeta(allowed []string) error {
	return s.meta.Init(allowed)
}

// SetMeta merges metadata tags, enforcing the allow-list.
func (s *Scalar) SetMeta(tags map[string]interface{}) error {
	return s.meta.Set(tags, true)
}

func (s *Scalar) allowsTag(tag string) bool {
	return s.meta.Allows(tag)
}

func (s *Scalar) setParent(p *Node) error {
	if s.parent == p {
		return nil
	}
	if s.parent != nil {
		return fmt.Errorf("%w: scalar", ErrAlreadyAttached)
	}
	s.parent = p
	if len(s.maps) > 0 {
		maps := s.maps
		s.maps = nil
		return p.absorb(maps)
	}
	return nil
}

func (s *Scalar) mapFor(kind Kind) map[string]Annotated {
	if s.maps == nil {
		s.maps = make(map[Kind]map[string]Annotated)
	}
	m, ok := s.maps[kind]
	if !ok {
		m = make(map[string]Annotated)
		s.maps[kind] = m
	}
	return m
}

// registryFor delegates to the owning node once attached; a detached scalar
// accumulates registrations locally until attachment merges them.
func (s *Scalar) registryFor(kind Kind) map[string]Annotated {
	if s.parent == nil {
		return s.mapFor(kind)
	}
	return s.parent.registryFor(kind)
}
