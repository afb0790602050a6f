package meta

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// register adds (kind, key) -> target to the registry visible from target.
// Registering the same pair twice for the same target is a no-op; any other
// collision is a hard error.
func register(target Annotated, kind Kind, key string) error {
	m := target.registryFor(kind)
	if existing, ok := m[key]; ok {
		if existing == target {
			return nil
		}
		return fmt.Errorf("%w: %s key %q is already registered", ErrDuplicateKey, kind, key)
	}
	m[key] = target
	return nil
}

// lookup resolves (kind, key) in the registry visible from scope.
func lookup(scope *Node, kind Kind, key string) (Annotated, bool) {
	target, ok := scope.registryFor(kind)[key]
	return target, ok
}

// getOrCreateKey returns the target's internal key, minting and registering
// one if absent. The minted key is rolled back if registration fails, so no
// partial state survives.
func getOrCreateKey(target Annotated) (string, error) {
	tag := KindInternal.KeyTag()
	if v, ok := target.Meta().Get(tag); ok {
		return v.(string), nil
	}
	key := uuid.NewString()
	if err := target.Meta().Set(map[string]interface{}{tag: key}, true); err != nil {
		return "", err
	}
	if err := register(target, KindInternal, key); err != nil {
		target.Meta().put(tag, nil)
		return "", err
	}
	return key, nil
}

// setKeyedKey registers target under a caller-supplied key of the given
// kind. Re-assignment of the same key is a no-op; a different key fails with
// ErrKeyConflict.
func setKeyedKey(target Annotated, key string, kind Kind) error {
	tag := kind.KeyTag()
	if existing, ok := target.Meta().Get(tag); ok {
		if existing == key {
			return nil
		}
		return fmt.Errorf("%w: already keyed as %v, cannot change to %q", ErrKeyConflict, existing, key)
	}
	if err := target.Meta().Set(map[string]interface{}{tag: key}, true); err != nil {
		return err
	}
	if err := register(target, kind, key); err != nil {
		target.Meta().put(tag, nil)
		return err
	}
	return nil
}

// registerEnvelopeKeys registers every truthy identity tag of a deserialized
// envelope in the registries visible from target.
func registerEnvelopeKeys(target Annotated, envelope map[string]interface{}) error {
	tags := make([]string, 0, len(envelope))
	for tag := range envelope {
		if IsKeyTag(tag) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	for _, tag := range tags {
		key, ok := envelope[tag].(string)
		if !ok || key == "" {
			continue
		}
		kind, err := KindFromTag(tag)
		if err != nil {
			return err
		}
		if err := register(target, kind, key); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreateKey returns the node's internal key, minting one if absent.
func (n *Node) GetOrCreateKey() (string, error) {
	return getOrCreateKey(n)
}

// SetExternalKey registers the node under a caller-supplied external or
// scoped key.
func (n *Node) SetExternalKey(key string, kind Kind) error {
	return setKeyedKey(n, key, kind)
}

// RegisterKeys registers the identity tags of a deserialized envelope.
func (n *Node) RegisterKeys(envelope map[string]interface{}) error {
	return registerEnvelopeKeys(n, envelope)
}

// GetOrCreateKey returns the scalar's internal key, minting one if absent.
func (s *Scalar) GetOrCreateKey() (string, error) {
	return getOrCreateKey(s)
}

// SetExternalKey registers the scalar under a caller-supplied external or
// scoped key.
func (s *Scalar) SetExternalKey(key string, kind Kind) error {
	return setKeyedKey(s, key, kind)
}

// RegisterKeys registers the identity tags of a deserialized envelope.
func (s *Scalar) RegisterKeys(envelope map[string]interface{}) error {
	return registerEnvelopeKeys(s, envelope)
}
