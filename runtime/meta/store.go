package meta

import (
	"fmt"
	"sort"
	"strings"
)

// Store is the per-value metadata sidecar: a mapping of reserved tag to
// value. A tag present with a nil value is an allowed-but-unset slot; it is
// omitted from wire output. The set of present keys doubles as the store's
// allow-list once initialized.
type Store struct {
	tags map[string]interface{}
}

// NewStore creates an empty metadata store.
func NewStore() *Store {
	return &Store{tags: make(map[string]interface{})}
}

// Set merges tags into the store. With enforce set, any tag outside the
// store's current allow-list fails with ErrMetadataNotAllowed and nothing is
// merged.
func (s *Store) Set(tags map[string]interface{}, enforce bool) error {
	if len(tags) == 0 {
		return nil
	}
	if enforce {
		var rejected []string
		for tag := range tags {
			if _, ok := s.tags[tag]; !ok {
				rejected = append(rejected, tag)
			}
		}
		if len(rejected) > 0 {
			sort.Strings(rejected)
			return fmt.Errorf("%w: %s", ErrMetadataNotAllowed, strings.Join(rejected, ", "))
		}
	}
	for tag, value := range tags {
		s.tags[tag] = value
	}
	return nil
}

// Get returns the value of a tag. Unset slots and unknown tags read as
// absent.
func (s *Store) Get(tag string) (interface{}, bool) {
	v, ok := s.tags[tag]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// put stores a single tag unchecked. Used for rollback paths.
func (s *Store) put(tag string, value interface{}) {
	s.tags[tag] = value
}

// Init seeds allowed tags as unset slots. It is idempotent; if the store
// already carries tags outside the allow-list, it fails with
// ErrAllowlistMismatch and leaves the store untouched.
func (s *Store) Init(allowed []string) error {
	allowedSet := make(map[string]bool, len(allowed))
	for _, tag := range allowed {
		allowedSet[tag] = true
	}
	var rejected []string
	for tag := range s.tags {
		if !allowedSet[tag] {
			rejected = append(rejected, tag)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return fmt.Errorf("%w: store already carries %s", ErrAllowlistMismatch, strings.Join(rejected, ", "))
	}
	for tag := range allowedSet {
		if _, ok := s.tags[tag]; !ok {
			s.tags[tag] = nil
		}
	}
	return nil
}

// Allows reports whether the tag is inside the store's current allow-list.
func (s *Store) Allows(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

// Envelope returns the tags carrying a truthy value, ready for wire output.
// Unset slots and empty strings are omitted.
func (s *Store) Envelope() map[string]interface{} {
	out := make(map[string]interface{})
	for tag, value := range s.tags {
		if value == nil {
			continue
		}
		if str, ok := value.(string); ok && str == "" {
			continue
		}
		out[tag] = value
	}
	return out
}
