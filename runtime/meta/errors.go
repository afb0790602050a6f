package meta

import "errors"

var (
	// ErrMetadataNotAllowed is returned when a metadata tag outside the
	// value's allow-list is set with enforcement on.
	ErrMetadataNotAllowed = errors.New("metadata not allowed")

	// ErrAllowlistMismatch is returned when a store is re-initialized with
	// an allow-list that does not cover its existing tags.
	ErrAllowlistMismatch = errors.New("metadata allow-list mismatch")

	// ErrKeyConflict is returned when an external key is reassigned to a
	// different value.
	ErrKeyConflict = errors.New("key conflict")

	// ErrDuplicateKey is returned on a registry collision, including
	// collisions discovered while merging registries at subtree attach.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrReferenceKindNotAllowed is returned when a field is bound with a
	// reference kind it does not declare.
	ErrReferenceKindNotAllowed = errors.New("reference kind not allowed")

	// ErrTypeMismatch is returned when a reference target (or an explicit
	// @type tag) is not compatible with the declared field type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotAliasable is returned when a field's current value cannot be
	// replaced by a reference alias.
	ErrNotAliasable = errors.New("value is not aliasable")

	// ErrDanglingReference is returned when a reference's key is not
	// registered anywhere visible to it.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrAlreadyAttached is returned on an attempt to give a node a second
	// parent.
	ErrAlreadyAttached = errors.New("node is already attached")

	// ErrUnknownField is returned when an operation names a field the type
	// does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownKind is returned for an unrecognized key or reference tag.
	ErrUnknownKind = errors.New("unknown key kind")
)
