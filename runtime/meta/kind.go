// Package meta implements the identity and annotation runtime carried by
// constructed model instances: per-value metadata sidecars, key registries
// with scoped visibility, and reference binding with deferred resolution.
package meta

import (
	"fmt"
	"strings"
)

// Kind classifies a key or reference.
type Kind int

const (
	// KindInternal keys are runtime-minted identifiers.
	KindInternal Kind = iota
	// KindExternal keys are caller-supplied and idempotently settable.
	KindExternal
	// KindScoped keys are unique only within the nearest enclosing
	// scope-boundary subtree.
	KindScoped
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindExternal:
		return "external"
	case KindScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// KeyTag returns the reserved identity tag for the kind as it appears on the
// wire ("@key", "@key:external", "@key:scoped").
func (k Kind) KeyTag() string {
	if k == KindInternal {
		return "@key"
	}
	return "@key:" + k.String()
}

// RefTag returns the reserved reference tag for the kind ("@ref",
// "@ref:external", "@ref:scoped").
func (k Kind) RefTag() string {
	if k == KindInternal {
		return "@ref"
	}
	return "@ref:" + k.String()
}

// KindFromTag derives the kind from a key or reference tag. A tag without a
// kind suffix is internal.
func KindFromTag(tag string) (Kind, error) {
	parts := strings.SplitN(tag, ":", 2)
	if len(parts) == 1 {
		return KindInternal, nil
	}
	switch parts[1] {
	case "internal":
		return KindInternal, nil
	case "external":
		return KindExternal, nil
	case "scoped":
		return KindScoped, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, tag)
	}
}

// IsKeyTag reports whether tag is one of the reserved identity tags.
func IsKeyTag(tag string) bool {
	return strings.HasPrefix(tag, "@key")
}

// IsRefTag reports whether tag is one of the reserved reference tags.
func IsRefTag(tag string) bool {
	return strings.HasPrefix(tag, "@ref")
}
