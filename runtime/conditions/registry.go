// Package conditions implements the named business-rule predicates evaluated
// over constructed model trees, independent of structural type checking.
//
// Predicates accumulate across the ancestor chain: conditions_for a type
// concatenates every ancestor's predicates base-to-derived with no
// de-duplication by name, so a subtype condition named like a base condition
// runs in addition to it. That mirrors the modeling language's current
// semantics; whether a subtype should instead override a same-named base rule
// is pending product-owner confirmation.
package conditions

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/runic-lang/runic/runtime/meta"
	"github.com/runic-lang/runic/runtime/schema"
)

// ErrConditionViolation is the sentinel wrapped by every Violation.
var ErrConditionViolation = errors.New("condition violated")

// Violation reports a named predicate that failed on a specific object.
type Violation struct {
	TypeName  string
	Condition string
	Object    string
	Cause     error
}

// Error implements the error interface.
func (v *Violation) Error() string {
	msg := fmt.Sprintf("condition %s.%s failed for %s", v.TypeName, v.Condition, v.Object)
	if v.Cause != nil {
		msg += ": " + v.Cause.Error()
	}
	return msg
}

// Unwrap makes the violation matchable with errors.Is(err, ErrConditionViolation).
func (v *Violation) Unwrap() error { return ErrConditionViolation }

// Predicate is a single business-rule check over an instance.
type Predicate func(n *meta.Node) (bool, error)

// condition pairs a predicate with its registered name.
type condition struct {
	name  string
	check Predicate
}

// Qualified is a predicate together with the type that declared it, as
// returned by ForType.
type Qualified struct {
	TypeName string
	Name     string
	Check    Predicate
}

// Registry is an append-only table of named predicates per declared type.
// It is populated at type-definition time and read on every validation pass;
// unsynchronized concurrent reads are safe once population completes.
type Registry struct {
	mu    sync.RWMutex
	conds map[string][]condition
	log   *zap.Logger
}

// NewRegistry creates an empty condition registry.
func NewRegistry() *Registry {
	return &Registry{
		conds: make(map[string][]condition),
		log:   zap.NewNop(),
	}
}

// SetLogger installs a logger for per-check tracing.
func (r *Registry) SetLogger(log *zap.Logger) {
	if log != nil {
		r.log = log
	}
}

// Register adds a predicate under (typeName, name). Registering the same
// pair twice is a build-time contract violation and fails.
func (r *Registry) Register(typeName, name string, check Predicate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conds[typeName] {
		if c.name == name {
			return fmt.Errorf("condition %s.%s is already registered", typeName, name)
		}
	}
	r.conds[typeName] = append(r.conds[typeName], condition{name: name, check: check})
	return nil
}

// ForType returns the predicates applicable to t: the ancestor chain is
// walked from the most distant ancestor down to t itself, concatenating each
// type's predicates. Same-named predicates from different ancestors all run.
func (r *Registry) ForType(t *schema.Type) []Qualified {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Qualified
	for _, ancestor := range t.AncestorChain() {
		for _, c := range r.conds[ancestor.Name] {
			out = append(out, Qualified{TypeName: ancestor.Name, Name: c.name, Check: c.check})
		}
	}
	return out
}

// Validate evaluates every predicate applicable to the node's type. With
// recursive set it descends into every field value: scalars and absent
// values are skipped, lists expand element-wise, nested nodes recurse.
// In collect mode all violations are accumulated and returned; otherwise
// evaluation stops at the first violation.
func (r *Registry) Validate(n *meta.Node, recursive, collect bool) []error {
	var violations []error

	t := n.Type()
	r.log.Debug("checking conditions", zap.String("object", n.String()))
	for _, q := range r.ForType(t) {
		ok, err := q.Check(n)
		if ok && err == nil {
			continue
		}
		v := &Violation{TypeName: q.TypeName, Condition: q.Name, Object: n.String(), Cause: err}
		r.log.Error("condition failed",
			zap.String("condition", q.TypeName+"."+q.Name),
			zap.String("object", n.String()))
		violations = append(violations, v)
		if !collect {
			return violations
		}
	}

	if recursive {
		for _, name := range t.EffectiveFieldOrder() {
			if n.Aliased(name) {
				// aliased fields validate at the target's own position
				continue
			}
			value, ok := n.Field(name)
			if !ok {
				continue
			}
			violations = append(violations, r.validateValue(value, collect)...)
			if len(violations) > 0 && !collect {
				return violations
			}
		}
	}

	return violations
}

func (r *Registry) validateValue(value interface{}, collect bool) []error {
	switch v := value.(type) {
	case *meta.Node:
		return r.Validate(v, true, collect)
	case []interface{}:
		var violations []error
		for _, item := range v {
			violations = append(violations, r.validateValue(item, collect)...)
			if len(violations) > 0 && !collect {
				return violations
			}
		}
		return violations
	default:
		return nil
	}
}

// defaultRegistry backs the package-level registration functions used by
// generated init() code.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry populated by generated code.
func Default() *Registry { return defaultRegistry }

// Register adds a predicate to the process-wide registry.
func Register(typeName, name string, check Predicate) error {
	return defaultRegistry.Register(typeName, name, check)
}

// MustRegister is Register for generated init() blocks; a duplicate
// registration is a generator bug and panics.
func MustRegister(typeName, name string, check Predicate) {
	if err := defaultRegistry.Register(typeName, name, check); err != nil {
		panic(err)
	}
}
