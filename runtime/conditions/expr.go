package conditions

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/runic-lang/runic/runtime/meta"
)

// RegisterExpr compiles source as a boolean expression over the instance's
// plain-value snapshot and registers it as a predicate. Unset fields appear
// as undefined variables, which evaluate to nil rather than failing
// compilation, so expressions can guard with `field != nil`.
func (r *Registry) RegisterExpr(typeName, name, source string) error {
	program, err := expr.Compile(source,
		expr.Env(map[string]interface{}{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return fmt.Errorf("condition %s.%s: compiling %q: %w", typeName, name, source, err)
	}
	return r.Register(typeName, name, exprPredicate(program))
}

func exprPredicate(program *vm.Program) Predicate {
	return func(n *meta.Node) (bool, error) {
		out, err := expr.Run(program, n.Snapshot())
		if err != nil {
			return false, err
		}
		ok, isBool := out.(bool)
		if !isBool {
			return false, fmt.Errorf("expression yielded %T, want bool", out)
		}
		return ok, nil
	}
}

// OneOf builds a predicate asserting that exactly one (or, with necessity
// false, at most one) of the named fields is set on the instance.
func OneOf(necessity bool, fields ...string) Predicate {
	return func(n *meta.Node) (bool, error) {
		set := 0
		for _, f := range fields {
			if _, ok := n.Field(f); ok {
				set++
			}
		}
		if necessity {
			if set != 1 {
				return false, fmt.Errorf("exactly one of %v must be set, got %d", fields, set)
			}
			return true, nil
		}
		if set > 1 {
			return false, fmt.Errorf("at most one of %v may be set, got %d", fields, set)
		}
		return true, nil
	}
}
