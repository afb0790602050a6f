package conditions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/runic-lang/runic/runtime/meta"
	"github.com/runic-lang/runic/runtime/schema"
)

func buildTypes(t *testing.T) (*schema.Type, *schema.Type) {
	t.Helper()
	reg := schema.NewRegistry()

	base := schema.NewType("test.Trade")
	base.AddField(&schema.Field{Name: "quantity", Type: &schema.TypeSpec{Base: schema.TypeNumber}})
	base.AddField(&schema.Field{Name: "price", Type: &schema.TypeSpec{Base: schema.TypeNumber}})
	base.AddField(&schema.Field{
		Name: "linked",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Trade"},
	})

	derived := schema.NewType("test.SwapTrade")
	derived.Extends = "test.Trade"
	derived.AddField(&schema.Field{Name: "index", Type: &schema.TypeSpec{Base: schema.TypeString}})

	for _, typ := range []*schema.Type{base, derived} {
		if err := reg.Register(typ); err != nil {
			t.Fatalf("registering %s: %v", typ.Name, err)
		}
	}
	return base, derived
}

func alwaysTrue(*meta.Node) (bool, error)  { return true, nil }
func alwaysFalse(*meta.Node) (bool, error) { return false, nil }

func TestRegistryRegistration(t *testing.T) {
	t.Run("duplicate name for a type", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register("test.Trade", "Positive", alwaysTrue); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.Register("test.Trade", "Positive", alwaysTrue); err == nil {
			t.Error("expected error for duplicate registration")
		}
	})

	t.Run("same name on different types", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test.Trade", "Positive", alwaysTrue)
		if err := r.Register("test.SwapTrade", "Positive", alwaysTrue); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestForType(t *testing.T) {
	base, derived := buildTypes(t)

	r := NewRegistry()
	r.Register("test.Trade", "A", alwaysTrue)
	r.Register("test.Trade", "B", alwaysTrue)
	r.Register("test.SwapTrade", "C", alwaysTrue)
	// a derived condition sharing a base name runs in addition to it
	r.Register("test.SwapTrade", "A", alwaysTrue)

	t.Run("base type sees its own", func(t *testing.T) {
		conds := r.ForType(base)
		if len(conds) != 2 {
			t.Errorf("expected 2 conditions, got %d", len(conds))
		}
	})

	t.Run("derived accumulates base to derived", func(t *testing.T) {
		conds := r.ForType(derived)
		if len(conds) != 4 {
			t.Fatalf("expected 4 conditions, got %d", len(conds))
		}
		if conds[0].TypeName != "test.Trade" || conds[0].Name != "A" {
			t.Errorf("base conditions should run first, got %s.%s", conds[0].TypeName, conds[0].Name)
		}
		last := conds[3]
		if last.TypeName != "test.SwapTrade" || last.Name != "A" {
			t.Errorf("same-named derived condition should still run, got %s.%s", last.TypeName, last.Name)
		}
	})
}

func TestValidate(t *testing.T) {
	base, _ := buildTypes(t)

	t.Run("violation wraps the sentinel", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test.Trade", "Fails", alwaysFalse)

		errs := r.Validate(meta.NewNode(base), false, true)
		if len(errs) != 1 {
			t.Fatalf("expected 1 violation, got %d", len(errs))
		}
		if !errors.Is(errs[0], ErrConditionViolation) {
			t.Errorf("violation should match the sentinel: %v", errs[0])
		}
		var v *Violation
		if !errors.As(errs[0], &v) || v.Condition != "Fails" {
			t.Errorf("unexpected violation: %v", errs[0])
		}
	})

	t.Run("predicate errors are violations", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test.Trade", "Broken", func(*meta.Node) (bool, error) {
			return true, fmt.Errorf("lookup failed")
		})

		errs := r.Validate(meta.NewNode(base), false, true)
		if len(errs) != 1 {
			t.Fatalf("expected 1 violation, got %d", len(errs))
		}
	})

	t.Run("first failure stops in raise mode", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test.Trade", "First", alwaysFalse)
		r.Register("test.Trade", "Second", alwaysFalse)

		errs := r.Validate(meta.NewNode(base), false, false)
		if len(errs) != 1 {
			t.Errorf("expected 1 violation in raise mode, got %d", len(errs))
		}
		errs = r.Validate(meta.NewNode(base), false, true)
		if len(errs) != 2 {
			t.Errorf("expected 2 violations in collect mode, got %d", len(errs))
		}
	})

	t.Run("recursion reaches nested nodes", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test.Trade", "Fails", alwaysFalse)

		outer := meta.NewNode(base)
		inner := meta.NewNode(base)
		if err := outer.Set("linked", inner); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		errs := r.Validate(outer, true, true)
		if len(errs) != 2 {
			t.Errorf("expected violations for both nodes, got %d", len(errs))
		}
	})
}

func TestExprConditions(t *testing.T) {
	base, _ := buildTypes(t)

	t.Run("evaluates against the snapshot", func(t *testing.T) {
		r := NewRegistry()
		if err := r.RegisterExpr("test.Trade", "PositiveQuantity", "quantity == nil || quantity > 0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		good := meta.NewNode(base)
		good.Set("quantity", 10.0)
		if errs := r.Validate(good, false, true); len(errs) != 0 {
			t.Errorf("positive quantity should pass: %v", errs)
		}

		bad := meta.NewNode(base)
		bad.Set("quantity", -1.0)
		if errs := r.Validate(bad, false, true); len(errs) != 1 {
			t.Errorf("negative quantity should fail, got %v", errs)
		}

		unset := meta.NewNode(base)
		if errs := r.Validate(unset, false, true); len(errs) != 0 {
			t.Errorf("unset quantity should pass the nil guard: %v", errs)
		}
	})

	t.Run("compile error is reported at registration", func(t *testing.T) {
		r := NewRegistry()
		if err := r.RegisterExpr("test.Trade", "Broken", "quantity >"); err == nil {
			t.Error("expected a compile error")
		}
	})
}

func TestOneOf(t *testing.T) {
	base, _ := buildTypes(t)

	t.Run("exactly one", func(t *testing.T) {
		check := OneOf(true, "quantity", "price")

		n := meta.NewNode(base)
		n.Set("quantity", 1.0)
		if ok, err := check(n); !ok || err != nil {
			t.Errorf("one set field should pass: %v", err)
		}

		n.Set("price", 2.0)
		if ok, _ := check(n); ok {
			t.Error("two set fields should fail")
		}

		if ok, _ := check(meta.NewNode(base)); ok {
			t.Error("no set fields should fail when required")
		}
	})

	t.Run("at most one", func(t *testing.T) {
		check := OneOf(false, "quantity", "price")
		if ok, err := check(meta.NewNode(base)); !ok || err != nil {
			t.Errorf("no set fields should pass: %v", err)
		}
	})
}
