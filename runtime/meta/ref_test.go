package meta

import (
	"errors"
	"testing"
)

func TestBind(t *testing.T) {
	reg := fixtureRegistry(t)
	itemT := mustType(t, reg, "test.Item")
	scopeT := mustType(t, reg, "test.Scope")
	rootT := mustType(t, reg, "test.Root")

	t.Run("binds a declared reference kind", func(t *testing.T) {
		root := NewNode(rootT)
		item := NewNode(itemT)
		root.Set("item", item)

		ref, err := NewReference(item)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := root.Bind("itemRef", ref); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		key, kind, bound := root.Binding("itemRef")
		if !bound || key != ref.Key || kind != KindInternal {
			t.Errorf("binding not recorded: %s %s %v", key, kind, bound)
		}
		v, _ := root.Field("itemRef")
		if v != Annotated(item) {
			t.Error("field should hold the reference target")
		}
	})

	t.Run("undeclared kind is rejected first", func(t *testing.T) {
		root := NewNode(rootT)
		item := NewNode(itemT)
		root.Set("item", item)

		ref, err := NewKeyedReference(item, "s1", KindScoped)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := root.Bind("itemRef", ref); !errors.Is(err, ErrReferenceKindNotAllowed) {
			t.Errorf("expected ErrReferenceKindNotAllowed, got %v", err)
		}
	})

	t.Run("object field rejects foreign node types", func(t *testing.T) {
		root := NewNode(rootT)
		scope := NewNode(scopeT)
		root.Set("scope1", scope)

		ref := &Reference{Target: scope, Key: "k", Kind: KindInternal}
		if err := root.Bind("itemRef", ref); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("subtype targets are compatible", func(t *testing.T) {
		specialT := mustType(t, reg, "test.SpecialItem")
		root := NewNode(rootT)
		special := NewNode(specialT)
		root.Set("item", special)

		ref, err := NewReference(special)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := root.Bind("itemRef", ref); err != nil {
			t.Errorf("subtype target should bind: %v", err)
		}
	})

	t.Run("scalar field rejects node targets", func(t *testing.T) {
		root := NewNode(rootT)
		item := NewNode(itemT)
		root.Set("item", item)

		ref, err := NewReference(item)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := root.Bind("priceRef", ref); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("scalar target binds to a scalar field", func(t *testing.T) {
		root := NewNode(rootT)
		price := NewScalar(42.5, nil)
		if err := price.InitMeta([]string{"@scheme", "@key"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		root.Set("price", price)

		ref, err := NewReference(price)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := root.Bind("priceRef", ref); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("scalar target value must match the declared base type", func(t *testing.T) {
		root := NewNode(rootT)
		code := NewScalar("USD", nil)
		if err := code.InitMeta([]string{"@key"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ref, err := NewReference(code)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// priceRef is a number field; a string scalar cannot alias into it
		if err := root.Bind("priceRef", ref); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("unset field takes the alias directly", func(t *testing.T) {
		root := NewNode(rootT)
		item := NewNode(itemT)
		root.Set("item", item)

		ref, err := NewReference(item)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// itemRef was never assigned; programmatic aliasing starts here
		if err := root.Bind("itemRef", ref); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("non-aliasable current value", func(t *testing.T) {
		root := NewNode(rootT)
		item := NewNode(itemT)
		root.Set("item", item)
		root.Set("itemRef", "occupied")

		ref, err := NewReference(item)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := root.Bind("itemRef", ref); !errors.Is(err, ErrNotAliasable) {
			t.Errorf("expected ErrNotAliasable, got %v", err)
		}
	})

	t.Run("plain assignment drops the binding", func(t *testing.T) {
		root := NewNode(rootT)
		item := NewNode(itemT)
		root.Set("item", item)
		ref, _ := NewReference(item)
		root.Bind("itemRef", ref)

		other := NewNode(itemT)
		if err := root.Set("itemRef", other); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, bound := root.Binding("itemRef"); bound {
			t.Error("binding should be dropped by a plain assignment")
		}
	})
}

func TestKeyedReference(t *testing.T) {
	reg := fixtureRegistry(t)
	itemT := mustType(t, reg, "test.Item")

	t.Run("internal kind is not caller-supplied", func(t *testing.T) {
		item := NewNode(itemT)
		if _, err := NewKeyedReference(item, "k", KindInternal); !errors.Is(err, ErrUnknownKind) {
			t.Errorf("expected ErrUnknownKind, got %v", err)
		}
	})

	t.Run("registers the target under the key", func(t *testing.T) {
		item := NewNode(itemT)
		ref, err := NewKeyedReference(item, "ext-1", KindExternal)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ref.Key != "ext-1" || ref.Kind != KindExternal {
			t.Errorf("unexpected reference: %+v", ref)
		}
		if v, ok := item.Meta().Get("@key:external"); !ok || v != "ext-1" {
			t.Errorf("key tag not stored: %v", v)
		}
	})
}

func TestUnresolvedFromEnvelope(t *testing.T) {
	t.Run("single tag", func(t *testing.T) {
		u, err := UnresolvedFromEnvelope(map[string]interface{}{"@ref": "k1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u == nil || u.Key != "k1" || u.Kind != KindInternal {
			t.Errorf("unexpected placeholder: %+v", u)
		}
	})

	t.Run("most specific kind wins", func(t *testing.T) {
		u, err := UnresolvedFromEnvelope(map[string]interface{}{
			"@ref":        "a",
			"@ref:scoped": "b",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Kind != KindScoped || u.Key != "b" {
			t.Errorf("expected the scoped reference, got %+v", u)
		}
	})

	t.Run("no reference tags", func(t *testing.T) {
		u, err := UnresolvedFromEnvelope(map[string]interface{}{"@key": "k1"})
		if err != nil || u != nil {
			t.Errorf("expected nil placeholder, got %+v %v", u, err)
		}
	})
}

func TestResolveReferences(t *testing.T) {
	reg := fixtureRegistry(t)
	itemT := mustType(t, reg, "test.Item")
	rootT := mustType(t, reg, "test.Root")

	t.Run("forward reference resolves", func(t *testing.T) {
		root := NewNode(rootT)
		root.Set("itemRef", &Unresolved{Key: "k1", Kind: KindInternal})

		item := NewNode(itemT)
		item.RegisterKeys(map[string]interface{}{"@key": "k1"})
		root.Set("item", item)

		if err := ResolveReferences(root, false, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		v, _ := root.Field("itemRef")
		if v != Annotated(item) {
			t.Error("placeholder should resolve to the registered target")
		}
		if _, _, bound := root.Binding("itemRef"); !bound {
			t.Error("resolution should record the binding")
		}
	})

	t.Run("dangling reference fails", func(t *testing.T) {
		root := NewNode(rootT)
		root.Set("itemRef", &Unresolved{Key: "nope", Kind: KindInternal})

		err := ResolveReferences(root, false, true)
		if !errors.Is(err, ErrDanglingReference) {
			t.Errorf("expected ErrDanglingReference, got %v", err)
		}
	})

	t.Run("dangling reference tolerated mid-construction", func(t *testing.T) {
		root := NewNode(rootT)
		root.Set("itemRef", &Unresolved{Key: "later", Kind: KindInternal})

		if err := ResolveReferences(root, true, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := root.Get("itemRef").(*Unresolved); !ok {
			t.Error("placeholder should be left in place")
		}
	})
}
