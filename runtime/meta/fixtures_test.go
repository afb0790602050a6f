package meta

import (
	"testing"

	"github.com/runic-lang/runic/runtime/schema"
)

// fixtureRegistry builds the type hierarchy shared by the package tests:
// a root document holding keyable items, two scope-boundary subtrees, and
// an annotated price scalar.
func fixtureRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()

	item := schema.NewType("test.Item")
	item.AllowedMeta = []string{"@key", "@key:external", "@key:scoped"}
	item.AddField(&schema.Field{Name: "name", Type: &schema.TypeSpec{Base: schema.TypeString}})

	special := schema.NewType("test.SpecialItem")
	special.Extends = "test.Item"
	special.AddField(&schema.Field{Name: "grade", Type: &schema.TypeSpec{Base: schema.TypeString}})

	scope := schema.NewType("test.Scope")
	scope.ScopeBoundary = true
	scope.AddField(&schema.Field{
		Name: "item",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Item"},
	})
	scope.AddField(&schema.Field{
		Name:        "itemRef",
		Type:        &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Item"},
		AllowedRefs: []string{"@ref:scoped"},
	})

	root := schema.NewType("test.Root")
	root.AddField(&schema.Field{
		Name: "item",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Item"},
	})
	root.AddField(&schema.Field{
		Name: "item2",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Item"},
	})
	root.AddField(&schema.Field{
		Name: "items",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Item", List: true},
	})
	root.AddField(&schema.Field{
		Name:        "itemRef",
		Type:        &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Item"},
		AllowedRefs: []string{"@ref", "@ref:external"},
	})
	root.AddField(&schema.Field{
		Name: "scope1",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Scope"},
	})
	root.AddField(&schema.Field{
		Name: "scope2",
		Type: &schema.TypeSpec{Base: schema.TypeObject, TypeName: "test.Scope"},
	})
	root.AddField(&schema.Field{
		Name:        "price",
		Type:        &schema.TypeSpec{Base: schema.TypeNumber},
		AllowedMeta: []string{"@scheme", "@key"},
	})
	root.AddField(&schema.Field{
		Name:        "priceRef",
		Type:        &schema.TypeSpec{Base: schema.TypeNumber},
		AllowedRefs: []string{"@ref"},
	})
	root.AddField(&schema.Field{Name: "plain", Type: &schema.TypeSpec{Base: schema.TypeString}})

	for _, typ := range []*schema.Type{item, special, scope, root} {
		if err := reg.Register(typ); err != nil {
			t.Fatalf("registering %s: %v", typ.Name, err)
		}
	}
	return reg
}

func mustType(t *testing.T, reg *schema.Registry, name string) *schema.Type {
	t.Helper()
	typ, ok := reg.Get(name)
	if !ok {
		t.Fatalf("type %s not in fixture", name)
	}
	return typ
}
