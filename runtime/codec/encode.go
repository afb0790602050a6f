package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/runic-lang/runic/runtime/meta"
	"github.com/runic-lang/runic/runtime/schema"
)

// Serialize validates the tree and emits its JSON document. Identity tags
// come back out through each value's metadata envelope; fields bound as
// aliases serialize as reference envelopes instead of inlined data, so a
// round trip preserves the sharing structure.
func (c *Codec) Serialize(root *meta.Node) ([]byte, error) {
	if errs := c.ValidateModel(root, false); len(errs) > 0 {
		return nil, errs[0]
	}

	out, err := c.encodeNode(root, nil)
	if err != nil {
		return nil, err
	}

	// root provenance lives on the document, never in the instance state
	out["@type"] = root.Type().Name
	if c.model != "" {
		out["@model"] = c.model
	}
	if c.version != "" {
		out["@version"] = c.version
	}

	c.log.Debug("serialized document", zap.String("type", root.Type().Name))
	return json.Marshal(out)
}

func (c *Codec) encodeNode(n *meta.Node, declared *schema.Type) (map[string]interface{}, error) {
	out := n.Meta().Envelope()

	if declared != nil && n.Type().Name != declared.Name {
		out["@type"] = n.Type().Name
	}

	t := n.Type()
	for _, name := range t.EffectiveFieldOrder() {
		if key, kind, bound := n.Binding(name); bound {
			out[name] = map[string]interface{}{kind.RefTag(): key}
			continue
		}
		value, ok := n.Field(name)
		if !ok {
			continue
		}
		f, _ := t.Field(name)
		encoded, err := c.encodeValue(f, value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = encoded
	}
	return out, nil
}

func (c *Codec) encodeValue(f *schema.Field, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case *meta.Node:
		declared, _ := c.types.Get(f.Type.TypeName)
		return c.encodeNode(v, declared)
	case *meta.Scalar:
		return encodeScalar(v), nil
	case *meta.Unresolved:
		return nil, fmt.Errorf("%w: key %q was never resolved", meta.ErrDanglingReference, v.Key)
	case []interface{}:
		items := make([]interface{}, 0, len(v))
		for i, item := range v {
			encoded, err := c.encodeValue(f, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, encoded)
		}
		return items, nil
	default:
		return value, nil
	}
}

// encodeScalar emits {"@data": v, ...tags}, or the bare value when no truthy
// tag is present.
func encodeScalar(s *meta.Scalar) interface{} {
	env := s.Meta().Envelope()
	if len(env) == 0 {
		return s.Value()
	}
	env["@data"] = s.Value()
	return env
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
