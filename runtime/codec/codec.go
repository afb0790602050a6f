// Package codec implements the JSON wire format for model instances: a
// two-phase deserializer that builds the tree before resolving reference
// placeholders, and a serializer that re-emits metadata envelopes and
// reference bindings.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/runic-lang/runic/runtime/conditions"
	"github.com/runic-lang/runic/runtime/meta"
	"github.com/runic-lang/runic/runtime/schema"
)

// Codec translates between JSON documents and constructed instance trees.
type Codec struct {
	types     *schema.Registry
	conds     *conditions.Registry
	validator schema.Validator
	log       *zap.Logger

	// model provenance stamped on serialized roots
	model   string
	version string
}

// Option configures a Codec.
type Option func(*Codec)

// WithConditions installs the business-rule registry evaluated after
// deserialization and before serialization.
func WithConditions(r *conditions.Registry) Option {
	return func(c *Codec) { c.conds = r }
}

// WithValidator replaces the structural validator.
func WithValidator(v schema.Validator) Option {
	return func(c *Codec) { c.validator = v }
}

// WithLogger installs a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Codec) {
		if log != nil {
			c.log = log
		}
	}
}

// WithProvenance sets the model name and version stamped on serialized root
// envelopes.
func WithProvenance(model, version string) Option {
	return func(c *Codec) {
		c.model = model
		c.version = version
	}
}

// New creates a codec over the given type registry.
func New(types *schema.Registry, opts ...Option) *Codec {
	c := &Codec{
		types:     types,
		validator: schema.NewConstraintValidator(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deserialize builds an instance tree from a JSON document. Phase one
// constructs nodes top-down, registering keys and leaving reference
// envelopes as placeholders; phase two resolves every placeholder against
// the registries the first phase populated, so forward references work.
// The finished tree is validated before being returned.
func (c *Codec) Deserialize(data []byte, rootType string) (*meta.Node, error) {
	root, err := c.DeserializeLenient(data, rootType)
	if err != nil {
		return nil, err
	}
	if errs := c.ValidateModel(root, false); len(errs) > 0 {
		return nil, errs[0]
	}
	return root, nil
}

// DeserializeLenient builds and resolves the tree but skips validation, for
// callers that want to collect every violation themselves. Dangling
// references are still fatal; without them the tree cannot be completed.
func (c *Codec) DeserializeLenient(data []byte, rootType string) (*meta.Node, error) {
	rt, err := c.types.Resolve(rootType)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	// root provenance is transport metadata, not instance state
	delete(raw, "@model")
	delete(raw, "@version")

	root, err := c.decodeNode(raw, rt, nil)
	if err != nil {
		return nil, err
	}

	if err := meta.ResolveReferences(root, false, true); err != nil {
		return nil, err
	}

	c.log.Debug("deserialized document", zap.String("type", root.Type().Name))
	return root, nil
}

// decodeNode constructs one instance from its raw object. allowed is the
// attachment site's metadata allow-list; the type-level list is merged in by
// InitMeta.
func (c *Codec) decodeNode(raw map[string]interface{}, declared *schema.Type, allowed []string) (*meta.Node, error) {
	tags, fields := splitEnvelope(raw)

	concrete := declared
	if tname, ok := tags["@type"].(string); ok && tname != "" {
		t, err := c.types.Resolve(tname)
		if err != nil {
			return nil, err
		}
		if !t.IsSubtypeOf(declared) {
			return nil, fmt.Errorf("%w: @type %s is not a subtype of %s",
				meta.ErrTypeMismatch, tname, declared.Name)
		}
		concrete = t
	}
	delete(tags, "@type")

	n := meta.NewNode(concrete)

	if len(tags) > 0 {
		if err := n.Meta().Set(tags, false); err != nil {
			return nil, err
		}
	}
	if n.ChecksEnabled() {
		if err := n.InitMeta(allowed); err != nil {
			return nil, fmt.Errorf("type %s: %w", concrete.Name, err)
		}
	}
	if err := n.RegisterKeys(tags); err != nil {
		return nil, err
	}

	for name, rawValue := range fields {
		f, ok := concrete.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", meta.ErrUnknownField, concrete.Name, name)
		}
		value, err := c.decodeField(f, rawValue)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		if err := n.Set(name, value); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
	}

	return n, nil
}

func (c *Codec) decodeField(f *schema.Field, raw interface{}) (interface{}, error) {
	if f.Type.List {
		items, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected a list, got %T", raw)
		}
		decoded := make([]interface{}, 0, len(items))
		for i, item := range items {
			v, err := c.decodeValue(f, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			decoded = append(decoded, v)
		}
		return decoded, nil
	}
	return c.decodeValue(f, raw)
}

func (c *Codec) decodeValue(f *schema.Field, raw interface{}) (interface{}, error) {
	obj, isObject := raw.(map[string]interface{})
	if !isObject {
		// bare value on an annotated field: legacy documents omit the
		// envelope, wrap so metadata can still be attached later
		if f.Type.Base != schema.TypeObject && f.Annotated() {
			return meta.NewScalar(raw, nil), nil
		}
		return raw, nil
	}

	if u, err := meta.UnresolvedFromEnvelope(obj); err != nil {
		return nil, err
	} else if u != nil {
		return u, nil
	}

	if f.Type.Base == schema.TypeObject {
		declared, err := c.types.Resolve(f.Type.TypeName)
		if err != nil {
			return nil, err
		}
		return c.decodeNode(obj, declared, f.AllowedMeta)
	}

	return c.decodeScalar(f, obj)
}

// decodeScalar unwraps an annotated-value envelope: the plain value rides
// under @data, every other tag lands in the sidecar.
func (c *Codec) decodeScalar(f *schema.Field, obj map[string]interface{}) (*meta.Scalar, error) {
	tags, fields := splitEnvelope(obj)
	if len(fields) > 0 {
		return nil, fmt.Errorf("%w: scalar envelope carries data keys %v",
			meta.ErrTypeMismatch, sortedKeys(fields))
	}
	value, ok := tags["@data"]
	if !ok {
		return nil, fmt.Errorf("scalar envelope is missing @data (tags: %v)", sortedKeys(tags))
	}
	delete(tags, "@data")

	s := meta.NewScalar(value, tags)
	if err := s.InitMeta(f.AllowedMeta); err != nil {
		return nil, err
	}
	if err := s.RegisterKeys(tags); err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateModel runs structural validation and business-rule conditions over
// the tree. Metadata allow-list enforcement is suspended for the duration so
// checks can annotate freely. In collect mode every violation is returned;
// otherwise evaluation stops at the first.
func (c *Codec) ValidateModel(root *meta.Node, collect bool) []error {
	root.SuspendMetaChecks()
	defer root.ResumeMetaChecks()

	var errs []error
	if c.validator != nil {
		errs = append(errs, c.validator.Validate(root)...)
		if len(errs) > 0 && !collect {
			return errs
		}
	}
	if c.conds != nil {
		errs = append(errs, c.conds.Validate(root, true, collect)...)
	}
	if len(errs) > 0 && !collect {
		return errs[:1]
	}
	return errs
}

// splitEnvelope separates reserved tags from data fields.
func splitEnvelope(raw map[string]interface{}) (tags, fields map[string]interface{}) {
	tags = make(map[string]interface{})
	fields = make(map[string]interface{})
	for k, v := range raw {
		if strings.HasPrefix(k, "@") {
			tags[k] = v
		} else {
			fields[k] = v
		}
	}
	return tags, fields
}
