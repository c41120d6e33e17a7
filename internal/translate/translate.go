// Package translate maps canonical schemas to the typed representation
// the renderer consumes. The schema vocabulary (type keywords, oneOf,
// allOf, nullable, additionalProperties) ends here; everything after
// this stage works with closed tagged variants.
package translate

import (
	"fmt"
	"log/slog"

	"github.com/frijol-dev/frijol/internal/canon"
	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/sanitize"
	"github.com/frijol-dev/frijol/internal/specerr"
)

// Translator turns canonical schemas into ir types. One instance serves
// one generation run; it shares the run's sanitizer and table.
type Translator struct {
	table *canon.Table
	san   *sanitize.Sanitizer
	log   *slog.Logger
}

// New creates a translator over a populated canonical table.
func New(table *canon.Table, san *sanitize.Sanitizer, log *slog.Logger) *Translator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if san == nil {
		san = sanitize.New(log)
	}
	return &Translator{table: table, san: san, log: log}
}

// TranslateAll translates every named schema root, in document
// declaration order, into a type definition.
func (t *Translator) TranslateAll() ([]ir.TypeDef, error) {
	var defs []ir.TypeDef
	for _, named := range t.table.Named() {
		path := "#/components/schemas/" + named.Name
		schema := t.table.Get(named.ID)
		if schema == nil {
			return nil, internalInvariant(path, "named schema missing from canonical table")
		}

		typ, err := t.translateSchema(schema, path, true)
		if err != nil {
			return nil, err
		}

		defs = append(defs, ir.TypeDef{
			Name: t.san.Sanitize(named.Name, sanitize.ModeID),
			Doc:  t.san.Sanitize(schema.Description, sanitize.ModeDoc),
			Type: typ,
		})
	}
	return defs, nil
}

// TypeFor translates the schema stored at id for use inside another
// structure. Named schemas come back as references so the IR links
// types instead of duplicating them.
func (t *Translator) TypeFor(id canon.ID, path string) (*ir.Type, error) {
	schema := t.table.Get(id)
	if schema == nil {
		return nil, internalInvariant(path, "dangling canonical identity")
	}
	return t.translateSchema(schema, path, false)
}

func (t *Translator) translateSchema(s *canon.Schema, path string, topLevel bool) (*ir.Type, error) {
	// Intentional recursion edge: resolve to the target's display name.
	if s.IsReference() {
		target := t.table.Get(s.RefTo)
		if target == nil || target.Name == "" {
			// The resolver guarantees every Reference points at a named
			// in-progress root; anything else is a bug, not bad input.
			return nil, internalInvariant(path, "unresolved reference survived deduplication")
		}
		return &ir.Type{
			Kind:     ir.KindReference,
			Ref:      t.san.Sanitize(target.Name, sanitize.ModeID),
			Nullable: s.Nullable,
		}, nil
	}

	// A named schema embedded in another structure becomes a reference.
	if !topLevel && s.Name != "" {
		return &ir.Type{
			Kind:     ir.KindReference,
			Ref:      t.san.Sanitize(s.Name, sanitize.ModeID),
			Nullable: s.Nullable,
		}, nil
	}

	switch {
	case len(s.AllOf) > 0:
		return t.translateAllOf(s, path)
	case len(s.OneOf) > 0:
		return t.translateUnion(s, s.OneOf, path, "oneOf")
	case len(s.AnyOf) > 0:
		return t.translateUnion(s, s.AnyOf, path, "anyOf")
	case len(s.Enum) > 0:
		return &ir.Type{Kind: ir.KindEnum, Values: s.Enum, Nullable: s.Nullable}, nil
	}

	switch s.Type {
	case "object":
		return t.translateObject(s, path)
	case "array":
		return t.translateArray(s, path)
	case "string":
		if s.Format == "binary" {
			return &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveBinary, Nullable: s.Nullable}, nil
		}
		return t.primitive(ir.PrimitiveString, s), nil
	case "integer":
		return t.primitive(ir.PrimitiveInteger, s), nil
	case "number":
		return t.primitive(ir.PrimitiveNumber, s), nil
	case "boolean":
		return t.primitive(ir.PrimitiveBoolean, s), nil
	case "":
		return t.primitive(ir.PrimitiveAny, s), nil
	default:
		t.log.Warn("unknown schema type, using any", "type", s.Type, "path", path)
		return t.primitive(ir.PrimitiveAny, s), nil
	}
}

func (t *Translator) primitive(p ir.Primitive, s *canon.Schema) *ir.Type {
	return &ir.Type{Kind: ir.KindPrimitive, Primitive: p, Format: s.Format, Nullable: s.Nullable}
}

func (t *Translator) translateObject(s *canon.Schema, path string) (*ir.Type, error) {
	// An object with only additionalProperties is a map.
	if len(s.Properties) == 0 {
		if s.HasAdditional {
			value, err := t.TypeFor(s.AdditionalProperties, path+"/additionalProperties")
			if err != nil {
				return nil, err
			}
			return &ir.Type{Kind: ir.KindMap, Value: value, Nullable: s.Nullable}, nil
		}
		// No declared structure at all: a free-form map.
		return &ir.Type{
			Kind:     ir.KindMap,
			Value:    &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveAny},
			Nullable: s.Nullable,
		}, nil
	}

	fields, err := t.translateFields(s, path)
	if err != nil {
		return nil, err
	}
	return &ir.Type{Kind: ir.KindObject, Fields: fields, Nullable: s.Nullable}, nil
}

func (t *Translator) translateFields(s *canon.Schema, path string) ([]ir.Field, error) {
	required := s.RequiredSet()
	fields := make([]ir.Field, 0, len(s.Properties))
	for _, prop := range s.Properties {
		child := t.table.Get(prop.Schema)
		if child == nil {
			return nil, internalInvariant(path, "dangling property identity for "+prop.Name)
		}

		typ, err := t.TypeFor(prop.Schema, path+"/properties/"+prop.Name)
		if err != nil {
			return nil, err
		}

		fields = append(fields, ir.Field{
			Name:      t.san.Sanitize(prop.Name, sanitize.ModeID),
			APIName:   prop.Name,
			Doc:       t.san.Sanitize(child.Description, sanitize.ModeDoc),
			Type:      typ,
			Required:  required[prop.Name],
			Nullable:  child.Nullable,
			ReadOnly:  child.ReadOnly,
			WriteOnly: child.WriteOnly,
			Default:   DefaultOf(child),
		})
	}
	return fields, nil
}

func (t *Translator) translateArray(s *canon.Schema, path string) (*ir.Type, error) {
	if s.Items == "" {
		t.log.Debug("array schema without items, using any", "path", path)
		return &ir.Type{
			Kind:     ir.KindArray,
			Elem:     &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveAny},
			Nullable: s.Nullable,
		}, nil
	}
	elem, err := t.TypeFor(s.Items, path+"/items")
	if err != nil {
		return nil, err
	}
	return &ir.Type{Kind: ir.KindArray, Elem: elem, Nullable: s.Nullable}, nil
}

// translateUnion keeps every member; discriminator narrowing is an
// explicit non-goal.
func (t *Translator) translateUnion(s *canon.Schema, members []canon.ID, path, keyword string) (*ir.Type, error) {
	if len(members) == 1 {
		single, err := t.TypeFor(members[0], path+"/"+keyword+"/0")
		if err != nil {
			return nil, err
		}
		if s.Nullable {
			clone := *single
			clone.Nullable = true
			return &clone, nil
		}
		return single, nil
	}

	out := &ir.Type{Kind: ir.KindUnion, Nullable: s.Nullable}
	for i, id := range members {
		member := t.table.Get(id)
		if member == nil {
			return nil, internalInvariant(path, "dangling union member identity")
		}
		// A pure null member folds into the union's nullability.
		if member.Type == "" && member.Nullable && isEmptyStructure(member) {
			out.Nullable = true
			continue
		}
		typ, err := t.TypeFor(id, fmt.Sprintf("%s/%s/%d", path, keyword, i))
		if err != nil {
			return nil, err
		}
		out.Members = append(out.Members, typ)
	}

	if len(out.Members) == 1 {
		single := *out.Members[0]
		single.Nullable = single.Nullable || out.Nullable
		return &single, nil
	}
	return out, nil
}

// translateAllOf merges the member objects into one object: a field-set
// union. The same field name declared with different canonical types is
// a contradiction and fails translation.
func (t *Translator) translateAllOf(s *canon.Schema, path string) (*ir.Type, error) {
	// Single-member allOf is the common $ref wrapper pattern; it is
	// just that type.
	if len(s.AllOf) == 1 && len(s.Properties) == 0 {
		return t.TypeFor(s.AllOf[0], path+"/allOf/0")
	}

	merged, err := t.flattenAllOf(s, path, make(map[canon.ID]bool))
	if err != nil {
		return nil, err
	}

	fields, err := t.translateFields(merged, path)
	if err != nil {
		return nil, err
	}
	return &ir.Type{Kind: ir.KindObject, Fields: fields, Nullable: s.Nullable}, nil
}

// flattenAllOf aggregates properties and required sets across the whole
// composition chain, including nested allOf members.
func (t *Translator) flattenAllOf(s *canon.Schema, path string, seen map[canon.ID]bool) (*canon.Schema, error) {
	merged := &canon.Schema{Type: "object"}
	byName := make(map[string]canon.ID)
	requiredSet := make(map[string]bool)

	addProps := func(src *canon.Schema) error {
		for _, prop := range src.Properties {
			if existing, ok := byName[prop.Name]; ok {
				if existing != prop.Schema {
					return &specerr.TranslationError{
						Path:    path,
						Message: fmt.Sprintf("allOf members declare field %q with conflicting types", prop.Name),
					}
				}
				continue
			}
			byName[prop.Name] = prop.Schema
			merged.Properties = append(merged.Properties, prop)
		}
		for _, req := range src.Required {
			requiredSet[req] = true
		}
		return nil
	}

	var walk func(ids []canon.ID) error
	walk = func(ids []canon.ID) error {
		for _, id := range ids {
			if seen[id] {
				return &specerr.TranslationError{Path: path, Message: "allOf composition is cyclic"}
			}
			seen[id] = true

			member := t.table.Get(id)
			if member == nil {
				return internalInvariant(path, "dangling allOf member identity")
			}
			if member.IsReference() {
				return &specerr.TranslationError{Path: path, Message: "allOf member is a recursive reference"}
			}
			if len(member.AllOf) > 0 {
				if err := walk(member.AllOf); err != nil {
					return err
				}
			}
			if err := addProps(member); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(s.AllOf); err != nil {
		return nil, err
	}
	// Own properties participate in the same merge.
	if err := addProps(s); err != nil {
		return nil, err
	}

	// Required entries follow merged property order so the result is
	// deterministic.
	for _, prop := range merged.Properties {
		if requiredSet[prop.Name] {
			merged.Required = append(merged.Required, prop.Name)
		}
	}
	return merged, nil
}

func isEmptyStructure(s *canon.Schema) bool {
	return len(s.Properties) == 0 && len(s.AllOf) == 0 && len(s.OneOf) == 0 &&
		len(s.AnyOf) == 0 && len(s.Enum) == 0 && s.Items == "" && !s.HasAdditional
}

// DefaultOf lifts a canonical schema's default into the tri-state IR
// form. Shared with parameter extraction, which reads defaults off the
// same canonical schemas.
func DefaultOf(s *canon.Schema) ir.Default {
	switch {
	case !s.HasDefault:
		return ir.Default{State: ir.DefaultOmitted}
	case s.DefaultNull:
		return ir.Default{State: ir.DefaultNull}
	default:
		return ir.Default{State: ir.DefaultPresent, Value: s.Default}
	}
}

func internalInvariant(path, msg string) error {
	return &specerr.TranslationError{Path: path, Message: "internal invariant violated: " + msg}
}
