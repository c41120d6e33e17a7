// Package resolver dereferences every cross-reference in the document
// graph and populates the canonical schema table. Cycles are legal: a
// reference back to a schema still being resolved becomes an explicit
// Reference node pointing at that schema's reserved identity, so the
// canonical graph is cyclic by construction, never by re-entrant
// traversal.
package resolver

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/frijol-dev/frijol/internal/canon"
	"github.com/frijol-dev/frijol/internal/document"
	"github.com/frijol-dev/frijol/internal/specerr"
	"go.yaml.in/yaml/v4"
)

// maxDepth caps schema nesting so a pathological (non-circular) document
// cannot overflow the stack.
const maxDepth = 100

type refState int

const (
	stateUnvisited refState = iota
	stateInProgress
	stateDone
)

// Resolver owns the canonical table for one generation run. It is not
// safe for concurrent use; concurrent runs need independent instances.
type Resolver struct {
	root     *yaml.Node
	table    *canon.Table
	states   map[string]refState
	results  map[string]canon.ID
	cycleHit map[string]bool
	depth    int
	log      *slog.Logger
}

// New creates a resolver over the parsed document root.
func New(root *yaml.Node, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		root:     root,
		table:    canon.NewTable(),
		states:   make(map[string]refState),
		results:  make(map[string]canon.ID),
		cycleHit: make(map[string]bool),
		log:      log,
	}
}

// Table returns the canonical table populated by this resolver.
func (r *Resolver) Table() *canon.Table { return r.table }

// ResolveDocument resolves every schema under components/schemas in
// declaration order and registers its canonical name. Declaration order
// makes the dedup name tie-break deterministic.
func (r *Resolver) ResolveDocument() error {
	components := document.MapGet(r.root, "components")
	schemas := document.MapGet(components, "schemas")
	for _, pair := range document.MapPairs(schemas) {
		pointer := "#/components/schemas/" + escapeToken(pair.Key)
		id, err := r.Resolve(pointer)
		if err != nil {
			return err
		}
		r.table.RegisterName(pair.Key, id)
		r.log.Debug("resolved schema", "name", pair.Key, "id", string(id))
	}
	return nil
}

// Resolve dereferences an in-document pointer to a canonical identity.
// Resolution is memoized: resolving the same pointer twice yields the
// same identity.
func (r *Resolver) Resolve(pointer string) (canon.ID, error) {
	if id, ok := r.results[pointer]; ok {
		return id, nil
	}

	if r.states[pointer] == stateInProgress {
		// A cycle. Do not recurse; emit a Reference at the target's
		// reserved identity and let the graph close itself.
		r.cycleHit[pointer] = true
		target := r.table.Reserve(pointer)
		r.log.Debug("cycle detected", "pointer", pointer)
		return r.table.Intern(&canon.Schema{RefTo: target}), nil
	}

	node, err := document.ResolvePointer(r.root, pointer)
	if err != nil {
		return "", err
	}

	// A component that is itself just a $ref aliases its target.
	if ref := refOf(node); ref != "" {
		id, err := r.Resolve(ref)
		if err != nil {
			return "", err
		}
		r.results[pointer] = id
		return id, nil
	}

	r.states[pointer] = stateInProgress
	schema, err := r.buildSchema(node, pointer)
	if err != nil {
		return "", err
	}

	var id canon.ID
	if r.cycleHit[pointer] {
		// Reference edges already point at the reserved identity, so
		// the completed cyclic root must live there.
		id = r.table.Reserve(pointer)
		r.table.Commit(id, schema)
	} else {
		id = r.table.Intern(schema)
	}

	r.states[pointer] = stateDone
	r.results[pointer] = id
	return id, nil
}

// ResolveNode canonicalizes a schema node that is not itself addressable
// by name (an inline parameter, body, or response schema). If the node
// is a $ref it resolves through the pointer table; otherwise its content
// identity dedupes it against every named schema, so an inline copy of a
// component collapses to the component's identity.
func (r *Resolver) ResolveNode(node *yaml.Node, path string) (canon.ID, error) {
	if ref := refOf(node); ref != "" {
		return r.Resolve(ref)
	}
	schema, err := r.buildSchema(node, path)
	if err != nil {
		return "", err
	}
	return r.table.Intern(schema), nil
}

func refOf(node *yaml.Node) string {
	if !document.IsMapping(node) {
		return ""
	}
	return document.AsString(document.MapGet(node, "$ref"))
}

// buildSchema translates one raw schema node into a canonical schema,
// resolving children first so their identities are known.
func (r *Resolver) buildSchema(node *yaml.Node, path string) (*canon.Schema, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxDepth {
		return nil, &specerr.ResolutionError{Ref: path, Message: "schema nesting exceeds maximum depth"}
	}

	node = document.Deref(node)
	if node == nil {
		return &canon.Schema{}, nil
	}

	// Boolean schemas (3.1): true and false are valid schemas. Both
	// collapse to the unconstrained schema; Go has no bottom type.
	if node.Kind == yaml.ScalarNode && node.Tag == "!!bool" {
		if node.Value == "false" {
			r.log.Warn("boolean false schema has no Go representation, using any", "path", path)
		}
		return &canon.Schema{}, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, &specerr.ParseError{Path: path, Message: "schema must be a mapping or boolean"}
	}

	types, nullable := typeList(node)
	if len(types) > 1 {
		// 3.1 multi-type array: a union of single-type views of the
		// same schema, with "null" folded into the nullable flag.
		s := &canon.Schema{Nullable: nullable}
		for _, t := range types {
			member, err := r.buildTypedView(node, t, path)
			if err != nil {
				return nil, err
			}
			s.OneOf = append(s.OneOf, r.table.Intern(member))
		}
		r.fillMetadata(s, node)
		return s, nil
	}

	var typ string
	if len(types) == 1 {
		typ = types[0]
	}

	s, err := r.buildTypedView(node, typ, path)
	if err != nil {
		return nil, err
	}
	s.Nullable = s.Nullable || nullable
	r.fillMetadata(s, node)
	return s, nil
}

// buildTypedView builds the canonical schema for node as if it declared
// exactly one type.
func (r *Resolver) buildTypedView(node *yaml.Node, typ string, path string) (*canon.Schema, error) {
	s := &canon.Schema{
		Type:      typ,
		Format:    document.AsString(document.MapGet(node, "format")),
		Nullable:  document.AsBool(document.MapGet(node, "nullable")),
		ReadOnly:  document.AsBool(document.MapGet(node, "readOnly")),
		WriteOnly: document.AsBool(document.MapGet(node, "writeOnly")),
	}

	// Infer the structural type when it is omitted.
	if s.Type == "" {
		switch {
		case document.MapGet(node, "properties") != nil,
			document.MapGet(node, "additionalProperties") != nil:
			s.Type = "object"
		case document.MapGet(node, "items") != nil:
			s.Type = "array"
		}
	}

	if enum := document.MapGet(node, "enum"); enum != nil {
		for _, item := range document.Items(enum) {
			v, _ := document.ScalarValue(item)
			s.Enum = append(s.Enum, v)
		}
	}

	for _, comp := range []struct {
		key string
		dst *[]canon.ID
	}{
		{"allOf", &s.AllOf},
		{"oneOf", &s.OneOf},
		{"anyOf", &s.AnyOf},
	} {
		seq := document.MapGet(node, comp.key)
		for i, member := range document.Items(seq) {
			id, err := r.ResolveNode(member, path+"/"+comp.key+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			*comp.dst = append(*comp.dst, id)
		}
	}

	if props := document.MapGet(node, "properties"); props != nil {
		for _, pair := range document.MapPairs(props) {
			id, err := r.ResolveNode(pair.Value, path+"/properties/"+escapeToken(pair.Key))
			if err != nil {
				return nil, err
			}
			s.Properties = append(s.Properties, canon.Property{Name: pair.Key, Schema: id})
		}
	}
	s.Required = document.AsStringSlice(document.MapGet(node, "required"))

	if items := document.MapGet(node, "items"); items != nil {
		id, err := r.ResolveNode(items, path+"/items")
		if err != nil {
			return nil, err
		}
		s.Items = id
	}

	if add := document.MapGet(node, "additionalProperties"); add != nil {
		switch {
		case document.IsMapping(add):
			id, err := r.ResolveNode(add, path+"/additionalProperties")
			if err != nil {
				return nil, err
			}
			s.AdditionalProperties = id
			s.HasAdditional = true
		case add.Kind == yaml.ScalarNode && add.Tag == "!!bool" && add.Value == "true":
			s.AdditionalProperties = r.table.Intern(&canon.Schema{})
			s.HasAdditional = true
		}
		// additionalProperties: false closes the object; nothing to record.
	}

	return s, nil
}

// fillMetadata copies fields excluded from the content identity.
func (r *Resolver) fillMetadata(s *canon.Schema, node *yaml.Node) {
	s.Description = document.AsString(document.MapGet(node, "description"))

	// Default is tri-state: omitted, explicit null, or present value.
	for _, pair := range document.MapPairs(node) {
		if pair.Key != "default" {
			continue
		}
		s.HasDefault = true
		if document.IsNull(pair.Value) {
			s.DefaultNull = true
			break
		}
		// Scalars normalize to nil/bool/int64/float64/string; composite
		// defaults keep their decoded shape.
		if v, ok := document.ScalarValue(pair.Value); ok {
			s.Default = v
			break
		}
		var v any
		if pair.Value != nil && pair.Value.Decode(&v) == nil {
			s.Default = v
		}
		break
	}
}

// typeList reads the type keyword, which may be a scalar or a 3.1 type
// array. It returns the non-null types and whether null was declared.
func typeList(node *yaml.Node) ([]string, bool) {
	t := document.MapGet(node, "type")
	if t == nil {
		return nil, false
	}
	if t.Kind == yaml.ScalarNode {
		if t.Value == "null" {
			return nil, true
		}
		return []string{t.Value}, false
	}
	var types []string
	nullable := false
	for _, item := range document.Items(t) {
		v := document.AsString(item)
		if v == "null" {
			nullable = true
			continue
		}
		types = append(types, v)
	}
	return types, nullable
}

// escapeToken applies RFC 6901 escaping for pointer construction.
func escapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
