// Package canon holds the canonical, fully-resolved schema nodes the
// resolver produces and the content-identity table that deduplicates
// them. Two schemas with identical structure (ignoring documentation
// metadata) share one identity; the type graph refers to schemas by ID,
// so cyclic documents become ordinary graph structure instead of
// re-entrant traversal.
package canon

// ID is the stable identity of a canonical schema, derived from its
// content hash (or from its pointer path for cyclic roots).
type ID string

// Schema is a resolved, dedup-ready schema node. It still speaks the
// document's schema vocabulary; the translator turns it into the typed
// representation. All cross-references are IDs into the owning Table.
type Schema struct {
	// Name is the canonical display name: the first name this content
	// identity was declared under, empty for anonymous schemas.
	Name string

	// Type is the declared primitive/structural type: "string",
	// "integer", "number", "boolean", "object", "array", or "" when the
	// schema is unconstrained or purely compositional.
	Type   string
	Format string

	// Nullable is set by an explicit nullable flag (3.0) or a "null"
	// entry in a type array (3.1).
	Nullable bool

	ReadOnly  bool
	WriteOnly bool

	// Properties keeps declaration order; the content hash sorts them.
	Properties []Property
	Required   []string

	// Items is the element schema of an array.
	Items ID

	// AdditionalProperties is the value schema of a map-shaped object.
	// HasAdditional distinguishes "absent" from "empty value schema".
	AdditionalProperties ID
	HasAdditional        bool

	AllOf []ID
	OneOf []ID
	AnyOf []ID

	// Enum holds the literal values (string, int64, float64, bool, nil).
	Enum []any

	// RefTo marks an intentional recursion edge: this schema stands for
	// a reference to an in-progress identity. It is the only legal way
	// a cycle appears in the canonical graph.
	RefTo ID

	// Metadata excluded from the content hash.
	Description string
	Default     any
	HasDefault  bool
	DefaultNull bool
}

// Property is one named member of an object schema.
type Property struct {
	Name   string
	Schema ID
}

// IsReference reports whether the schema is a recursion edge.
func (s *Schema) IsReference() bool { return s.RefTo != "" }

// RequiredSet returns the required field names as a set.
func (s *Schema) RequiredSet() map[string]bool {
	if len(s.Required) == 0 {
		return nil
	}
	set := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		set[r] = true
	}
	return set
}
