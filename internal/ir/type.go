// Package ir is the intermediate representation handed to the renderer:
// an ordered set of named types plus an ordered set of operations. It is
// fully self-contained (no unresolved pointers, no raw unsanitized
// strings) and immutable once produced.
package ir

import "github.com/frijol-dev/frijol/internal/sanitize"

// Kind is the closed set of type variants. Every consumer switches
// exhaustively over it; there is no runtime type inspection.
type Kind int

const (
	KindPrimitive Kind = iota
	KindArray
	KindObject
	KindUnion
	KindMap
	KindEnum
	// KindReference names another canonical type. It links named types
	// to each other and is the only way a cycle appears in the IR.
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindUnion:
		return "union"
	case KindMap:
		return "map"
	case KindEnum:
		return "enum"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Primitive is the closed set of scalar kinds.
type Primitive int

const (
	PrimitiveAny Primitive = iota
	PrimitiveString
	PrimitiveInteger
	PrimitiveNumber
	PrimitiveBoolean
	// PrimitiveBinary is the opaque blob type produced by
	// format: binary strings.
	PrimitiveBinary
)

// Type is one node of the typed representation.
type Type struct {
	Kind Kind

	// Nullable wraps the type: the value may be an explicit null.
	// Independent from whether a field holding it is required.
	Nullable bool

	// Primitive and Format are set for KindPrimitive. Format is a
	// renderer hint (int64, date-time, uuid); it never affects identity.
	Primitive Primitive
	Format    string

	// Elem is the element type of KindArray.
	Elem *Type

	// Fields are the members of KindObject, in declaration order.
	Fields []Field

	// Members are the alternatives of KindUnion. All members are kept;
	// discriminator narrowing is out of scope.
	Members []*Type

	// Value is the value type of KindMap.
	Value *Type

	// Values are the literals of KindEnum.
	Values []any

	// Ref is the display name of the referenced type for KindReference.
	Ref sanitize.String
}

// Field is one member of an object type. Required and Nullable are
// independent axes; all four combinations are representable.
type Field struct {
	// Name is the identifier-safe field name.
	Name sanitize.String
	// APIName is the original wire name from the document.
	APIName string
	Doc     sanitize.String

	Type     *Type
	Required bool
	Nullable bool

	ReadOnly  bool
	WriteOnly bool

	Default Default
}

// DefaultState distinguishes an omitted default from an explicit null
// and from a present value. Never modeled with magic sentinel values.
type DefaultState int

const (
	DefaultOmitted DefaultState = iota
	DefaultNull
	DefaultPresent
)

// Default is the tri-state default value of a field.
type Default struct {
	State DefaultState
	Value any
}

// TypeDef is a named type in the IR, in document declaration order.
type TypeDef struct {
	Name sanitize.String
	Doc  sanitize.String
	Type *Type
}
