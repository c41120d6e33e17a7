package golang

import (
	"fmt"
	"strings"

	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/sanitize"
)

// GoType renders a type as a Go type expression. Nullability of the
// value itself maps to a pointer; field-level optionality is handled by
// FieldType.
func GoType(t *ir.Type) string {
	if t == nil {
		return "any"
	}
	base := baseType(t)
	if t.Nullable && pointerable(t) {
		return "*" + base
	}
	return base
}

func baseType(t *ir.Type) string {
	switch t.Kind {
	case ir.KindPrimitive:
		return primitiveType(t)
	case ir.KindArray:
		return "[]" + GoType(t.Elem)
	case ir.KindMap:
		return "map[string]" + GoType(t.Value)
	case ir.KindObject:
		return anonymousStruct(t)
	case ir.KindUnion:
		// Go has no sum types; union members survive in docs only.
		return "any"
	case ir.KindEnum:
		return EnumBaseType(t)
	case ir.KindReference:
		return PascalCase(t.Ref.Value())
	default:
		return "any"
	}
}

func primitiveType(t *ir.Type) string {
	switch t.Primitive {
	case ir.PrimitiveString:
		switch t.Format {
		case "date-time":
			return "time.Time"
		case "byte":
			return "[]byte"
		default:
			return "string"
		}
	case ir.PrimitiveInteger:
		return goIntegerType(t.Format)
	case ir.PrimitiveNumber:
		return goNumberType(t.Format)
	case ir.PrimitiveBoolean:
		return "bool"
	case ir.PrimitiveBinary:
		return "[]byte"
	default:
		return "any"
	}
}

func goIntegerType(format string) string {
	switch format {
	case "int32":
		return "int32"
	case "int64":
		return "int64"
	default:
		return "int"
	}
}

func goNumberType(format string) string {
	if format == "float" {
		return "float32"
	}
	return "float64"
}

// anonymousStruct renders an inline object as a struct literal type.
func anonymousStruct(t *ir.Type) string {
	var b strings.Builder
	b.WriteString("struct {\n")
	for _, f := range t.Fields {
		fmt.Fprintf(&b, "\t%s %s %s\n", PascalCase(f.Name.Value()), FieldType(f), StructTag(f))
	}
	b.WriteString("}")
	return b.String()
}

// FieldType renders the type of a struct field. Optional or nullable
// fields of pointerable types become pointers so absence and null stay
// distinguishable from zero values.
func FieldType(f ir.Field) string {
	base := baseType(f.Type)
	if (f.Nullable || f.Type.Nullable || !f.Required) && pointerable(f.Type) {
		return "*" + base
	}
	return base
}

// pointerable reports whether a pointer wrapper adds information.
// Slices, maps, and any already distinguish nil.
func pointerable(t *ir.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case ir.KindArray, ir.KindMap, ir.KindUnion:
		return false
	case ir.KindPrimitive:
		return t.Primitive != ir.PrimitiveAny && t.Primitive != ir.PrimitiveBinary
	default:
		return true
	}
}

// EnumBaseType picks the underlying Go type of an enum from its literal
// values.
func EnumBaseType(t *ir.Type) string {
	for _, v := range t.Values {
		switch v.(type) {
		case string:
			return "string"
		case int64, int:
			return "int64"
		case float64:
			return "float64"
		case bool:
			return "bool"
		}
	}
	return "string"
}

// EnumLiteral formats one enum value as a Go literal.
func EnumLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case nil:
		return `""`
	default:
		return fmt.Sprintf("%v", val)
	}
}

// StructTag renders the json tag for a field: the wire name, with
// omitempty for optional fields. The wire name passes through the tag
// escape so it cannot terminate the raw-string literal.
func StructTag(f ir.Field) string {
	name := sanitize.Tag(f.APIName)
	if name == "" {
		name = f.Name.Value()
	}
	if f.Required {
		return fmt.Sprintf("`json:%q`", name)
	}
	return fmt.Sprintf("`json:%q`", name+",omitempty")
}
