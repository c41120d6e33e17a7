package golang

import (
	"strings"
	"testing"

	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/sanitize"
	"github.com/stretchr/testify/assert"
)

func id(s string) sanitize.String {
	return sanitize.New(nil).Sanitize(s, sanitize.ModeID)
}

func TestGoType(t *testing.T) {
	tests := []struct {
		name string
		typ  *ir.Type
		want string
	}{
		{"any", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveAny}, "any"},
		{"string", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveString}, "string"},
		{"date-time", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveString, Format: "date-time"}, "time.Time"},
		{"int64", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveInteger, Format: "int64"}, "int64"},
		{"plain integer", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveInteger}, "int"},
		{"float", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveNumber, Format: "float"}, "float32"},
		{"binary", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveBinary}, "[]byte"},
		{"nullable string", &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveString, Nullable: true}, "*string"},
		{
			"array of refs",
			&ir.Type{Kind: ir.KindArray, Elem: &ir.Type{Kind: ir.KindReference, Ref: id("pet")}},
			"[]Pet",
		},
		{
			"nullable array stays a slice",
			&ir.Type{Kind: ir.KindArray, Nullable: true, Elem: &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveString}},
			"[]string",
		},
		{
			"map",
			&ir.Type{Kind: ir.KindMap, Value: &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveInteger}},
			"map[string]int",
		},
		{"union", &ir.Type{Kind: ir.KindUnion}, "any"},
		{"reference", &ir.Type{Kind: ir.KindReference, Ref: id("user_profile")}, "UserProfile"},
		{"string enum", &ir.Type{Kind: ir.KindEnum, Values: []any{"a", "b"}}, "string"},
		{"int enum", &ir.Type{Kind: ir.KindEnum, Values: []any{int64(1)}}, "int64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GoType(tt.typ))
		})
	}
}

func TestFieldType(t *testing.T) {
	str := &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveString}

	required := ir.Field{Name: id("name"), Type: str, Required: true}
	assert.Equal(t, "string", FieldType(required))

	optional := ir.Field{Name: id("name"), Type: str}
	assert.Equal(t, "*string", FieldType(optional))

	nullable := ir.Field{Name: id("name"), Type: str, Required: true, Nullable: true}
	assert.Equal(t, "*string", FieldType(nullable))

	optionalSlice := ir.Field{Name: id("tags"), Type: &ir.Type{Kind: ir.KindArray, Elem: str}}
	assert.Equal(t, "[]string", FieldType(optionalSlice))
}

func TestStructTag(t *testing.T) {
	f := ir.Field{Name: id("pet_id"), APIName: "petId", Required: true}
	assert.Equal(t, "`json:\"petId\"`", StructTag(f))

	f.Required = false
	assert.Equal(t, "`json:\"petId,omitempty\"`", StructTag(f))
}

func TestStructTagEscapesBackticks(t *testing.T) {
	f := ir.Field{Name: id("evil"), APIName: "evil\",x`,y Z", Required: true}
	tag := StructTag(f)

	// Only the two delimiters may be backticks.
	assert.Equal(t, 2, strings.Count(tag, "`"))
	assert.True(t, strings.HasPrefix(tag, "`"))
	assert.True(t, strings.HasSuffix(tag, "`"))
	assert.NotContains(t, tag[1:len(tag)-1], "`")

	empty := ir.Field{Name: id("x"), APIName: "```", Required: true}
	assert.Equal(t, "`json:\"x\"`", StructTag(empty))
}

func TestMethodParamsAndResults(t *testing.T) {
	op := ir.Operation{
		Name:   id("get_user"),
		Method: "GET",
		Parameters: []ir.Parameter{
			{
				Name:     id("user_id"),
				Location: ir.LocationPath,
				Required: true,
				Type:     &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveInteger, Format: "int64"},
			},
			{
				Name:     id("limit"),
				Location: ir.LocationQuery,
				Type:     &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveInteger},
			},
		},
		Responses: map[ir.StatusClass]*ir.Type{
			ir.Status2xx: {Kind: ir.KindReference, Ref: id("user")},
		},
	}

	assert.Equal(t, "ctx context.Context, userID int64, limit *int", MethodParams(op))
	assert.Equal(t, "(User, *http.Response, error)", MethodResults(op))
}

func TestMethodResultsWithoutBody(t *testing.T) {
	op := ir.Operation{Responses: map[ir.StatusClass]*ir.Type{ir.Status2xx: nil}}
	assert.Equal(t, "(*http.Response, error)", MethodResults(op))
}

func TestPathExpr(t *testing.T) {
	op := ir.Operation{
		Path:           "/users/{userId}/posts/{postId}",
		NormalizedPath: "/users/{user_id}/posts/{post_id}",
		Tokens: []ir.PathToken{
			{Original: "userId", Normalized: "user_id"},
			{Original: "postId", Normalized: "post_id"},
		},
		Parameters: []ir.Parameter{
			{Name: id("user_id"), Location: ir.LocationPath, Required: true},
			{Name: id("post_id"), Location: ir.LocationPath, Required: true},
		},
	}
	assert.Equal(t, `fmt.Sprintf("/users/%v/posts/%v", userID, postID)`, PathExpr(op))

	plain := ir.Operation{NormalizedPath: "/users"}
	assert.Equal(t, `"/users"`, PathExpr(plain))
}

func TestPathExprEscapesPercent(t *testing.T) {
	op := ir.Operation{
		NormalizedPath: "/a%20b/{id}",
		Tokens:         []ir.PathToken{{Original: "id", Normalized: "id"}},
		Parameters: []ir.Parameter{
			{Name: id("id"), Location: ir.LocationPath, Required: true},
		},
	}
	assert.Equal(t, `fmt.Sprintf("/a%%20b/%v", id)`, PathExpr(op))

	// Without tokens the path is a plain literal, not a format string.
	plain := ir.Operation{NormalizedPath: "/a%20b"}
	assert.Equal(t, `"/a%20b"`, PathExpr(plain))
}

func TestEnumConstName(t *testing.T) {
	assert.Equal(t, "Available", EnumConstName("available"))
	assert.Equal(t, "NotFound", EnumConstName("not-found"))
	assert.Equal(t, "X42", EnumConstName(int64(42)))
}
