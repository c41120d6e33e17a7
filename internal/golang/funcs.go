package golang

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/sanitize"
)

// TemplateFuncs returns the function map the code templates render with.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"pascalCase": PascalCase,
		"camelCase":  CamelCase,
		"snakeCase":  SnakeCase,

		"goType":      GoType,
		"fieldType":   FieldType,
		"structTag":   StructTag,
		"goComment":   GoComment,
		"enumBase":    EnumBaseType,
		"enumLiteral": EnumLiteral,
		"enumConst":   EnumConstName,

		"isObject":    func(t *ir.Type) bool { return t != nil && t.Kind == ir.KindObject },
		"isEnum":      func(t *ir.Type) bool { return t != nil && t.Kind == ir.KindEnum },
		"isUnion":     func(t *ir.Type) bool { return t != nil && t.Kind == ir.KindUnion },
		"isReference": func(t *ir.Type) bool { return t != nil && t.Kind == ir.KindReference },
		"isBinary": func(t *ir.Type) bool {
			return t != nil && t.Kind == ir.KindPrimitive && t.Primitive == ir.PrimitiveBinary
		},

		"methodParams":  MethodParams,
		"methodResults": MethodResults,
		"resultType":    ResultType,
		"pathExpr":      PathExpr,
		"argName":       ArgName,
		"derefArg":      DerefArg,
		"isOptionalArg": IsOptionalArg,
		"queryParams":   func(op ir.Operation) []ir.Parameter { return op.ParametersIn(ir.LocationQuery) },
		"headerParams":  func(op ir.Operation) []ir.Parameter { return op.ParametersIn(ir.LocationHeader) },
		"cookieParams":  func(op ir.Operation) []ir.Parameter { return op.ParametersIn(ir.LocationCookie) },

		"lower":  strings.ToLower,
		"upper":  strings.ToUpper,
		"join":   strings.Join,
		"dict":   Dict,
		"strLit": StringLiteral,
	}
}

// GoComment renders text as a line comment block.
func GoComment(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("// ")
		b.WriteString(strings.TrimSpace(line))
	}
	return b.String()
}

// EnumConstName derives an identifier for one enum value.
func EnumConstName(v any) string {
	return ToGoIdentifier(fmt.Sprint(v))
}

// ArgName is the Go argument name for a parameter.
func ArgName(p ir.Parameter) string {
	return EscapeKeyword(CamelCase(p.Name.Value()))
}

// IsOptionalArg reports whether a parameter is passed as a pointer.
func IsOptionalArg(p ir.Parameter) bool {
	return !p.Required && pointerable(p.Type)
}

// DerefArg renders the value expression of a parameter, dereferencing
// optional pointer arguments.
func DerefArg(p ir.Parameter) string {
	if IsOptionalArg(p) {
		return "*" + ArgName(p)
	}
	return ArgName(p)
}

func paramType(p ir.Parameter) string {
	base := GoType(p.Type)
	if IsOptionalArg(p) {
		return "*" + base
	}
	return base
}

// MethodParams renders the argument list of a client method: context,
// then path, query, header, and cookie parameters, then the body.
func MethodParams(op ir.Operation) string {
	parts := []string{"ctx context.Context"}
	for _, p := range op.Parameters {
		parts = append(parts, ArgName(p)+" "+paramType(p))
	}
	if op.Body != nil {
		parts = append(parts, "body "+GoType(op.Body.Type))
	}
	return strings.Join(parts, ", ")
}

// MethodResults renders the result list. Operations without a declared
// 2xx body return only the response and an error.
func MethodResults(op ir.Operation) string {
	success := op.SuccessType()
	if success == nil {
		return "(*http.Response, error)"
	}
	return "(" + ResultType(success) + ", *http.Response, error)"
}

// ResultType is the decode target for a response body.
func ResultType(t *ir.Type) string {
	if t == nil {
		return "any"
	}
	if t.Kind == ir.KindObject {
		// Anonymous response objects decode into a generic map.
		return "map[string]any"
	}
	return GoType(t)
}

// PathExpr renders the request path expression. Templates with
// parameters become a fmt.Sprintf over the normalized tokens, in the
// order the tokens appear. Percent signs in the template are doubled so
// they survive as literals in the generated format string.
func PathExpr(op ir.Operation) string {
	if len(op.Tokens) == 0 {
		return strconv.Quote(op.NormalizedPath)
	}
	format := strings.ReplaceAll(op.NormalizedPath, "%", "%%")
	var args []string
	for _, tok := range op.Tokens {
		format = strings.Replace(format, "{"+tok.Normalized+"}", "%v", 1)
		args = append(args, pathArgExpr(op, tok.Normalized))
	}
	return fmt.Sprintf("fmt.Sprintf(%s, %s)", strconv.Quote(format), strings.Join(args, ", "))
}

// pathArgExpr finds the argument bound to a normalized path token.
func pathArgExpr(op ir.Operation, normalized string) string {
	for _, p := range op.ParametersIn(ir.LocationPath) {
		if p.Name.Value() == normalized {
			return DerefArg(p)
		}
	}
	// Token without a declared parameter; the generated code cannot
	// fill it, so keep it visible.
	return strconv.Quote("{" + normalized + "}")
}

// StringLiteral renders an untrusted string as a quoted Go literal.
// Every raw document string a template embeds must pass through here.
func StringLiteral(s string) string {
	return `"` + sanitize.Literal(s) + `"`
}

// Dict builds a map from key-value pairs for nested template calls.
func Dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	dict := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		dict[key] = values[i+1]
	}
	return dict
}
