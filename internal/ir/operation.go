package ir

import (
	"sort"

	"github.com/frijol-dev/frijol/internal/sanitize"
)

// Location is the closed set of parameter locations.
type Location int

const (
	LocationPath Location = iota
	LocationQuery
	LocationHeader
	LocationCookie
)

func (l Location) String() string {
	switch l {
	case LocationPath:
		return "path"
	case LocationQuery:
		return "query"
	case LocationHeader:
		return "header"
	case LocationCookie:
		return "cookie"
	default:
		return "unknown"
	}
}

// Parameter is one operation argument. Parameters are ordered by
// location group: path, then query, then header, then cookie.
type Parameter struct {
	// Name is the identifier-safe, normalized argument name.
	Name sanitize.String
	// APIName is the original parameter name used on the wire.
	APIName  string
	Location Location
	Doc      sanitize.String

	Type     *Type
	Required bool
	Default  Default
}

// Body is the request body of an operation.
type Body struct {
	Type      *Type
	MediaType string
	Required  bool
	Doc       sanitize.String
}

// StatusClass groups HTTP status codes by their first digit.
type StatusClass int

const (
	Status1xx StatusClass = 1
	Status2xx StatusClass = 2
	Status3xx StatusClass = 3
	Status4xx StatusClass = 4
	Status5xx StatusClass = 5
)

// PathToken is one path template parameter in both its original and
// normalized spelling. The pairing is the bijective mapping request
// construction relies on.
type PathToken struct {
	Original   string
	Normalized string
}

// Operation is one path+method entry of the document.
type Operation struct {
	// Name is the identifier-safe operation name, from operationId or
	// synthesized from method and path.
	Name sanitize.String

	Method string
	// Path is the original path template.
	Path string
	// NormalizedPath is the template with parameter tokens normalized;
	// parameters bind to the normalized names.
	NormalizedPath string
	Tokens         []PathToken

	Doc sanitize.String

	Parameters []Parameter
	Body       *Body

	// Responses maps each status class to the (possibly union) response
	// type declared for codes in that class. A nil value means the class
	// is declared but carries no body (204 and friends).
	Responses map[StatusClass]*Type
}

// ResponseClasses returns the declared status classes in ascending order.
func (o *Operation) ResponseClasses() []StatusClass {
	classes := make([]StatusClass, 0, len(o.Responses))
	for c := range o.Responses {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// SuccessType returns the 2xx response type, or nil.
func (o *Operation) SuccessType() *Type { return o.Responses[Status2xx] }

// ErrorType returns the merged 4xx/5xx response type, or nil.
func (o *Operation) ErrorType() *Type {
	client := o.Responses[Status4xx]
	server := o.Responses[Status5xx]
	switch {
	case client == nil:
		return server
	case server == nil:
		return client
	default:
		return &Type{Kind: KindUnion, Members: []*Type{client, server}}
	}
}

// ParametersIn returns the parameters declared in one location, in
// declaration order.
func (o *Operation) ParametersIn(loc Location) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// IR is the final pipeline output: metadata, named types, operations.
type IR struct {
	Title       sanitize.String
	Description sanitize.String
	Version     sanitize.String

	Types      []TypeDef
	Operations []Operation
}
