// Package operation walks the document's path items and produces one
// Operation record per path+method, with parameters partitioned by
// location, the request body picked by media-type priority, and
// responses grouped by status class.
package operation

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/frijol-dev/frijol/internal/canon"
	"github.com/frijol-dev/frijol/internal/document"
	"github.com/frijol-dev/frijol/internal/golang"
	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/resolver"
	"github.com/frijol-dev/frijol/internal/sanitize"
	"github.com/frijol-dev/frijol/internal/specerr"
	"github.com/frijol-dev/frijol/internal/translate"
)

// httpMethods is the closed set of operation keys a path item may carry.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// pathItemKeys are the non-operation keys of a path item.
var pathItemKeys = map[string]bool{
	"parameters": true, "summary": true, "description": true,
	"servers": true, "$ref": true,
}

var locations = map[string]ir.Location{
	"path":   ir.LocationPath,
	"query":  ir.LocationQuery,
	"header": ir.LocationHeader,
	"cookie": ir.LocationCookie,
}

// bodyMediaTypes is the priority order for request bodies. One media
// type per operation; the first supported one wins.
var bodyMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/octet-stream",
}

const noDescription = "No description provided. See OpenAPI spec for details."

// Extractor produces Operation records from the document's paths,
// resolving every schema it meets through the shared canonical table.
type Extractor struct {
	root *yaml.Node
	res  *resolver.Resolver
	tr   *translate.Translator
	san  *sanitize.Sanitizer
	log  *slog.Logger
}

// New creates an extractor sharing the run's resolver and translator.
func New(root *yaml.Node, res *resolver.Resolver, tr *translate.Translator, san *sanitize.Sanitizer, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if san == nil {
		san = sanitize.New(log)
	}
	return &Extractor{root: root, res: res, tr: tr, san: san, log: log}
}

// Extract walks every path item in declaration order. A path item key
// that is neither an HTTP method, a known path-item field, nor an
// extension fails with a SchemaError.
func (e *Extractor) Extract() ([]ir.Operation, error) {
	var ops []ir.Operation
	paths := document.MapGet(e.root, "paths")
	for _, pair := range document.MapPairs(paths) {
		item, err := e.derefObject(pair.Value)
		if err != nil {
			return nil, err
		}
		pointer := "#/paths/" + escapeToken(pair.Key)
		e.log.Debug("extracting path", "path", pair.Key)

		shared := document.Items(document.MapGet(item, "parameters"))

		for _, entry := range document.MapPairs(item) {
			key := strings.ToLower(entry.Key)
			if pathItemKeys[key] || strings.HasPrefix(key, "x-") {
				continue
			}
			if !httpMethods[key] {
				return nil, &specerr.SchemaError{
					Path:    pointer + "/" + entry.Key,
					Message: fmt.Sprintf("unknown HTTP method %q", entry.Key),
				}
			}

			op, err := e.extractOperation(pair.Key, key, entry.Value, item, shared, pointer+"/"+key)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func (e *Extractor) extractOperation(path, method string, opNode, item *yaml.Node, shared []*yaml.Node, pointer string) (ir.Operation, error) {
	tokens := normalizeTokens(path)

	params, err := e.extractParameters(shared, opNode, pointer)
	if err != nil {
		return ir.Operation{}, err
	}

	body, err := e.extractBody(opNode, pointer)
	if err != nil {
		return ir.Operation{}, err
	}

	responses, err := e.extractResponses(opNode, pointer)
	if err != nil {
		return ir.Operation{}, err
	}

	return ir.Operation{
		Name:           e.operationName(opNode, method, path),
		Method:         strings.ToUpper(method),
		Path:           path,
		NormalizedPath: applyTokens(path, tokens),
		Tokens:         tokens,
		Doc:            e.san.Sanitize(synthesizeDoc(opNode, item), sanitize.ModeDoc),
		Parameters:     params,
		Body:           body,
		Responses:      responses,
	}, nil
}

// operationName uses operationId when present and otherwise synthesizes
// a name from the method and path.
func (e *Extractor) operationName(opNode *yaml.Node, method, path string) sanitize.String {
	raw := document.AsString(document.MapGet(opNode, "operationId"))
	if raw == "" {
		var b strings.Builder
		b.WriteString(method)
		for _, r := range path {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		}
		raw = b.String()
	}
	return e.san.Sanitize(golang.PascalCase(raw), sanitize.ModeID)
}

// extractParameters merges path-level and operation-level parameters and
// orders them by location group: path, query, header, cookie.
func (e *Extractor) extractParameters(shared []*yaml.Node, opNode *yaml.Node, pointer string) ([]ir.Parameter, error) {
	raw := append(append([]*yaml.Node{}, shared...), document.Items(document.MapGet(opNode, "parameters"))...)

	var params []ir.Parameter
	for i, node := range raw {
		ptr := fmt.Sprintf("%s/parameters/%d", pointer, i)
		p, err := e.extractParameter(node, ptr)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	// Stable within a group, so declaration order survives.
	ordered := make([]ir.Parameter, 0, len(params))
	for _, loc := range []ir.Location{ir.LocationPath, ir.LocationQuery, ir.LocationHeader, ir.LocationCookie} {
		for _, p := range params {
			if p.Location == loc {
				ordered = append(ordered, p)
			}
		}
	}
	return ordered, nil
}

func (e *Extractor) extractParameter(node *yaml.Node, pointer string) (ir.Parameter, error) {
	node, err := e.derefObject(node)
	if err != nil {
		return ir.Parameter{}, err
	}

	name := document.AsString(document.MapGet(node, "name"))
	rawLoc := document.AsString(document.MapGet(node, "in"))
	loc, ok := locations[rawLoc]
	if !ok {
		return ir.Parameter{}, &specerr.SchemaError{
			Path:    pointer,
			Message: fmt.Sprintf("unknown location %q for parameter %q", rawLoc, name),
		}
	}

	typ, schema, err := e.typeOf(document.MapGet(node, "schema"), pointer+"/schema")
	if err != nil {
		return ir.Parameter{}, err
	}

	return ir.Parameter{
		Name:     e.normalizeName(name),
		APIName:  name,
		Location: loc,
		Doc:      e.san.Sanitize(document.AsString(document.MapGet(node, "description")), sanitize.ModeDoc),
		Type:     typ,
		Required: document.AsBool(document.MapGet(node, "required")),
		Default:  translate.DefaultOf(schema),
	}, nil
}

// extractBody picks one request body by media-type priority. An
// unsupported content type degrades to Any with a warning.
func (e *Extractor) extractBody(opNode *yaml.Node, pointer string) (*ir.Body, error) {
	req := document.MapGet(opNode, "requestBody")
	if req == nil {
		return nil, nil
	}
	req, err := e.derefObject(req)
	if err != nil {
		return nil, err
	}

	required := document.AsBool(document.MapGet(req, "required"))
	doc := document.AsString(document.MapGet(req, "description"))
	if doc == "" {
		doc = "Request body."
	}

	content := document.MapGet(req, "content")
	for _, mime := range bodyMediaTypes {
		media := document.MapGet(content, mime)
		if media == nil {
			continue
		}
		typ, _, err := e.typeOf(document.MapGet(media, "schema"), pointer+"/requestBody/content/"+escapeToken(mime)+"/schema")
		if err != nil {
			return nil, err
		}
		return &ir.Body{
			Type:      typ,
			MediaType: mime,
			Required:  required,
			Doc:       e.san.Sanitize(doc, sanitize.ModeDoc),
		}, nil
	}

	e.log.Warn("request body has no supported media type",
		"pointer", pointer,
		"supported", strings.Join(bodyMediaTypes, ", "))
	return &ir.Body{
		Type:     anyType(),
		Required: required,
		Doc:      e.san.Sanitize(doc, sanitize.ModeDoc),
	}, nil
}

// extractResponses groups response types by status class. Codes in one
// class merge into a union; "default" responses are skipped as
// ambiguous; bodyless responses contribute a nil type.
func (e *Extractor) extractResponses(opNode *yaml.Node, pointer string) (map[ir.StatusClass]*ir.Type, error) {
	byClass := make(map[ir.StatusClass][]*ir.Type)
	declared := make(map[ir.StatusClass]bool)

	for _, pair := range document.MapPairs(document.MapGet(opNode, "responses")) {
		if pair.Key == "default" {
			e.log.Debug("skipping ambiguous default response", "pointer", pointer)
			continue
		}
		class, ok := statusClass(pair.Key)
		if !ok {
			e.log.Warn("skipping response with invalid status code",
				"code", pair.Key, "pointer", pointer)
			continue
		}

		resp, err := e.derefObject(pair.Value)
		if err != nil {
			return nil, err
		}

		typ, ok, err := e.responseType(resp, pointer+"/responses/"+pair.Key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		declared[class] = true
		if typ != nil {
			byClass[class] = append(byClass[class], typ)
		}
	}

	out := make(map[ir.StatusClass]*ir.Type, len(declared))
	for class := range declared {
		types := byClass[class]
		switch len(types) {
		case 0:
			out[class] = nil
		case 1:
			out[class] = types[0]
		default:
			out[class] = &ir.Type{Kind: ir.KindUnion, Members: types}
		}
	}
	return out, nil
}

// responseType returns the type of one response body. JSON beats
// binary; a response without content is a declared bodyless response.
// Unsupported content types are skipped with a warning.
func (e *Extractor) responseType(resp *yaml.Node, pointer string) (*ir.Type, bool, error) {
	content := document.MapGet(resp, "content")
	if media := document.MapGet(content, "application/json"); media != nil {
		typ, _, err := e.typeOf(document.MapGet(media, "schema"), pointer+"/content/application~1json/schema")
		if err != nil {
			return nil, false, err
		}
		return typ, true, nil
	}
	if document.MapGet(content, "application/octet-stream") != nil {
		return &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveBinary}, true, nil
	}
	if len(document.MapPairs(content)) == 0 {
		return nil, true, nil
	}
	e.log.Warn("response has no supported media type", "pointer", pointer)
	return nil, false, nil
}

// typeOf canonicalizes and translates a schema node. A missing schema is
// Any. The canonical schema comes back too so callers can read defaults.
func (e *Extractor) typeOf(node *yaml.Node, pointer string) (*ir.Type, *canon.Schema, error) {
	if node == nil {
		return anyType(), &canon.Schema{}, nil
	}
	id, err := e.res.ResolveNode(node, pointer)
	if err != nil {
		return nil, nil, err
	}
	typ, err := e.tr.TypeFor(id, pointer)
	if err != nil {
		return nil, nil, err
	}
	return typ, e.res.Table().Get(id), nil
}

// derefObject follows a $ref-only object (parameter, requestBody,
// response aliases) to its in-document target.
func (e *Extractor) derefObject(node *yaml.Node) (*yaml.Node, error) {
	for range 8 {
		ref := document.AsString(document.MapGet(node, "$ref"))
		if ref == "" {
			return node, nil
		}
		target, err := document.ResolvePointer(e.root, ref)
		if err != nil {
			return nil, err
		}
		node = target
	}
	return nil, &specerr.ResolutionError{Message: "reference chain too deep"}
}

func (e *Extractor) normalizeName(name string) sanitize.String {
	return e.san.Sanitize(golang.SnakeCase(name), sanitize.ModeID)
}

// normalizeTokens extracts the {token} parameters of a path template and
// pairs each with its normalized spelling. The pairing stays bijective:
// two originals normalizing identically get numeric suffixes.
func normalizeTokens(path string) []ir.PathToken {
	var tokens []ir.PathToken
	taken := make(map[string]bool)

	for i := 0; i < len(path); i++ {
		if path[i] != '{' {
			continue
		}
		end := strings.IndexByte(path[i:], '}')
		if end <= 1 {
			continue
		}
		original := path[i+1 : i+end]
		i += end

		normalized := sanitize.Identifier(golang.SnakeCase(original))
		if taken[normalized] {
			base := normalized
			for n := 2; taken[normalized]; n++ {
				normalized = base + "_" + strconv.Itoa(n)
			}
		}
		taken[normalized] = true
		tokens = append(tokens, ir.PathToken{Original: original, Normalized: normalized})
	}
	return tokens
}

// applyTokens rewrites the template with normalized parameter names.
func applyTokens(path string, tokens []ir.PathToken) string {
	out := path
	for _, tok := range tokens {
		out = strings.Replace(out, "{"+tok.Original+"}", "{"+tok.Normalized+"}", 1)
	}
	return out
}

// synthesizeDoc joins summary, operation description, and path
// description, skipping a path description already contained in the
// operation's own.
func synthesizeDoc(opNode, item *yaml.Node) string {
	summary := strings.TrimSpace(document.AsString(document.MapGet(opNode, "summary")))
	opDesc := strings.TrimSpace(document.AsString(document.MapGet(opNode, "description")))
	pathDesc := strings.TrimSpace(document.AsString(document.MapGet(item, "description")))
	if pathDesc != "" && strings.Contains(opDesc, pathDesc) {
		pathDesc = ""
	}

	var parts []string
	for _, p := range []string{summary, opDesc, pathDesc} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return noDescription
	}
	return strings.Join(parts, "\n\n")
}

// statusClass parses a literal three-digit status code into its class.
func statusClass(code string) (ir.StatusClass, bool) {
	if len(code) != 3 {
		return 0, false
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 100 || n > 599 {
		return 0, false
	}
	return ir.StatusClass(n / 100), true
}

func anyType() *ir.Type {
	return &ir.Type{Kind: ir.KindPrimitive, Primitive: ir.PrimitiveAny}
}

// escapeToken applies RFC 6901 escaping for a pointer segment.
func escapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
