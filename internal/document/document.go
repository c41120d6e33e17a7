// Package document provides the generic parsed tree the pipeline
// consumes: ordered mappings, sequences, and scalars as yaml nodes.
// JSON input parses through the same path since YAML is a superset.
package document

import (
	"strconv"
	"strings"

	"github.com/frijol-dev/frijol/internal/specerr"
	"go.yaml.in/yaml/v4"
)

// Parse decodes raw document bytes into the root mapping node.
func Parse(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &specerr.ParseError{Message: "invalid YAML/JSON", Cause: err}
	}
	node := Deref(&root)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, &specerr.ParseError{Path: "#", Message: "document root must be a mapping"}
	}
	return node, nil
}

// Deref unwraps document and alias nodes down to the underlying node.
func Deref(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

// MapGet returns the value for key in a mapping node, or nil.
func MapGet(node *yaml.Node, key string) *yaml.Node {
	node = Deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return Deref(node.Content[i+1])
		}
	}
	return nil
}

// Pair is one key/value entry of a mapping node in declaration order.
type Pair struct {
	Key   string
	Value *yaml.Node
}

// MapPairs returns the entries of a mapping node in declaration order.
func MapPairs(node *yaml.Node) []Pair {
	node = Deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]Pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, Pair{
			Key:   node.Content[i].Value,
			Value: Deref(node.Content[i+1]),
		})
	}
	return pairs
}

// Items returns the elements of a sequence node.
func Items(node *yaml.Node) []*yaml.Node {
	node = Deref(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	items := make([]*yaml.Node, 0, len(node.Content))
	for _, c := range node.Content {
		items = append(items, Deref(c))
	}
	return items
}

// ResolvePointer walks a JSON-pointer style reference ("#/a/b/0") from
// root. Only in-document references are addressable.
func ResolvePointer(root *yaml.Node, ref string) (*yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, &specerr.ResolutionError{Ref: ref, Message: "only in-document references are supported"}
	}
	pointer := strings.TrimPrefix(ref, "#")
	if pointer == "" {
		return Deref(root), nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, &specerr.ResolutionError{Ref: ref, Message: "malformed pointer"}
	}

	node := Deref(root)
	for _, token := range strings.Split(pointer[1:], "/") {
		token = unescapeToken(token)
		if node == nil {
			return nil, &specerr.ResolutionError{Ref: ref, Message: "pointer target does not exist"}
		}
		switch node.Kind {
		case yaml.MappingNode:
			node = MapGet(node, token)
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return nil, &specerr.ResolutionError{Ref: ref, Message: "invalid sequence index " + strconv.Quote(token)}
			}
			node = Deref(node.Content[idx])
		default:
			return nil, &specerr.ResolutionError{Ref: ref, Message: "pointer traverses a scalar"}
		}
	}
	if node == nil {
		return nil, &specerr.ResolutionError{Ref: ref, Message: "pointer target does not exist"}
	}
	return node, nil
}

// unescapeToken applies RFC 6901 unescaping: ~1 is "/", ~0 is "~".
func unescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// IsNull reports whether a node is an explicit YAML/JSON null.
func IsNull(node *yaml.Node) bool {
	node = Deref(node)
	return node != nil && node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// AsString returns the scalar string value, or "".
func AsString(node *yaml.Node) string {
	node = Deref(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

// AsBool returns the scalar boolean value, treating anything that is not
// a literal boolean as false. Truthiness of arbitrary values from an
// untrusted document is never inferred.
func AsBool(node *yaml.Node) bool {
	node = Deref(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag != "!!bool" {
		return false
	}
	return node.Value == "true"
}

// AsStringSlice returns a sequence of scalar strings.
func AsStringSlice(node *yaml.Node) []string {
	items := Items(node)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, AsString(it))
	}
	return out
}

// ScalarValue converts a scalar node into its Go value: nil, bool,
// int64, float64, or string. Non-scalar nodes return nil, false.
func ScalarValue(node *yaml.Node) (any, bool) {
	node = Deref(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return nil, false
	}
	switch node.Tag {
	case "!!null":
		return nil, true
	case "!!bool":
		return node.Value == "true", true
	case "!!int":
		if v, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
			return v, true
		}
		return node.Value, true
	case "!!float":
		if v, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return v, true
		}
		return node.Value, true
	default:
		return node.Value, true
	}
}

// IsMapping reports whether node is a mapping.
func IsMapping(node *yaml.Node) bool {
	node = Deref(node)
	return node != nil && node.Kind == yaml.MappingNode
}
