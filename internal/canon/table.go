package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Table is the canonical node arena for one generation run. It is owned
// by a single resolver instance and must not be shared across runs.
type Table struct {
	byID     map[ID]*Schema
	byHash   map[string]ID
	reserved map[string]ID
	names    []NamedSchema
	named    map[ID]bool
}

// NamedSchema pairs a canonical identity with its display name, in
// document declaration order.
type NamedSchema struct {
	Name string
	ID   ID
}

// NewTable creates an empty canonical table.
func NewTable() *Table {
	return &Table{
		byID:     make(map[ID]*Schema),
		byHash:   make(map[string]ID),
		reserved: make(map[string]ID),
		named:    make(map[ID]bool),
	}
}

// Reserve allocates the provisional identity for the schema at pointer.
// Reserving the same pointer twice yields the same ID. Cyclic roots keep
// this identity permanently so Reference edges created mid-resolution
// stay valid.
func (t *Table) Reserve(pointer string) ID {
	if id, ok := t.reserved[pointer]; ok {
		return id
	}
	sum := sha256.Sum256([]byte("ptr:" + pointer))
	id := ID(hex.EncodeToString(sum[:16]))
	t.reserved[pointer] = id
	return id
}

// Intern stores a schema under its content identity, returning the
// existing ID when an equal structure is already present. The first
// schema interned for an identity keeps its display name.
func (t *Table) Intern(s *Schema) ID {
	h := contentHash(s)
	if id, ok := t.byHash[h]; ok {
		return id
	}
	id := ID(h)
	t.byHash[h] = id
	t.byID[id] = s
	return id
}

// Commit stores a schema at a previously reserved identity. Used for
// cyclic roots, whose identity is fixed before their content is known.
func (t *Table) Commit(id ID, s *Schema) {
	t.byID[id] = s
}

// Get returns the schema stored at id, or nil.
func (t *Table) Get(id ID) *Schema {
	return t.byID[id]
}

// RegisterName records a named schema root in declaration order. The
// first name registered for an identity wins; later structural
// duplicates alias to it and are not re-registered.
func (t *Table) RegisterName(name string, id ID) {
	if t.named[id] {
		return
	}
	t.named[id] = true
	if s := t.byID[id]; s != nil && s.Name == "" {
		s.Name = name
	}
	t.names = append(t.names, NamedSchema{Name: name, ID: id})
}

// Named returns the named schema roots in declaration order.
func (t *Table) Named() []NamedSchema {
	return t.names
}

// NameOf returns the registered display name of id, or "".
func (t *Table) NameOf(id ID) string {
	if s := t.byID[id]; s != nil {
		return s.Name
	}
	return ""
}

// Len returns the number of canonical schemas stored.
func (t *Table) Len() int { return len(t.byID) }

// hashPayload is the normalized structure the content identity is
// computed over. Description, default, and example metadata never
// appear here: they do not affect type compatibility.
type hashPayload struct {
	Variant   string         `json:"v"`
	Type      string         `json:"t,omitempty"`
	Format    string         `json:"f,omitempty"`
	Nullable  bool           `json:"n,omitempty"`
	ReadOnly  bool           `json:"ro,omitempty"`
	WriteOnly bool           `json:"wo,omitempty"`
	Fields    []fieldPayload `json:"p,omitempty"`
	Items     string         `json:"i,omitempty"`
	Add       string         `json:"a,omitempty"`
	HasAdd    bool           `json:"ha,omitempty"`
	AllOf     []string       `json:"all,omitempty"`
	OneOf     []string       `json:"one,omitempty"`
	AnyOf     []string       `json:"any,omitempty"`
	Enum      []string       `json:"e,omitempty"`
	Ref       string         `json:"r,omitempty"`
}

type fieldPayload struct {
	Name     string `json:"n"`
	Type     string `json:"t"`
	Required bool   `json:"req,omitempty"`
}

func contentHash(s *Schema) string {
	p := hashPayload{
		Variant:   variantTag(s),
		Type:      s.Type,
		Format:    s.Format,
		Nullable:  s.Nullable,
		ReadOnly:  s.ReadOnly,
		WriteOnly: s.WriteOnly,
		Items:     string(s.Items),
		Add:       string(s.AdditionalProperties),
		HasAdd:    s.HasAdditional,
		AllOf:     idStrings(s.AllOf),
		OneOf:     idStrings(s.OneOf),
		AnyOf:     idStrings(s.AnyOf),
		Ref:       string(s.RefTo),
	}

	required := s.RequiredSet()
	for _, prop := range s.Properties {
		p.Fields = append(p.Fields, fieldPayload{
			Name:     prop.Name,
			Type:     string(prop.Schema),
			Required: required[prop.Name],
		})
	}
	sort.Slice(p.Fields, func(i, j int) bool { return p.Fields[i].Name < p.Fields[j].Name })

	for _, v := range s.Enum {
		p.Enum = append(p.Enum, fmt.Sprintf("%T:%v", v, v))
	}

	// goccy/go-json keeps struct field order, so the serialization is
	// deterministic for equal payloads.
	data, err := json.Marshal(p)
	if err != nil {
		// The payload is plain structs and strings; marshal cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func variantTag(s *Schema) string {
	switch {
	case s.RefTo != "":
		return "reference"
	case len(s.Enum) > 0:
		return "enum"
	case len(s.AllOf) > 0:
		return "allOf"
	case len(s.OneOf) > 0:
		return "oneOf"
	case len(s.AnyOf) > 0:
		return "anyOf"
	case s.Type != "":
		return s.Type
	default:
		return "any"
	}
}

func idStrings(ids []ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
