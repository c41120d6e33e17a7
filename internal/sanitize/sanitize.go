// Package sanitize makes strings from an untrusted OpenAPI document safe
// to embed in generated Go source.
//
// MODIFYING THIS PACKAGE HAS SECURITY IMPLICATIONS.
//
// A schema name like `User"; os.Exit(1); var _ = "` must never reach an
// identifier or string-literal position unescaped. Sanitization is total:
// it degrades unsafe input instead of rejecting it, because malformed and
// malicious specs are expected input.
//
// See: CVE-2020-15142, GHSA-9x4c-63pf-525f
package sanitize

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// Mode selects the output context a raw string is being made safe for.
type Mode int

const (
	// ModeID produces a syntactically valid Go identifier.
	ModeID Mode = iota
	// ModeString produces text safe inside a double-quoted Go string literal.
	ModeString
	// ModeDoc produces text safe inside a Go comment block.
	ModeDoc
)

func (m Mode) String() string {
	switch m {
	case ModeID:
		return "id"
	case ModeString:
		return "str"
	case ModeDoc:
		return "doc"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// String is a sanitized string bound to the mode it was sanitized for.
// Only this package constructs it.
type String struct {
	value    string
	mode     Mode
	degraded bool
}

// Value returns the sanitized text.
func (s String) Value() string { return s.value }

func (s String) String() string { return s.value }

// Mode returns the output context the value is safe for.
func (s String) Mode() Mode { return s.mode }

// Degraded reports whether sanitization had to alter the input.
func (s String) Degraded() bool { return s.degraded }

// Sanitizer converts raw document strings into safe output. Degradations
// are logged at Warn level.
type Sanitizer struct {
	log *slog.Logger
}

// New returns a Sanitizer logging degradations to log. A nil logger
// discards them.
func New(log *slog.Logger) *Sanitizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Sanitizer{log: log}
}

// Sanitize returns a value safe for the given mode. It never fails and is
// deterministic: equal inputs produce equal outputs.
func (s *Sanitizer) Sanitize(value string, mode Mode) String {
	var out string
	switch mode {
	case ModeID:
		out = Identifier(value)
	case ModeString:
		out = Literal(value)
	case ModeDoc:
		out = Doc(value)
	default:
		// Unknown modes degrade to the strictest context.
		out = Identifier(value)
		mode = ModeID
	}

	degraded := out != value
	if degraded {
		s.log.Warn("sanitized unsafe input",
			"mode", mode.String(),
			"input", truncate(value),
			"output", truncate(out))
	}

	return String{value: out, mode: mode, degraded: degraded}
}

// goKeywords and goPredeclared together form the reserved-word set that
// would shadow or collide in generated code.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

var goPredeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true,
	"complex64": true, "complex128": true, "error": true, "float32": true,
	"float64": true, "int": true, "int8": true, "int16": true, "int32": true,
	"int64": true, "rune": true, "string": true, "uint": true, "uint8": true,
	"uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"true": true, "false": true, "iota": true, "nil": true,
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

// Identifier converts an arbitrary string into a valid Go identifier.
// Characters outside [A-Za-z0-9_] become underscores, runs of underscores
// collapse, and reserved words gain a trailing underscore. Empty or fully
// invalid input degrades to "X".
func Identifier(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '_' || unicode.IsDigit(r):
			b.WriteRune(r)
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := collapseUnderscores(b.String())
	out = strings.Trim(out, "_")

	if out == "" {
		return "X"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "X" + out
	}
	if goKeywords[out] || goPredeclared[out] {
		out += "_"
	}
	return out
}

// Literal escapes a string for safe inclusion inside a double-quoted Go
// string literal. The output never contains an unescaped quote,
// backslash, or control character.
func Literal(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Doc makes a string safe for a Go comment. Carriage returns and other
// control characters (except newline and tab) are dropped, and "*/" is
// broken so a block comment cannot be terminated early.
func Doc(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(b.String(), "*/", `*\/`)
}

// Tag makes a string safe inside a raw-string struct tag literal. A
// backtick would terminate the literal early, so backticks and control
// characters are dropped. Quoting for the tag value itself is the
// caller's job.
func Tag(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '`' || r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

func truncate(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
