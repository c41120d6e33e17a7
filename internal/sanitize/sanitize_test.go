package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Pet", "Pet"},
		{"pet_store", "pet_store"},
		{"pet-store", "pet_store"},
		{"pet store", "pet_store"},
		{"123abc", "X123abc"},
		{"", "X"},
		{"___", "X"},
		{"!!!", "X"},
		{"type", "type_"},
		{"string", "string_"},
		{"func", "func_"},
		{"len", "len_"},
		{"a__b___c", "a_b_c"},
		{"_leading", "leading"},
		{"trailing_", "trailing"},
		{`User"; os.Exit(1); var _ = "`, "User_os_Exit_1_var"},
		{"User:\nimport \"os\"", "User_import_os"},
		{"ünïcödé", "n_c_d"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, Identifier(tt.input))
		})
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"quote", `say "hi"`, `say \"hi\"`},
		{"backslash", `a\b`, `a\\b`},
		{"newline", "a\nb", `a\nb`},
		{"carriage return", "a\rb", `a\rb`},
		{"tab", "a\tb", `a\tb`},
		{"null byte", "a\x00b", "a\\u0000b"},
		{"escape char", "a\x1bb", "a\\u001bb"},
		{"breakout attempt", "\"; panic(\"pwned\"); \"", `\"; panic(\"pwned\"); \"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Literal(tt.input))
		})
	}
}

func TestLiteralNoUnescapedQuote(t *testing.T) {
	inputs := []string{
		`"`, `\"`, `\\"`, `"""`, "a\"b\\", `\`, "quote at end\"",
	}
	for _, in := range inputs {
		out := Literal(in)
		// Every quote must be preceded by an odd number of backslashes.
		for i := 0; i < len(out); i++ {
			if out[i] != '"' {
				continue
			}
			slashes := 0
			for j := i - 1; j >= 0 && out[j] == '\\'; j-- {
				slashes++
			}
			require.Equal(t, 1, slashes%2, "unescaped quote in %q (from %q)", out, in)
		}
	}
}

func TestDoc(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "A pet in the store.", "A pet in the store."},
		{"comment terminator", "end */ escape", `end *\/ escape`},
		{"double terminator", "a */ b */ c", `a *\/ b *\/ c`},
		{"overlapping stars", "**//", `**\//`},
		{"carriage return dropped", "a\r\nb", "a\nb"},
		{"newline kept", "line1\nline2", "line1\nline2"},
		{"control dropped", "a\x00\x1bb", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Doc(tt.input)
			require.Equal(t, tt.expected, got)
			require.NotContains(t, got, "*/")
		})
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "petId", "petId"},
		{"backtick dropped", "evil`,x", "evil,x"},
		{"only backticks", "```", ""},
		{"control dropped", "a\n\x00b", "ab"},
		{"quote kept", `a"b`, `a"b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tag(tt.input)
			require.Equal(t, tt.expected, got)
			require.NotContains(t, got, "`")
		})
	}
}

func TestSanitizeTotalAndDeterministic(t *testing.T) {
	adversarial := []string{
		"",
		"normal",
		`User:\nimport os;"os.system('rm -rf /')"`,
		"\"; DROP TABLE types; --",
		strings.Repeat("*/", 100),
		"\x00\x01\x02\x03",
		"日本語テキスト",
	}

	s := New(nil)
	for _, in := range adversarial {
		for _, mode := range []Mode{ModeID, ModeString, ModeDoc} {
			first := s.Sanitize(in, mode)
			second := s.Sanitize(in, mode)
			require.Equal(t, first.Value(), second.Value())
			require.Equal(t, mode, first.Mode())

			switch mode {
			case ModeID:
				require.NotEmpty(t, first.Value())
			case ModeDoc:
				require.NotContains(t, first.Value(), "*/")
			}
		}
	}
}

func TestSanitizeDegradedFlag(t *testing.T) {
	s := New(nil)

	clean := s.Sanitize("Pet", ModeID)
	require.False(t, clean.Degraded())

	dirty := s.Sanitize("pet store!", ModeID)
	require.True(t, dirty.Degraded())
	require.Equal(t, "pet_store", dirty.Value())
}
