// Package templates embeds the built-in code templates. A custom
// template directory configured by the user overrides entries by name.
package templates

import "embed"

//go:embed templates/*.tmpl
var FS embed.FS
