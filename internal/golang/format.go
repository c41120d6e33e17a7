package golang

import (
	"golang.org/x/tools/imports"
)

// Format runs goimports over a rendered file: gofmt layout plus import
// fixing, so templates never maintain import lists by hand.
func Format(src []byte) ([]byte, error) {
	return imports.Process("", src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
}
