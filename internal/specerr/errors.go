// Package specerr provides the typed errors produced by the generation
// pipeline. Every fatal error carries a path into the source document so
// callers can point at the offending schema. All types support errors.Is
// via sentinels and errors.As via the concrete structs.
package specerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrParse indicates the document does not have the minimal required shape.
	ErrParse = errors.New("parse error")

	// ErrResolution indicates a pointer could not be dereferenced.
	ErrResolution = errors.New("resolution error")

	// ErrTranslation indicates an unsupported or contradictory schema combination.
	ErrTranslation = errors.New("translation error")

	// ErrSchema indicates a declared construct violates a closed enumeration.
	ErrSchema = errors.New("schema error")
)

// ParseError reports that the input tree is missing required structure,
// such as the top-level "openapi" key or a mapping where one is expected.
type ParseError struct {
	// Path locates the problem inside the document, e.g. "#/paths".
	Path    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
	}
	return "parse error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrParse
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ResolutionError reports a pointer that does not exist in the document,
// is malformed, or escapes the addressable schema namespace.
type ResolutionError struct {
	// Ref is the raw pointer as written in the document.
	Ref     string
	Message string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", e.Ref, e.Message)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

func (e *ResolutionError) Unwrap() error { return ErrResolution }

// TranslationError reports a schema combination the type translator
// cannot express, such as an allOf merge with conflicting field types.
type TranslationError struct {
	// Path locates the offending schema, e.g. "#/components/schemas/Admin".
	Path    string
	Message string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("cannot translate %s: %s", e.Path, e.Message)
}

func (e *TranslationError) Is(target error) bool { return target == ErrTranslation }

func (e *TranslationError) Unwrap() error { return ErrTranslation }

// SchemaError reports a declared value outside a closed enumeration,
// such as an unknown parameter location or HTTP method.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema error at %s: %s", e.Path, e.Message)
	}
	return "schema error: " + e.Message
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return ErrSchema }
