// Package loader fetches the raw specification from a file or URL,
// gates on a supported OpenAPI version, and hands the parsed document
// tree to the pipeline. Syntax errors stop here; the stages behind the
// loader assume a well-formed tree.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	"go.yaml.in/yaml/v4"

	"github.com/frijol-dev/frijol/internal/document"
	"github.com/frijol-dev/frijol/internal/specerr"
)

const fetchTimeout = 30 * time.Second

// Result is the loaded document plus the metadata the generator needs.
type Result struct {
	// Root is the parsed document tree the pipeline consumes.
	Root *yaml.Node
	// Raw is the original document bytes, served verbatim by preview.
	Raw []byte

	// SpecVersion is the declared OpenAPI version (3.x).
	SpecVersion string

	// Info metadata, unsanitized. Consumers sanitize per output context.
	Title       string
	Description string
	Version     string

	Warnings []string
}

// Load fetches and parses the specification at source, which is a local
// path or an http(s) URL. With validate set, the document is checked
// against the OpenAPI schema before anything else runs.
func Load(ctx context.Context, source string, validate bool) (*Result, error) {
	data, err := fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return Parse(data, validate)
}

// Parse builds a Result from raw document bytes.
func Parse(data []byte, validate bool) (*Result, error) {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, &specerr.ParseError{Message: "invalid OpenAPI document", Cause: err}
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, &specerr.ParseError{
			Path:    "#/openapi",
			Message: fmt.Sprintf("unsupported OpenAPI version %q, only 3.x is supported", version),
		}
	}

	if validate {
		if err := validateDocument(doc); err != nil {
			return nil, err
		}
	}

	root, err := document.Parse(data)
	if err != nil {
		return nil, err
	}
	if document.MapGet(root, "paths") == nil && document.MapGet(root, "components") == nil {
		return nil, &specerr.ParseError{
			Path:    "#",
			Message: "document declares neither paths nor components",
		}
	}

	result := &Result{
		Root:        root,
		Raw:         data,
		SpecVersion: version,
	}
	if strings.HasPrefix(version, "3.0") {
		result.Warnings = append(result.Warnings, "OpenAPI 3.0.x detected; some 3.1 features unavailable")
	}

	fillInfo(result, root)
	return result, nil
}

// validateDocument runs the full OpenAPI schema validation and folds the
// findings into one error.
func validateDocument(doc libopenapi.Document) error {
	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return &specerr.ParseError{Message: "building validator", Cause: errs[0]}
	}

	valid, findings := v.ValidateDocument()
	if valid {
		return nil
	}

	msgs := make([]string, 0, len(findings))
	for _, f := range findings {
		msgs = append(msgs, f.Message)
	}
	return &specerr.ParseError{
		Path:    "#",
		Message: "document failed validation: " + strings.Join(msgs, "; "),
	}
}

func fillInfo(result *Result, root *yaml.Node) {
	info := document.MapGet(root, "info")
	result.Title = document.AsString(document.MapGet(info, "title"))
	result.Description = document.AsString(document.MapGet(info, "description"))
	result.Version = document.AsString(document.MapGet(info, "version"))
	if result.Title == "" {
		result.Title = "Generated Client"
	}
	if result.Version == "" {
		result.Version = "0.1.0"
	}
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchURL(ctx, source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}
	return data, nil
}

func fetchURL(ctx context.Context, source string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("building spec request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching spec: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading spec response: %w", err)
	}
	return data, nil
}
