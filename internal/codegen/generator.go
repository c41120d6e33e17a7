// Package codegen drives the pipeline: resolve, deduplicate, translate,
// extract operations, then render the selected targets. A run either
// produces every output or fails with a typed error; partial output is
// never returned.
package codegen

import (
	"fmt"
	"log/slog"

	"github.com/frijol-dev/frijol/internal/config"
	"github.com/frijol-dev/frijol/internal/golang"
	"github.com/frijol-dev/frijol/internal/ir"
	"github.com/frijol-dev/frijol/internal/loader"
	"github.com/frijol-dev/frijol/internal/operation"
	"github.com/frijol-dev/frijol/internal/resolver"
	"github.com/frijol-dev/frijol/internal/sanitize"
	"github.com/frijol-dev/frijol/internal/templates"
	"github.com/frijol-dev/frijol/internal/translate"
	embeddedtmpl "github.com/frijol-dev/frijol/templates"
)

type Generator struct {
	cfg    *config.Config
	engine *templates.Engine
	log    *slog.Logger
}

// Output is one rendered, formatted file.
type Output struct {
	Filename string
	Content  string
}

type templateData struct {
	Package string
	IR      *ir.IR
}

func New(cfg *config.Config, log *slog.Logger) (*Generator, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if len(cfg.AdditionalInitialisms) > 0 {
		golang.SetAdditionalInitialisms(cfg.AdditionalInitialisms)
	}

	engine, err := templates.NewEngine(embeddedtmpl.FS, cfg.Templates.Dir, golang.TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}

	return &Generator{cfg: cfg, engine: engine, log: log}, nil
}

// BuildIR runs the resolution pipeline over a loaded document. The
// canonical table lives and dies with this call; concurrent runs never
// share one.
func (g *Generator) BuildIR(res *loader.Result) (*ir.IR, error) {
	san := sanitize.New(g.log)

	r := resolver.New(res.Root, g.log)
	if err := r.ResolveDocument(); err != nil {
		return nil, err
	}

	tr := translate.New(r.Table(), san, g.log)
	types, err := tr.TranslateAll()
	if err != nil {
		return nil, err
	}

	ops, err := operation.New(res.Root, r, tr, san, g.log).Extract()
	if err != nil {
		return nil, err
	}

	g.log.Info("pipeline complete",
		"types", len(types),
		"operations", len(ops))

	return &ir.IR{
		Title:       san.Sanitize(res.Title, sanitize.ModeDoc),
		Description: san.Sanitize(res.Description, sanitize.ModeDoc),
		Version:     san.Sanitize(res.Version, sanitize.ModeDoc),
		Types:       types,
		Operations:  ops,
	}, nil
}

// Generate builds the IR and renders every selected target.
func (g *Generator) Generate(res *loader.Result) ([]Output, error) {
	model, err := g.BuildIR(res)
	if err != nil {
		return nil, err
	}

	data := templateData{Package: g.cfg.Package, IR: model}

	var outputs []Output
	for _, target := range []string{"types", "client"} {
		if !g.cfg.HasTarget(target) {
			continue
		}
		filename := target + ".go"
		out, err := g.render(filename+".tmpl", filename, data)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (g *Generator) render(tmpl, filename string, data templateData) (Output, error) {
	content, err := g.engine.Execute(tmpl, data)
	if err != nil {
		return Output{}, fmt.Errorf("rendering %s: %w", filename, err)
	}
	formatted, err := golang.Format([]byte(content))
	if err != nil {
		return Output{}, fmt.Errorf("formatting %s: %w", filename, err)
	}
	return Output{Filename: filename, Content: string(formatted)}, nil
}
