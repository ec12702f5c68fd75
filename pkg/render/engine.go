// Package render is the seam between this module's tag dispatch and the
// surrounding template engine. The engine itself — lexing, expression
// grammar, escaping — is pongo2's business; this package only feeds it
// context data and surfaces registered non-consuming tags as filters.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-tagbridge/pkg/renderctx"
	"github.com/goliatone/go-tagbridge/pkg/tags"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
}

// WithBaseDir configures the underlying engine to load templates from a base
// directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS configures the underlying engine to load templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default template extension used by the engine.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// Engine renders pongo2 templates against a render context. Consuming tags
// are driven through the dispatcher by the host between native passes; only
// non-consuming tags are reachable from inside template expressions, as
// filters.
type Engine struct {
	set        *pongo2.TemplateSet
	dispatcher *tags.Dispatcher
	tplExt     string
}

// New constructs an Engine using the provided configuration options. String
// rendering needs no loader, so both WithBaseDir and WithFS are optional.
func New(dispatcher *tags.Dispatcher, options ...Option) (*Engine, error) {
	if dispatcher == nil {
		return nil, errors.New("render: dispatcher is required")
	}

	cfg := &config{
		extension: ".tpl",
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("render: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	return &Engine{
		set:        pongo2.NewSet("tagbridge", loaders...),
		dispatcher: dispatcher,
		tplExt:     cfg.extension,
	}, nil
}

// Dispatcher exposes the wired dispatcher so the host can drive consuming
// tags between render passes.
func (e *Engine) Dispatcher() *tags.Dispatcher {
	return e.dispatcher
}

// RenderString renders inline template content against rctx.
func (e *Engine) RenderString(templateContent string, rctx *renderctx.Context, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("render: engine is nil")
	}

	tmpl, err := e.set.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("render: parse template string: %w", err)
	}
	return e.execute(tmpl, rctx, "template string", out...)
}

// RenderTemplate renders a named template from the configured loaders.
func (e *Engine) RenderTemplate(name string, rctx *renderctx.Context, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("render: engine is nil")
	}

	path := name
	if !strings.HasSuffix(path, e.tplExt) {
		path += e.tplExt
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return "", fmt.Errorf("render: load template %q: %w", path, err)
	}
	return e.execute(tmpl, rctx, path, out...)
}

func (e *Engine) execute(tmpl *pongo2.Template, rctx *renderctx.Context, label string, out ...io.Writer) (string, error) {
	viewContext := pongo2.Context{}
	if rctx != nil {
		for name, value := range rctx.Flatten() {
			viewContext[name] = value
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(viewContext, &buf); err != nil {
		return "", fmt.Errorf("render: execute %s: %w", label, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// RegisterTagFilters exposes every non-consuming tag in the registry as a
// pongo2 filter, routed through the dispatcher. Consuming tags are skipped:
// the handoff protocol needs the host's mutable slot, which filter
// expressions do not carry.
func (e *Engine) RegisterTagFilters(registry *tags.Registry) error {
	if registry == nil {
		return errors.New("render: registry is required")
	}

	for _, name := range registry.List() {
		def, err := registry.Get(name)
		if err != nil {
			return err
		}
		if def.NeedsContext {
			continue
		}
		if pongo2.FilterExists(def.Name) {
			return fmt.Errorf("render: filter %q already exists", def.Name)
		}
		if err := pongo2.RegisterFilter(def.Name, e.tagFilter(def)); err != nil {
			return fmt.Errorf("render: register filter %q: %w", def.Name, err)
		}
	}
	return nil
}

func (e *Engine) tagFilter(def tags.Definition) pongo2.FilterFunction {
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		args := []renderctx.Value{in.Interface()}
		if param != nil && !param.IsNil() {
			args = append(args, param.Interface())
		}

		fragment, err := e.dispatcher.Render(context.Background(), def, nil, args...)
		if err != nil {
			return nil, &pongo2.Error{Sender: "tagbridge", OrigError: err}
		}
		return pongo2.AsValue(fragment), nil
	}
}
