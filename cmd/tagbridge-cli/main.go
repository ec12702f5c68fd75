package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-tagbridge/internal/logging"
	"github.com/goliatone/go-tagbridge/pkg/foreign"
	"github.com/goliatone/go-tagbridge/pkg/foreign/luaruntime"
	"github.com/goliatone/go-tagbridge/pkg/render"
	"github.com/goliatone/go-tagbridge/pkg/renderctx"
	"github.com/goliatone/go-tagbridge/pkg/tags"
)

func main() {
	manifestPath := flag.String("manifest", "tags.yaml", "tag manifest path")
	templatePath := flag.String("template", "", "template file to render (stdout)")
	tagName := flag.String("tag", "", "dispatch a single tag by name instead of rendering a template")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	var vars varFlags
	flag.Var(&vars, "var", "base context binding as key=value (repeatable)")
	flag.Parse()

	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(*logLevel))
	ctx := context.Background()

	runtime := luaruntime.New(luaruntime.WithStdlib())
	defer runtime.Close()

	registry := tags.NewRegistry()
	manifest, err := tags.LoadManifestFile(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}
	if err := manifest.Register(registry, luaFactory(runtime)); err != nil {
		log.Fatalf("Failed to register tags: %v", err)
	}

	dispatcher := tags.NewDispatcher(registry,
		tags.WithLogger(logger),
		tags.WithSanitizer(bluemonday.UGCPolicy()),
	)

	slot := renderctx.FromMap(vars.bindings())

	if *tagName != "" {
		fragment, err := dispatcher.RenderTag(ctx, *tagName, &slot)
		if err != nil {
			log.Fatalf("Failed to dispatch tag: %v", err)
		}
		fmt.Println(fragment)
		return
	}

	if *templatePath == "" {
		log.Fatal("either -template or -tag is required")
	}

	content, err := os.ReadFile(*templatePath)
	if err != nil {
		log.Fatalf("Failed to read template: %v", err)
	}

	engine, err := render.New(dispatcher)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	if err := engine.RegisterTagFilters(registry); err != nil {
		log.Fatalf("Failed to register tag filters: %v", err)
	}

	output, err := engine.RenderString(string(content), &slot)
	if err != nil {
		log.Fatalf("Failed to render template: %v", err)
	}
	fmt.Println(output)
}

func luaFactory(runtime *luaruntime.Runtime) tags.CallableFactory {
	return func(tag tags.ManifestTag) (foreign.Callable, error) {
		if strings.TrimSpace(tag.Source) != "" {
			if err := runtime.Load(tag.Source); err != nil {
				return nil, err
			}
		}
		entry := tag.Function
		if strings.TrimSpace(entry) == "" {
			entry = tag.Name
		}
		return runtime.Callable(entry)
	}
}

// varFlags collects repeated -var key=value bindings.
type varFlags struct {
	pairs []string
}

func (v *varFlags) String() string {
	return strings.Join(v.pairs, ",")
}

func (v *varFlags) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	v.pairs = append(v.pairs, value)
	return nil
}

func (v *varFlags) bindings() map[string]renderctx.Value {
	out := make(map[string]renderctx.Value, len(v.pairs))
	for _, pair := range v.pairs {
		key, value, _ := strings.Cut(pair, "=")
		out[strings.TrimSpace(key)] = value
	}
	return out
}
