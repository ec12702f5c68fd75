// Package tagbridge hands a template render's mutable context to foreign
// (embedded, dynamically-typed) callables and reliably reclaims it
// afterward. The root package re-exports the pieces most callers wire
// together: a context store, a tag registry, and the dispatcher that runs
// the ownership handoff per tag invocation.
package tagbridge

import (
	"context"

	"github.com/goliatone/go-tagbridge/pkg/renderctx"
	"github.com/goliatone/go-tagbridge/pkg/tags"
)

// Context aliases the scoped name→value store handed to tag dispatch.
type Context = renderctx.Context

// Value aliases one context entry.
type Value = renderctx.Value

// Definition aliases a tag's static registration record.
type Definition = tags.Definition

// Manifest aliases the declarative tag registration format.
type Manifest = tags.Manifest

// NewContext returns a context with the given base-frame bindings.
func NewContext(base map[string]Value) Context {
	return renderctx.FromMap(base)
}

// NewRegistry exposes the tag registry constructor from the top-level
// module.
func NewRegistry() *tags.Registry {
	return tags.NewRegistry()
}

// NewDispatcher exposes the dispatcher constructor from the top-level
// module.
func NewDispatcher(registry *tags.Registry, options ...tags.Option) *tags.Dispatcher {
	return tags.NewDispatcher(registry, options...)
}

// RenderTag registers nothing and resolves nothing fancy: it is the simplest
// entry point for callers that hold a registry and just want one tag's
// fragment.
func RenderTag(ctx context.Context, dispatcher *tags.Dispatcher, name string, slot *Context, args ...Value) (string, error) {
	return dispatcher.RenderTag(ctx, name, slot, args...)
}
