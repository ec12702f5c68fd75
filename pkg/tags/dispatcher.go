package tags

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-tagbridge/internal/idgen"
	"github.com/goliatone/go-tagbridge/pkg/handle"
	"github.com/goliatone/go-tagbridge/pkg/renderctx"
)

// Sanitizer post-processes a foreign render fragment before it is folded
// into the native output stream. bluemonday's Policy satisfies this.
type Sanitizer interface {
	Sanitize(string) string
}

// Dispatcher invokes registered tags against a render's context slot. Tags
// within one render execute strictly in encounter order: the handoff for one
// tag is fully reclaimed and swapped back before the next tag begins.
type Dispatcher struct {
	registry  *Registry
	logger    *slog.Logger
	sanitizer Sanitizer
	newID     func() string
}

// NewDispatcher wires a dispatcher over the given registry.
func NewDispatcher(registry *Registry, options ...Option) *Dispatcher {
	cfg := &config{
		logger: slog.Default(),
		newID:  idgen.New,
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	return &Dispatcher{
		registry:  registry,
		logger:    cfg.logger,
		sanitizer: cfg.sanitizer,
		newID:     cfg.newID,
	}
}

// RenderTag resolves a registered tag by name and invokes it against slot.
// It returns the tag's render fragment or the callable's propagated error.
//
// The caller keeps exclusive access to slot for the rest of the render; the
// slot is never observed holding the placeholder after RenderTag returns,
// whether the call succeeded or failed.
func (d *Dispatcher) RenderTag(ctx context.Context, name string, slot *renderctx.Context, args ...renderctx.Value) (string, error) {
	def, err := d.registry.Get(name)
	if err != nil {
		return "", err
	}
	return d.Render(ctx, def, slot, args...)
}

// Render invokes an already-resolved tag definition against slot.
func (d *Dispatcher) Render(ctx context.Context, def Definition, slot *renderctx.Context, args ...renderctx.Value) (string, error) {
	if err := def.validate(); err != nil {
		return "", err
	}

	id := d.newID()
	if !def.NeedsContext {
		// Non-consuming tags never touch the slot, so none is required.
		return d.invokePlain(ctx, def, args, id)
	}
	if slot == nil {
		return "", fmt.Errorf("tags: tag %q requires a context slot", def.Name)
	}
	return d.invokeConsuming(ctx, def, slot, args, id)
}

// invokePlain runs the non-consuming path: the callable sees only its
// declared arguments and never touches the context slot.
func (d *Dispatcher) invokePlain(ctx context.Context, def Definition, args []renderctx.Value, id string) (string, error) {
	callArgs := make([]any, len(args))
	copy(callArgs, args)

	out, err := def.Callable.Invoke(ctx, callArgs)
	if err != nil {
		d.logger.DebugContext(ctx, "tag failed", "tag", def.Name, "invocation", id)
		return "", fmt.Errorf("tags: tag %q: %w", def.Name, err)
	}

	d.logger.DebugContext(ctx, "tag dispatched", "tag", def.Name, "invocation", id, "consuming", false)
	return d.finish(out), nil
}

// invokeConsuming runs the full handoff: take the context out of the slot,
// wrap it in a shared handle, hand a duplicate to the callable, then reclaim
// and swap back. Reclamation is unconditional — it runs on the error path
// too, so the slot is valid for every subsequent tag in the render.
func (d *Dispatcher) invokeConsuming(ctx context.Context, def Definition, slot *renderctx.Context, args []renderctx.Value, id string) (string, error) {
	taken := renderctx.Take(slot)
	h := handle.New(taken)
	dup := h.Retain()

	callArgs := make([]any, 0, len(args)+1)
	callArgs = append(callArgs, dup)
	for _, arg := range args {
		callArgs = append(callArgs, arg)
	}

	out, err := def.Callable.Invoke(ctx, callArgs)

	path := "unique"
	if h.Refs() > 1 {
		// The callable kept a duplicate alive past its return; reclamation
		// falls back to a deep copy of the context.
		path = "copy"
	}
	renderctx.SwapBack(slot, h.Reclaim())

	if err != nil {
		d.logger.DebugContext(ctx, "tag failed", "tag", def.Name, "invocation", id, "reclaim", path)
		return "", fmt.Errorf("tags: tag %q: %w", def.Name, err)
	}

	d.logger.DebugContext(ctx, "tag dispatched", "tag", def.Name, "invocation", id, "consuming", true, "reclaim", path)
	return d.finish(out), nil
}

func (d *Dispatcher) finish(out string) string {
	if d.sanitizer != nil {
		return d.sanitizer.Sanitize(out)
	}
	return out
}
