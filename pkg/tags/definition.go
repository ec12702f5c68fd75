// Package tags registers foreign template callables and dispatches them
// against a render's context, running the ownership handoff protocol for
// context-consuming tags.
package tags

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-tagbridge/pkg/foreign"
)

// Definition is the static registration record for one tag. Whether a tag
// consumes the render context is fixed here, at registration time — it is a
// property of the callable, never re-derived per call.
type Definition struct {
	// Name is the identifier templates use to reference the tag.
	Name string
	// Callable is the foreign entry point invoked on dispatch.
	Callable foreign.Callable
	// NeedsContext marks the tag as context-consuming: dispatch hands the
	// callable a shared context handle as its first argument.
	NeedsContext bool
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("tags: tag name is required")
	}
	if d.Callable == nil {
		return fmt.Errorf("tags: tag %q requires a callable", d.Name)
	}
	return nil
}
