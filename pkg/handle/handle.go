// Package handle wraps a taken render context in a reference-counted,
// lock-guarded cell that can be duplicated cheaply and handed to an embedded
// runtime. The handle's accessors are the only way foreign code ever touches
// context data, and Reclaim recovers exclusive ownership once the foreign
// call has returned.
package handle

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-tagbridge/pkg/renderctx"
)

// ErrReclaimed is returned by accessors once the wrapped context has been
// extracted by Reclaim or the handle's reference has been released.
var ErrReclaimed = errors.New("handle: context already reclaimed")

// cell is the shared storage behind every duplicate of one handle.
type cell struct {
	refs atomic.Int64
	mu   sync.Mutex
	ctx  renderctx.Context
	dead bool
}

// Handle is one counted reference to a shared context cell. Duplicates made
// with Retain point at the same cell; the cell is poisoned once Reclaim
// extracts its payload or the last reference is released.
type Handle struct {
	cell *cell
}

// New wraps ctx in a fresh cell with a reference count of one.
func New(ctx renderctx.Context) *Handle {
	c := &cell{ctx: ctx}
	c.refs.Store(1)
	return &Handle{cell: c}
}

// Retain increments the reference count and returns a new handle pointing at
// the same cell. O(1), never fails. This is what gets passed to a foreign
// callable: the callee consumes the reference it receives.
func (h *Handle) Retain() *Handle {
	c := h.cell
	if c == nil {
		return &Handle{}
	}
	c.refs.Add(1)
	return &Handle{cell: c}
}

// Release drops this handle's reference. When the last reference goes away
// the cell is poisoned so stale duplicates fail loudly instead of reading a
// context nobody owns.
func (h *Handle) Release() {
	c := h.cell
	if c == nil {
		return
	}
	h.cell = nil
	if c.refs.Add(-1) <= 0 {
		c.mu.Lock()
		c.dead = true
		c.ctx = renderctx.New()
		c.mu.Unlock()
	}
}

// Refs reports the current reference count. Exposed for the dispatch layer's
// instrumentation and for tests that assert which reclamation path ran.
func (h *Handle) Refs() int64 {
	if h.cell == nil {
		return 0
	}
	return h.cell.refs.Load()
}

// Lookup resolves a name in the wrapped context. The second return reports
// whether the name is bound. The lock is held for this single operation only.
func (h *Handle) Lookup(name string) (renderctx.Value, bool, error) {
	c := h.cell
	if c == nil {
		return nil, false, ErrReclaimed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return nil, false, ErrReclaimed
	}
	v, ok := c.ctx.Lookup(name)
	return v, ok, nil
}

// Set inserts or overwrites a binding in the context's innermost frame. The
// lock is held for this single operation only.
func (h *Handle) Set(name string, value renderctx.Value) error {
	c := h.cell
	if c == nil {
		return ErrReclaimed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return ErrReclaimed
	}
	c.ctx.Set(name, value)
	return nil
}

// Names returns the sorted set of names currently visible through the
// handle. The lock is held for this single operation only.
func (h *Handle) Names() ([]string, error) {
	c := h.cell
	if c == nil {
		return nil, ErrReclaimed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return nil, ErrReclaimed
	}
	return c.ctx.Names(), nil
}
