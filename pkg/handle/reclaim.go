package handle

import "github.com/goliatone/go-tagbridge/pkg/renderctx"

// Reclaim recovers an owned context from the handle after the foreign call
// has returned. It runs exactly once per handoff, on the call site's own
// reference, and must run whether or not the callable succeeded.
//
// When no other reference survives the call, the cell is consumed and the
// inner context extracted without copying. When the foreign side retained a
// duplicate past its return, the context is deep-duplicated under the lock
// instead; the surviving references keep the original cell and are no longer
// the renderer's concern.
//
// Dispatch never holds the handle's lock across the foreign invocation, so
// finding the lock contended during unique extraction means the call
// discipline was broken: that is an internal defect and panics. Reclaiming
// through an already-consumed handle panics for the same reason.
func (h *Handle) Reclaim() renderctx.Context {
	c := h.cell
	if c == nil {
		panic("handle: reclaim of a released or already-reclaimed handle")
	}
	if c.refs.Load() == 1 {
		if !c.mu.TryLock() {
			panic("handle: unique reclaim attempted while handle is locked")
		}
		if c.dead {
			c.mu.Unlock()
			panic("handle: reclaim of a released or already-reclaimed handle")
		}
		ctx := c.ctx
		c.ctx = renderctx.New()
		c.dead = true
		c.refs.Store(0)
		c.mu.Unlock()
		h.cell = nil
		return ctx
	}

	c.mu.Lock()
	clone := c.ctx.Clone()
	c.mu.Unlock()
	h.Release()
	return clone
}
