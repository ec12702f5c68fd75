package renderctx

import "sort"

// Context is the scoped name→value store available to template evaluation.
// It is an ordered sequence of frames; lookups scan from the most recently
// pushed frame to the base frame, which implements lexical shadowing inside
// loop and block bodies. A base frame always exists while a render is
// active. Frame push/pop belongs to the surrounding renderer's control-flow
// constructs, never to tag dispatch.
type Context struct {
	frames []map[string]Value
}

// New returns a context holding a single empty base frame. This is also the
// placeholder value Take leaves behind in a render slot.
func New() Context {
	return Context{frames: []map[string]Value{{}}}
}

// FromMap returns a context whose base frame holds the given bindings.
func FromMap(base map[string]Value) Context {
	frame := make(map[string]Value, len(base))
	for name, value := range base {
		frame[name] = value
	}
	return Context{frames: []map[string]Value{frame}}
}

// Lookup resolves a name against the frame stack, innermost frame first.
func (c *Context) Lookup(name string) (Value, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set inserts or overwrites a binding in the innermost frame.
func (c *Context) Set(name string, value Value) {
	if len(c.frames) == 0 {
		c.frames = []map[string]Value{{}}
	}
	c.frames[len(c.frames)-1][name] = value
}

// PushFrame opens a new innermost frame.
func (c *Context) PushFrame() {
	c.frames = append(c.frames, map[string]Value{})
}

// PopFrame discards the innermost frame. The base frame is never popped.
func (c *Context) PopFrame() {
	if len(c.frames) > 1 {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// Depth returns the number of frames currently on the stack.
func (c *Context) Depth() int {
	return len(c.frames)
}

// Names returns the sorted set of currently visible names.
func (c *Context) Names() []string {
	seen := make(map[string]struct{})
	for _, frame := range c.frames {
		for name := range frame {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flatten collapses the visible bindings into a single map, innermost frame
// winning. Useful when handing the context to renderers that take a flat
// variable map.
func (c *Context) Flatten() map[string]Value {
	out := make(map[string]Value)
	for _, frame := range c.frames {
		for name, value := range frame {
			out[name] = value
		}
	}
	return out
}

// Clone produces a deep duplicate of the context. Stored values are
// duplicated through the Cloner contract; see cloneValue for the sharing
// rules applied to runtime-owned values.
func (c *Context) Clone() Context {
	frames := make([]map[string]Value, len(c.frames))
	for i, frame := range c.frames {
		dup := make(map[string]Value, len(frame))
		for name, value := range frame {
			dup[name] = cloneValue(value)
		}
		frames[i] = dup
	}
	if len(frames) == 0 {
		frames = []map[string]Value{{}}
	}
	return Context{frames: frames}
}
