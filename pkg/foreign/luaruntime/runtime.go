// Package luaruntime adapts a gopher-lua interpreter to the foreign.Callable
// contract. Lua is the reference embedded runtime: dynamically typed,
// garbage collected, with no notion of ownership — exactly the collaborator
// the context handoff protocol is built for.
package luaruntime

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/goliatone/go-tagbridge/pkg/foreign"
	"github.com/goliatone/go-tagbridge/pkg/handle"
	"github.com/goliatone/go-tagbridge/pkg/renderctx"
)

// Option configures the runtime before construction.
type Option func(*config)

type config struct {
	openLibs bool
}

// WithStdlib loads the full Lua standard library into the interpreter. By
// default tag scripts get a minimal sandbox: base, table and string only —
// no io, os or package loading.
func WithStdlib() Option {
	return func(cfg *config) {
		cfg.openLibs = true
	}
}

// Runtime owns one Lua interpreter state. The state is not safe for
// concurrent use, so every entry into it serializes on the runtime's own
// mutex — never on a context handle's lock, which keeps handle accessors
// free to run while Lua itself is executing.
type Runtime struct {
	mu    sync.Mutex
	state *lua.LState
}

// New constructs a runtime and registers the context-handle userdata type.
func New(options ...Option) *Runtime {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var state *lua.LState
	if cfg.openLibs {
		state = lua.NewState()
	} else {
		state = lua.NewState(lua.Options{SkipOpenLibs: true})
		for _, lib := range []struct {
			name string
			open lua.LGFunction
		}{
			{lua.BaseLibName, lua.OpenBase},
			{lua.TabLibName, lua.OpenTable},
			{lua.StringLibName, lua.OpenString},
		} {
			// Opening a bundled library cannot fail.
			_ = state.CallByParam(lua.P{
				Fn:      state.NewFunction(lib.open),
				NRet:    0,
				Protect: true,
			}, lua.LString(lib.name))
		}
	}

	r := &Runtime{state: state}
	registerHandleType(state)
	return r
}

// Close releases the interpreter state.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Close()
}

// Load executes a chunk of Lua source, typically to define the global
// functions later referenced by Callable.
func (r *Runtime) Load(source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.state.DoString(source); err != nil {
		return fmt.Errorf("luaruntime: load chunk: %w", err)
	}
	return nil
}

// Callable resolves a global Lua function by name and wraps it in the
// foreign invocation contract.
func (r *Runtime) Callable(name string) (foreign.Callable, error) {
	r.mu.Lock()
	fn := r.state.GetGlobal(name)
	r.mu.Unlock()

	if fn == lua.LNil {
		return nil, fmt.Errorf("luaruntime: global function %q not found", name)
	}
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("luaruntime: global %q is a %s, not a function", name, fn.Type())
	}
	return &luaCallable{runtime: r, fn: fn}, nil
}

type luaCallable struct {
	runtime *Runtime
	fn      lua.LValue
}

// Invoke calls the wrapped Lua function with the given positional arguments.
// A *handle.Handle argument is surfaced to Lua as a userdata with get, set,
// names and retain methods; the reference handed in is released when the
// invocation returns, so a script that wants to keep the handle past the
// call retains its own duplicate with h:retain().
func (c *luaCallable) Invoke(ctx context.Context, args []any) (string, error) {
	c.runtime.mu.Lock()
	defer c.runtime.mu.Unlock()

	state := c.runtime.state
	if ctx != nil && ctx != context.Background() {
		state.SetContext(ctx)
		defer state.RemoveContext()
	}

	values := make([]lua.LValue, 0, len(args))
	var passed []*handle.Handle
	for _, arg := range args {
		if h, ok := arg.(*handle.Handle); ok {
			values = append(values, wrapHandle(state, h))
			passed = append(passed, h)
			continue
		}
		values = append(values, toLua(state, arg))
	}
	// The callee consumes the handle reference it was given; anything the
	// script retained owns its own reference by now.
	defer func() {
		for _, h := range passed {
			h.Release()
		}
	}()

	if err := state.CallByParam(lua.P{Fn: c.fn, NRet: 1, Protect: true}, values...); err != nil {
		return "", fmt.Errorf("luaruntime: tag script failed: %w", err)
	}

	ret := state.Get(-1)
	state.Pop(1)
	return stringifyResult(ret), nil
}

func stringifyResult(v lua.LValue) string {
	if v.Type() == lua.LTNil {
		return ""
	}
	return v.String()
}

// toLua converts a native context value into a Lua value. Opaque values
// previously captured from Lua are unwrapped back to their original object.
func toLua(state *lua.LState, v renderctx.Value) lua.LValue {
	switch tv := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return tv
	case *OpaqueValue:
		return tv.LV
	case string:
		return lua.LString(tv)
	case bool:
		return lua.LBool(tv)
	case int:
		return lua.LNumber(tv)
	case int64:
		return lua.LNumber(tv)
	case float64:
		return lua.LNumber(tv)
	default:
		return lua.LString(fmt.Sprint(tv))
	}
}

// fromLua converts a Lua value into a native context value. Scalars convert
// to their Go counterparts; everything else (tables, functions, userdata)
// stays a Lua-owned object behind an OpaqueValue.
func fromLua(v lua.LValue) renderctx.Value {
	switch tv := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(tv)
	case lua.LBool:
		return bool(tv)
	case lua.LNumber:
		f := float64(tv)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	default:
		return &OpaqueValue{LV: v}
	}
}

// OpaqueValue carries a Lua-owned object through the native context without
// the engine knowing its shape.
type OpaqueValue struct {
	LV lua.LValue
}

// CloneValue shares the underlying reference: Lua objects are managed by the
// interpreter's collector, so a shared reference is the duplication its
// accounting expects.
func (o *OpaqueValue) CloneValue() renderctx.Value {
	return &OpaqueValue{LV: o.LV}
}

// String renders the wrapped value the way Lua would.
func (o *OpaqueValue) String() string {
	if n, ok := o.LV.(lua.LNumber); ok {
		return strconv.FormatFloat(float64(n), 'g', -1, 64)
	}
	return o.LV.String()
}
