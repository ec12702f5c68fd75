package luaruntime

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/goliatone/go-tagbridge/pkg/handle"
)

const handleTypeName = "tagbridge.handle"

// registerHandleType installs the userdata metatable that exposes a context
// handle to Lua. The accessors lock the handle for one operation each; the
// handle lock is never held while Lua code runs.
func registerHandleType(state *lua.LState) {
	mt := state.NewTypeMetatable(handleTypeName)
	state.SetField(mt, "__index", state.SetFuncs(state.NewTable(), map[string]lua.LGFunction{
		"get":     handleGet,
		"set":     handleSet,
		"names":   handleNames,
		"retain":  handleRetain,
		"release": handleRelease,
	}))
}

func wrapHandle(state *lua.LState, h *handle.Handle) *lua.LUserData {
	ud := state.NewUserData()
	ud.Value = h
	state.SetMetatable(ud, state.GetTypeMetatable(handleTypeName))
	return ud
}

func checkHandle(state *lua.LState) *handle.Handle {
	ud := state.CheckUserData(1)
	if h, ok := ud.Value.(*handle.Handle); ok {
		return h
	}
	state.ArgError(1, "tag context handle expected")
	return nil
}

// handleGet implements h:get(name). Returns the bound value or nil.
func handleGet(state *lua.LState) int {
	h := checkHandle(state)
	name := state.CheckString(2)

	value, ok, err := h.Lookup(name)
	if err != nil {
		state.RaiseError("%s", err)
		return 0
	}
	if !ok {
		state.Push(lua.LNil)
		return 1
	}
	state.Push(toLua(state, value))
	return 1
}

// handleSet implements h:set(name, value). Writes the innermost frame.
func handleSet(state *lua.LState) int {
	h := checkHandle(state)
	name := state.CheckString(2)
	value := state.CheckAny(3)

	if err := h.Set(name, fromLua(value)); err != nil {
		state.RaiseError("%s", err)
		return 0
	}
	return 0
}

// handleNames implements h:names(). Returns a sorted array table of the
// currently visible names.
func handleNames(state *lua.LState) int {
	h := checkHandle(state)

	names, err := h.Names()
	if err != nil {
		state.RaiseError("%s", err)
		return 0
	}
	tbl := state.NewTable()
	for _, name := range names {
		tbl.Append(lua.LString(name))
	}
	state.Push(tbl)
	return 1
}

// handleRetain implements h:retain(). Bumps the reference count and returns
// a fresh handle the script may keep past the call.
func handleRetain(state *lua.LState) int {
	h := checkHandle(state)
	state.Push(wrapHandle(state, h.Retain()))
	return 1
}

// handleRelease implements h:release() for scripts that drop a retained
// handle early.
func handleRelease(state *lua.LState) int {
	h := checkHandle(state)
	h.Release()
	return 0
}
