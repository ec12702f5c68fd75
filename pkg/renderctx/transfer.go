package renderctx

// Take replaces the contents of slot with a fresh default context (a single
// empty base frame) and returns the previous contents by value. The slot is
// never left partially constructed: between Take and SwapBack it holds a
// valid, empty context.
func Take(slot *Context) Context {
	prev := *slot
	*slot = New()
	return prev
}

// SwapBack overwrites slot with value, discarding whatever is there —
// expected to be the placeholder left behind by Take.
func SwapBack(slot *Context, value Context) {
	*slot = value
}
