// Package foreign defines the invocation convention between tag dispatch and
// an embedded runtime. The runtime is opaque to the engine: it receives
// positional arguments, may call back into the context handle's accessors,
// and returns a stringifiable fragment or an error.
package foreign

import "context"

// Callable is a registered foreign entry point. For context-consuming tags
// args[0] is a *handle.Handle duplicate; the callee consumes that reference
// and must release it (or retain past it) before returning. Remaining args
// are the tag's evaluated arguments.
type Callable interface {
	Invoke(ctx context.Context, args []any) (string, error)
}

// Func adapts a plain function to the Callable contract.
type Func func(ctx context.Context, args []any) (string, error)

// Invoke implements Callable.
func (f Func) Invoke(ctx context.Context, args []any) (string, error) {
	return f(ctx, args)
}
