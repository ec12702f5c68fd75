package tags

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tagbridge/pkg/foreign"
)

func noop() foreign.Callable {
	return foreign.Func(func(context.Context, []any) (string, error) {
		return "", nil
	})
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(Definition{Name: "b", Callable: noop()}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(Definition{Name: "a", Callable: noop(), NeedsContext: true}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if !registry.Has("a") || registry.Has("missing") {
		t.Fatalf("Has misreported registrations")
	}
	if _, err := registry.Get("missing"); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
}

func TestRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Definition{Name: "dup", Callable: noop()})

	if err := registry.Register(Definition{Name: "dup", Callable: noop()}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(Definition{Name: "", Callable: noop()}); err == nil {
		t.Fatalf("expected missing name error")
	}
	if err := registry.Register(Definition{Name: "nil-callable"}); err == nil {
		t.Fatalf("expected missing callable error")
	}
}
