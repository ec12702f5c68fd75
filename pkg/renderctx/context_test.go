package renderctx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookup_ShadowsOuterFrames(t *testing.T) {
	ctx := FromMap(map[string]Value{"x": 1, "y": "base"})

	ctx.PushFrame()
	ctx.Set("x", 2)

	if v, ok := ctx.Lookup("x"); !ok || v != 2 {
		t.Fatalf("expected inner binding 2, got %v (found=%v)", v, ok)
	}
	if v, ok := ctx.Lookup("y"); !ok || v != "base" {
		t.Fatalf("expected outer binding to remain visible, got %v (found=%v)", v, ok)
	}

	ctx.PopFrame()
	if v, ok := ctx.Lookup("x"); !ok || v != 1 {
		t.Fatalf("expected base binding 1 after pop, got %v (found=%v)", v, ok)
	}
}

func TestLookup_Missing(t *testing.T) {
	ctx := New()
	if _, ok := ctx.Lookup("nope"); ok {
		t.Fatalf("expected lookup miss for unbound name")
	}
}

func TestSet_WritesInnermostFrame(t *testing.T) {
	ctx := FromMap(map[string]Value{"x": 1})
	ctx.PushFrame()
	ctx.Set("x", 99)
	ctx.PopFrame()

	if v, _ := ctx.Lookup("x"); v != 1 {
		t.Fatalf("inner set leaked into base frame: got %v", v)
	}
}

func TestPopFrame_NeverDropsBaseFrame(t *testing.T) {
	ctx := New()
	ctx.PopFrame()
	ctx.PopFrame()

	if ctx.Depth() != 1 {
		t.Fatalf("expected base frame to survive, depth=%d", ctx.Depth())
	}
	ctx.Set("still", "works")
	if v, ok := ctx.Lookup("still"); !ok || v != "works" {
		t.Fatalf("base frame unusable after pops: %v (found=%v)", v, ok)
	}
}

func TestNames_DedupedAndSorted(t *testing.T) {
	ctx := FromMap(map[string]Value{"b": 1, "a": 2})
	ctx.PushFrame()
	ctx.Set("b", 3)
	ctx.Set("c", 4)

	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, ctx.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_InnermostWins(t *testing.T) {
	ctx := FromMap(map[string]Value{"x": 1, "y": 2})
	ctx.PushFrame()
	ctx.Set("x", 10)

	want := map[string]Value{"x": 10, "y": 2}
	if diff := cmp.Diff(want, ctx.Flatten()); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

type countingCloner struct {
	clones *int
	label  string
}

func (c countingCloner) CloneValue() Value {
	*c.clones++
	return countingCloner{clones: c.clones, label: c.label}
}

func TestClone_IsDeep(t *testing.T) {
	nested := map[string]Value{"inner": "before"}
	ctx := FromMap(map[string]Value{"m": nested})
	ctx.PushFrame()
	ctx.Set("list", []Value{"a", "b"})

	dup := ctx.Clone()

	nested["inner"] = "after"
	ctx.Set("list", "replaced")

	got, _ := dup.Lookup("m")
	if gotMap, ok := got.(map[string]Value); !ok || gotMap["inner"] != "before" {
		t.Fatalf("clone shares nested map with original: %v", got)
	}
	if v, _ := dup.Lookup("list"); len(v.([]Value)) != 2 {
		t.Fatalf("clone lost slice binding: %v", v)
	}
	if dup.Depth() != 2 {
		t.Fatalf("clone dropped frames, depth=%d", dup.Depth())
	}
}

func TestClone_UsesClonerContract(t *testing.T) {
	clones := 0
	ctx := FromMap(map[string]Value{"obj": countingCloner{clones: &clones, label: "v"}})

	ctx.Clone()

	if clones != 1 {
		t.Fatalf("expected Cloner to be invoked once, got %d", clones)
	}
}

func TestTakeSwapBack_SlotAlwaysValid(t *testing.T) {
	slot := FromMap(map[string]Value{"x": 1})

	taken := Take(&slot)

	// Between take and swap-back the slot holds a valid placeholder.
	if slot.Depth() != 1 {
		t.Fatalf("placeholder should hold a single base frame, depth=%d", slot.Depth())
	}
	if _, ok := slot.Lookup("x"); ok {
		t.Fatalf("placeholder should not see taken bindings")
	}
	if v, _ := taken.Lookup("x"); v != 1 {
		t.Fatalf("taken context lost bindings: %v", v)
	}

	taken.Set("y", 2)
	SwapBack(&slot, taken)

	if v, _ := slot.Lookup("x"); v != 1 {
		t.Fatalf("swap-back lost original binding: %v", v)
	}
	if v, _ := slot.Lookup("y"); v != 2 {
		t.Fatalf("swap-back lost mutation: %v", v)
	}
}
