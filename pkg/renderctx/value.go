package renderctx

// Value holds one context entry. Native scalars are stored as-is; values
// owned by an embedded runtime are stored opaquely, and the engine never
// inspects their shape beyond the Cloner contract below.
type Value = any

// Cloner is implemented by values that know how to duplicate themselves in a
// way their owning runtime accounts for correctly (reference bumps, fresh
// cells). Values that do not implement Cloner are shared by reference when a
// context is deep-copied, which is the correct duplication for
// garbage-collected runtime objects.
type Cloner interface {
	CloneValue() Value
}

func cloneValue(v Value) Value {
	switch tv := v.(type) {
	case Cloner:
		return tv.CloneValue()
	case map[string]Value:
		out := make(map[string]Value, len(tv))
		for key, item := range tv {
			out[key] = cloneValue(item)
		}
		return out
	case []Value:
		out := make([]Value, len(tv))
		for i, item := range tv {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
