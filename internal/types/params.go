package types

import (
	"reflect"

	"github.com/bytedance/sonic"
)

// Well-known parameter bag keys.
const (
	KeyCategory   = "category"
	KeyTitle      = "title"
	KeyWidth      = "width"
	KeyHeight     = "height"
	KeyResizable  = "resizable"
	KeyFrame      = "frame"
	KeyShow       = "show"
	KeyMenuBar    = "menuBarVisible"
	KeyProps      = "props"
	KeyEntrypoint = "entrypoint"
	KeyNeverClose = "neverClose"
	KeyBundles    = "bundles"
	KeyHarness    = "testHarness"
)

// DefaultEntrypoint is the standard bootstrap document loaded into
// generic windows.
const DefaultEntrypoint = "shell://windows/index.html"

// Default window dimensions for cold-started generic windows.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Params is a window parameter bag. Values must be JSON-serializable.
type Params map[string]any

// Clone returns a shallow copy with the props sub-bag copied one level
// deep, so merges never mutate the source.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	if props, ok := p[KeyProps].(map[string]any); ok {
		cp := make(map[string]any, len(props))
		for k, v := range props {
			cp[k] = v
		}
		out[KeyProps] = cp
	}
	return out
}

// Merge overlays other onto a copy of p. Values in other win on key
// collision. The props sub-bags are merged key-wise rather than
// replaced wholesale.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for k, v := range other {
		if k == KeyProps {
			continue
		}
		out[k] = v
	}
	if incoming, ok := other[KeyProps].(map[string]any); ok {
		props, _ := out[KeyProps].(map[string]any)
		if props == nil {
			props = make(map[string]any, len(incoming))
		}
		for k, v := range incoming {
			props[k] = v
		}
		out[KeyProps] = props
	}
	return out
}

// Normalize round-trips the bag through JSON so later deep-equality
// comparisons see canonical types (float64 numbers, map[string]any
// objects). Values that do not serialize are kept as-is.
func (p Params) Normalize() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	data, err := sonic.Marshal(v)
	if err != nil {
		return v
	}
	var norm any
	if err := sonic.Unmarshal(data, &norm); err != nil {
		return v
	}
	return norm
}

// Matches reports whether every key in subset is present with a
// deep-equal value. Keys are resolved against the props sub-bag first,
// then the top level; a key absent from both excludes the bag.
func (p Params) Matches(subset Params) bool {
	props, _ := p[KeyProps].(map[string]any)
	for k, want := range subset {
		var got any
		ok := false
		if props != nil {
			got, ok = props[k]
		}
		if !ok {
			got, ok = p[k]
		}
		if !ok {
			return false
		}
		if !reflect.DeepEqual(normalizeValue(got), normalizeValue(want)) {
			return false
		}
	}
	return true
}

// Category returns the category tag, or "" when untagged.
func (p Params) Category() string {
	s, _ := p[KeyCategory].(string)
	return s
}

// Bool reads a boolean key, returning fallback when absent or not a
// bool.
func (p Params) Bool(key string, fallback bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return fallback
}

// Prop reads a single key from the props sub-bag.
func (p Params) Prop(key string) (any, bool) {
	props, ok := p[KeyProps].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := props[key]
	return v, ok
}
