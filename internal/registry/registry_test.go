package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/runtime/runtimetest"
	"github.com/aperture-desktop/shell/internal/types"
)

func newWindow(t *testing.T, rt *runtimetest.Runtime, params types.Params) *runtimetest.Window {
	t.Helper()
	w, err := rt.Construct(params)
	require.NoError(t, err)
	return w.(*runtimetest.Window)
}

func TestAddRemove(t *testing.T) {
	rt := runtimetest.New()
	reg := New(logging.NewNop())

	a := newWindow(t, rt, types.Params{types.KeyCategory: "a"})
	b := newWindow(t, rt, types.Params{types.KeyCategory: "b"})

	reg.Add(a)
	reg.Add(b)
	reg.Add(a) // identity duplicate ignored
	assert.Equal(t, 2, reg.Len())

	reg.Remove(a)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, b.ID(), reg.All()[0].ID())

	// Removing an unknown handle is a no-op.
	reg.Remove(a)
	assert.Equal(t, 1, reg.Len())
}

func TestDestroyedObserverRemoves(t *testing.T) {
	rt := runtimetest.New()
	reg := New(logging.NewNop())

	w := newWindow(t, rt, types.Params{types.KeyCategory: "a"})
	reg.Add(w)
	require.Equal(t, 1, reg.Len())

	w.Destroy()
	assert.Equal(t, 0, reg.Len())
}

func TestHarnessHandlesSkipObservers(t *testing.T) {
	rt := runtimetest.New()
	reg := New(logging.NewNop())

	w := newWindow(t, rt, types.Params{types.KeyHarness: true})
	reg.Add(w)
	w.Destroy()

	// No destroyed observer was wired, so the handle stays listed.
	assert.Equal(t, 1, reg.Len())
}

func TestFindMatching(t *testing.T) {
	rt := runtimetest.New()
	reg := New(logging.NewNop())

	assert.Nil(t, reg.FindMatching(types.Params{"uniqueId": "onboarding"}))

	plain := newWindow(t, rt, types.Params{types.KeyCategory: "generic", types.KeyWidth: 300})
	onboarding := newWindow(t, rt, types.Params{
		types.KeyCategory: "onboarding",
		types.KeyProps:    map[string]any{"uniqueId": "onboarding"},
	})
	reg.Add(plain)
	reg.Add(onboarding)

	found := reg.FindMatching(types.Params{"uniqueId": "onboarding"})
	require.NotNil(t, found)
	assert.Equal(t, onboarding.ID(), found.ID())

	// Deep equality survives numeric type differences.
	assert.NotNil(t, reg.FindMatching(types.Params{types.KeyWidth: float64(300)}))
	assert.Nil(t, reg.FindMatching(types.Params{types.KeyWidth: 999}))
}

func TestFocusedAndVisible(t *testing.T) {
	rt := runtimetest.New()
	reg := New(logging.NewNop())

	a := newWindow(t, rt, types.Params{types.KeyCategory: "a"})
	b := newWindow(t, rt, types.Params{types.KeyCategory: "b"})
	reg.Add(a)
	reg.Add(b)

	assert.Nil(t, reg.Focused())
	assert.Empty(t, reg.Visible())

	b.ShowWhenLoaded()
	require.True(t, b.IsVisible())

	focused := reg.Focused()
	require.NotNil(t, focused)
	assert.Equal(t, b.ID(), focused.ID())
	assert.Len(t, reg.Visible(), 1)
}

func TestAffordanceHooks(t *testing.T) {
	rt := runtimetest.New()
	var enabled, disabled int
	reg := New(logging.NewNop()).WithAffordanceHooks(
		func() { enabled++ },
		func() { disabled++ },
	)

	a := newWindow(t, rt, types.Params{})
	b := newWindow(t, rt, types.Params{})

	reg.Add(a)
	assert.Equal(t, 1, enabled)
	reg.Add(b)
	assert.Equal(t, 1, enabled) // only on first

	reg.Remove(a)
	assert.Equal(t, 0, disabled)
	reg.Remove(b)
	assert.Equal(t, 1, disabled) // only on last
}

func TestQuitPolicyDeferred(t *testing.T) {
	rt := runtimetest.New()
	exited := make(chan struct{})
	reg := New(logging.NewNop()).WithQuitPolicy(true, func() { close(exited) })

	w := newWindow(t, rt, types.Params{})
	reg.Add(w)
	w.Destroy()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("exit was not invoked after last window closed")
	}
}

func TestSubscribers(t *testing.T) {
	rt := runtimetest.New()
	reg := New(logging.NewNop())

	var added, removed []string
	reg.OnAdded(func(w runtime.Window) { added = append(added, w.ID()) })
	reg.OnRemoved(func(w runtime.Window) { removed = append(removed, w.ID()) })

	w := newWindow(t, rt, types.Params{})
	reg.Add(w)
	reg.Remove(w)

	assert.Equal(t, []string{w.ID()}, added)
	assert.Equal(t, []string{w.ID()}, removed)
}
