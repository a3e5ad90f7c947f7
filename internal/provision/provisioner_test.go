package provision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/pool"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime/runtimetest"
	"github.com/aperture-desktop/shell/internal/types"
)

func newProvisioner(rt *runtimetest.Runtime) (*Provisioner, *pool.Manager, *registry.Registry) {
	reg := registry.New(logging.NewNop())
	p := pool.NewManager(rt, reg, logging.NewNop(), pool.Config{Debounce: 5 * time.Millisecond})
	return New(rt, reg, p, logging.NewNop()), p, reg
}

func TestOpenDefaultsCategory(t *testing.T) {
	rt := runtimetest.New()
	prov, _, reg := newProvisioner(rt)

	w, err := prov.Open(types.OpenRequest{})
	require.NoError(t, err)

	params := w.Params()
	assert.Equal(t, DefaultCategory, params.Category())
	assert.Equal(t, 1, reg.Len())
	assert.True(t, w.IsVisible())
}

func TestOpenColdDefaults(t *testing.T) {
	rt := runtimetest.New()
	prov, _, _ := newProvisioner(rt)

	w, err := prov.Open(types.OpenRequest{Category: "notes", Title: "Notes"})
	require.NoError(t, err)

	params := w.Params()
	assert.Equal(t, "notes", params.Category())
	assert.Equal(t, "Notes", params[types.KeyTitle])
	assert.Equal(t, types.DefaultEntrypoint, params[types.KeyEntrypoint])
	assert.Equal(t, float64(types.DefaultWidth), params[types.KeyWidth])
	assert.Equal(t, float64(types.DefaultHeight), params[types.KeyHeight])
	assert.Equal(t, false, params[types.KeyMenuBar])

	// Every cold start gets a unique window id prop.
	id, ok := params.Prop("windowId")
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestOpenCallerOverridesDefaults(t *testing.T) {
	rt := runtimetest.New()
	prov, _, _ := newProvisioner(rt)

	w, err := prov.Open(types.OpenRequest{Category: "notes", Width: 1024, Height: 700})
	require.NoError(t, err)

	params := w.Params()
	assert.Equal(t, float64(1024), params[types.KeyWidth])
	assert.Equal(t, float64(700), params[types.KeyHeight])
}

func TestOpenUsesPoolWhenRegistered(t *testing.T) {
	rt := runtimetest.New()
	prov, p, _ := newProvisioner(rt)

	require.NoError(t, p.Register(types.HotCategoryConfig{Category: "editor", TargetSize: 1}))
	require.Eventually(t, func() bool {
		return p.Stats()["editor"].Warm == 1
	}, 2*time.Second, 2*time.Millisecond)
	warm := rt.Constructed()[0]

	w, err := prov.Open(types.OpenRequest{Category: "editor", Title: "draft"})
	require.NoError(t, err)

	assert.Equal(t, warm.ID(), w.ID())
	assert.Equal(t, "draft", w.Params()[types.KeyTitle])
}

func TestOpenForceColdBypassesPool(t *testing.T) {
	rt := runtimetest.New()
	prov, p, _ := newProvisioner(rt)

	require.NoError(t, p.Register(types.HotCategoryConfig{Category: "editor", TargetSize: 1}))
	require.Eventually(t, func() bool {
		return p.Stats()["editor"].Warm == 1
	}, 2*time.Second, 2*time.Millisecond)
	warm := rt.Constructed()[0]

	w, err := prov.Open(types.OpenRequest{Category: "editor", ForceCold: true})
	require.NoError(t, err)

	assert.NotEqual(t, warm.ID(), w.ID())
	assert.Equal(t, 1, p.Stats()["editor"].Warm, "warm handle untouched")
}

func TestOpenConstructFailure(t *testing.T) {
	rt := runtimetest.New()
	prov, _, reg := newProvisioner(rt)

	rt.FailNext(assert.AnError)
	_, err := prov.Open(types.OpenRequest{Category: "notes"})
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}
