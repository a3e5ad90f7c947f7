package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime/runtimetest"
	"github.com/aperture-desktop/shell/internal/types"
)

const (
	testDebounce = 5 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 2 * time.Millisecond
)

func newTestManager(rt *runtimetest.Runtime) (*Manager, *registry.Registry) {
	reg := registry.New(logging.NewNop())
	m := NewManager(rt, reg, logging.NewNop(), Config{Debounce: testDebounce})
	return m, reg
}

func warmCount(m *Manager, category string) int {
	return m.Stats()[category].Warm
}

func TestRegisterRequiresCategory(t *testing.T) {
	m, _ := newTestManager(runtimetest.New())
	err := m.Register(types.HotCategoryConfig{})
	assert.ErrorIs(t, err, ErrMissingCategory)
}

func TestReplenishFillsToTarget(t *testing.T) {
	rt := runtimetest.New()
	m, reg := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 2}))
	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "b", TargetSize: 1}))

	assert.Eventually(t, func() bool {
		return warmCount(m, "a") == 2 && warmCount(m, "b") == 1
	}, waitFor, tick)

	// Breadth-first interleave across categories.
	assert.Equal(t, []string{"a", "b", "a"}, rt.ConstructedCategories())
	// Warm handles live in the registry.
	assert.Equal(t, 3, reg.Len())
	// Idle pools never exceed their targets.
	assert.Equal(t, 3, rt.ConstructCount())
}

func TestBreadthFirstFairness(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 3}))
	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "b", TargetSize: 1}))

	assert.Eventually(t, func() bool {
		return warmCount(m, "a") == 3 && warmCount(m, "b") == 1
	}, waitFor, tick)

	assert.Equal(t, []string{"a", "b", "a", "a"}, rt.ConstructedCategories())
}

func TestDebounceCoalesces(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	for i := 0; i < 10; i++ {
		require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 1}))
	}

	assert.Eventually(t, func() bool { return warmCount(m, "a") == 1 }, waitFor, tick)

	// One quiescent period, one backlog build, one construction.
	time.Sleep(5 * testDebounce)
	assert.Equal(t, 1, rt.ConstructCount())
}

func TestRegisterIdempotentPerField(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 2, Bundles: []string{"files"}}))
	// A later register cannot shrink the target or swap bundles.
	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 5, Bundles: []string{"net"}}))

	stats := m.Stats()["a"]
	assert.Equal(t, 2, stats.Target)
	assert.Equal(t, []string{"files"}, stats.Bundles)
}

func TestSequentialDrain(t *testing.T) {
	rt := runtimetest.NewManual()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 3}))

	// Item 2 must not begin construction until item 1 signals loaded.
	assert.Eventually(t, func() bool { return rt.ConstructCount() == 1 }, waitFor, tick)
	time.Sleep(10 * testDebounce)
	require.Equal(t, 1, rt.ConstructCount())

	rt.Constructed()[0].MarkLoaded()
	assert.Eventually(t, func() bool { return rt.ConstructCount() == 2 }, waitFor, tick)

	rt.Constructed()[1].MarkLoaded()
	assert.Eventually(t, func() bool { return rt.ConstructCount() == 3 }, waitFor, tick)

	rt.Constructed()[2].MarkLoaded()
	assert.Eventually(t, func() bool { return warmCount(m, "a") == 3 }, waitFor, tick)
}

func TestCheckoutWarmMerge(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "editor", TargetSize: 1}))
	assert.Eventually(t, func() bool { return warmCount(m, "editor") == 1 }, waitFor, tick)

	warm := rt.Constructed()[0]
	warm.SetParams(types.Params{types.KeyTitle: "Y", types.KeyWidth: 300})

	w, err := m.Checkout("editor", types.Params{types.KeyTitle: "X"})
	require.NoError(t, err)
	assert.Equal(t, warm.ID(), w.ID(), "warm handle must be reused")

	params := w.Params()
	assert.Equal(t, "X", params[types.KeyTitle])
	assert.Equal(t, float64(300), params[types.KeyWidth])
	assert.True(t, w.IsVisible())
	assert.Equal(t, 0, warmCount(m, "editor"))
}

func TestCheckoutIgnoresIdentityKeys(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "editor", TargetSize: 1}))
	assert.Eventually(t, func() bool { return warmCount(m, "editor") == 1 }, waitFor, tick)

	w, err := m.Checkout("editor", types.Params{
		types.KeyCategory: "hijacked",
		"customFlag":      true, // unsupported, merged leniently
	})
	require.NoError(t, err)

	params := w.Params()
	assert.Equal(t, "editor", params.Category())
	assert.Equal(t, true, params["customFlag"])
}

func TestCheckoutUnregisteredFallsBackCold(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	w, err := m.Checkout("ghost", types.Params{types.KeyTitle: "T"})
	require.NoError(t, err)
	require.NotNil(t, w)

	params := w.Params()
	assert.Equal(t, "ghost", params.Category())
	assert.Equal(t, "T", params[types.KeyTitle])
	assert.Equal(t, types.DefaultEntrypoint, params[types.KeyEntrypoint])
}

func TestCheckoutEmptyQueueFallsBackCold(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "docs", TargetSize: 1, Bundles: []string{"files"}}))

	// Before the debounced pass has produced anything warm.
	w, err := m.Checkout("docs", nil)
	require.NoError(t, err)
	params := w.Params()
	assert.Equal(t, "docs", params.Category())
	assert.Equal(t, []any{"files"}, params[types.KeyBundles])
}

func TestCheckoutTriggersReplenish(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 1}))
	assert.Eventually(t, func() bool { return warmCount(m, "a") == 1 }, waitFor, tick)

	_, err := m.Checkout("a", nil)
	require.NoError(t, err)

	// The pool tops itself back up.
	assert.Eventually(t, func() bool { return warmCount(m, "a") == 1 }, waitFor, tick)
}

func TestUnregisterAllDestroysEverything(t *testing.T) {
	rt := runtimetest.New()
	m, reg := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 2}))
	assert.Eventually(t, func() bool { return warmCount(m, "a") == 2 }, waitFor, tick)

	m.UnregisterAll()

	for _, w := range rt.Constructed() {
		assert.True(t, w.Destroyed())
		assert.GreaterOrEqual(t, w.DestroyCalls, 1, "teardown must force-destroy, not close")
	}
	assert.Empty(t, m.Stats())
	assert.Equal(t, 0, reg.Len())
}

func TestUnregisterThenRegisterStartsFresh(t *testing.T) {
	rt := runtimetest.New()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 1}))
	assert.Eventually(t, func() bool { return warmCount(m, "a") == 1 }, waitFor, tick)
	first := rt.Constructed()[0]

	m.UnregisterAll()
	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 1}))

	assert.Eventually(t, func() bool { return warmCount(m, "a") == 1 }, waitFor, tick)
	assert.True(t, first.Destroyed(), "no residual handles from before teardown")
	assert.Equal(t, 2, rt.ConstructCount())
}

func TestUnregisterAllInvalidatesInflight(t *testing.T) {
	rt := runtimetest.NewManual()
	m, _ := newTestManager(rt)

	require.NoError(t, m.Register(types.HotCategoryConfig{Category: "a", TargetSize: 1}))
	assert.Eventually(t, func() bool { return rt.ConstructCount() == 1 }, waitFor, tick)

	m.UnregisterAll()
	inflight := rt.Constructed()[0]
	inflight.MarkLoaded()

	// The landed construction belongs to a torn-down generation.
	assert.Eventually(t, func() bool { return inflight.Destroyed() }, waitFor, tick)
	assert.Empty(t, m.Stats())
}
