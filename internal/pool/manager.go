package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/monitoring"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// ErrMissingCategory is returned by Register when no category name is
// given. It is the only caller-facing pool error.
var ErrMissingCategory = errors.New("pool: category name required")

// reconfigurable is the fixed set of keys supported for a warm
// hand-off. Anything else is merged leniently with a warning; the
// identity keys are never overwritten.
var reconfigurable = map[string]bool{
	types.KeyTitle:     true,
	types.KeyWidth:     true,
	types.KeyHeight:    true,
	types.KeyResizable: true,
	types.KeyFrame:     true,
	types.KeyShow:      true,
	types.KeyProps:     true,
}

var identity = map[string]bool{
	types.KeyCategory:   true,
	types.KeyEntrypoint: true,
	types.KeyBundles:    true,
}

// Config tunes the pool manager.
type Config struct {
	// Debounce collapses bursts of Register/Checkout calls into one
	// replenishment pass.
	Debounce time.Duration
	// DefaultTargetSize applies to categories registered without an
	// explicit target.
	DefaultTargetSize int
	// ConstructPerSec rate-limits background construction; zero means
	// unlimited.
	ConstructPerSec float64
	ConstructBurst  int
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = 100 * time.Millisecond
	}
	if c.DefaultTargetSize < 1 {
		c.DefaultTargetSize = 1
	}
	if c.ConstructBurst < 1 {
		c.ConstructBurst = 1
	}
	return c
}

type categoryPool struct {
	name    string
	target  int
	bundles []string
	warm    []runtime.Window // oldest first

	targetSet  bool
	bundlesSet bool
}

type workItem struct {
	category string
}

// CategoryStats is a point-in-time view of one pool.
type CategoryStats struct {
	Target  int      `json:"target"`
	Warm    int      `json:"warm"`
	Bundles []string `json:"bundles,omitempty"`
}

// Manager owns every per-category hot pool and the replenishment loop.
type Manager struct {
	mu       sync.Mutex
	pools    map[string]*categoryPool
	order    []string // registration order; drives backlog fairness
	backlog  []workItem
	inflight map[string]int
	draining bool
	// generation invalidates in-flight constructions across
	// UnregisterAll.
	generation uint64
	debounce   *time.Timer

	rt      runtime.Runtime
	reg     *registry.Registry
	log     *logging.Logger
	metrics *monitoring.Metrics
	cfg     Config
	limiter *rate.Limiter
}

// NewManager creates a pool manager.
func NewManager(rt runtime.Runtime, reg *registry.Registry, log *logging.Logger, cfg Config) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.ConstructPerSec > 0 {
		limit = rate.Limit(cfg.ConstructPerSec)
	}
	return &Manager{
		pools:    make(map[string]*categoryPool),
		inflight: make(map[string]int),
		rt:       rt,
		reg:      reg,
		log:      log,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.ConstructBurst),
	}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Register creates or updates the pool for a category. Idempotent per
// field: an existing pool only has its unset fields filled in. Always
// schedules a debounced replenishment pass.
func (m *Manager) Register(cfg types.HotCategoryConfig) error {
	if cfg.Category == "" {
		return ErrMissingCategory
	}

	m.mu.Lock()
	p := m.pools[cfg.Category]
	if p == nil {
		p = &categoryPool{name: cfg.Category, target: m.cfg.DefaultTargetSize}
		m.pools[cfg.Category] = p
		m.order = append(m.order, cfg.Category)
	}
	if !p.targetSet && cfg.TargetSize > 0 {
		p.target = cfg.TargetSize
		p.targetSet = true
	}
	if !p.bundlesSet && len(cfg.Bundles) > 0 {
		p.bundles = append([]string{}, cfg.Bundles...)
		p.bundlesSet = true
	}
	m.mu.Unlock()

	m.log.Debug("hot category registered",
		zap.String("category", cfg.Category),
		zap.Int("target", cfg.TargetSize),
	)
	m.ScheduleReplenish()
	return nil
}

// Has reports whether a pool exists for the category.
func (m *Manager) Has(category string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pools[category]
	return ok
}

// Stats returns a snapshot of every pool.
func (m *Manager) Stats() map[string]CategoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]CategoryStats, len(m.pools))
	for name, p := range m.pools {
		out[name] = CategoryStats{
			Target:  p.target,
			Warm:    len(p.warm),
			Bundles: append([]string{}, p.bundles...),
		}
	}
	return out
}

// Checkout hands out a window for the category. A warm handle is
// reconfigured with the caller's parameters (caller wins on collision)
// and shown once loaded; with no pool or an empty warm queue the path
// degrades to a cold start, never an error. Either path schedules a
// replenishment pass.
func (m *Manager) Checkout(category string, caller types.Params) (runtime.Window, error) {
	m.mu.Lock()
	p := m.pools[category]

	var (
		w    runtime.Window
		err  error
		mode string
	)
	switch {
	case p == nil:
		m.mu.Unlock()
		m.log.Warn("checkout for unregistered category; falling back to cold start",
			zap.String("category", category),
		)
		mode = monitoring.CheckoutColdFallback
		w, err = m.coldStart(category, nil, caller)

	case len(p.warm) == 0:
		bundles := append([]string{}, p.bundles...)
		m.mu.Unlock()
		m.log.Warn("warm queue empty; falling back to cold start",
			zap.String("category", category),
		)
		mode = monitoring.CheckoutColdFallback
		w, err = m.coldStart(category, bundles, caller)

	default:
		w = p.warm[0]
		p.warm = p.warm[1:]
		depth := len(p.warm)
		m.mu.Unlock()
		m.metrics.SetHotPoolSize(category, depth)
		mode = monitoring.CheckoutWarm
		m.reconfigure(w, caller)
	}

	if err != nil {
		return nil, err
	}
	m.metrics.ObserveCheckout(category, mode)
	m.ScheduleReplenish()
	return w, nil
}

// coldStart constructs a fresh window from category defaults merged
// under the caller's parameters.
func (m *Manager) coldStart(category string, bundles []string, caller types.Params) (runtime.Window, error) {
	params := m.defaultParams(category, bundles).Merge(caller)
	start := time.Now()
	w, err := m.rt.Construct(params)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.ConstructDuration.WithLabelValues(monitoring.CheckoutCold).
			Observe(time.Since(start).Seconds())
	}
	m.reg.Add(w)
	w.ShowWhenLoaded()
	return w, nil
}

// reconfigure merges the caller's parameters over a warm handle's bag
// and applies the result as a soft reload. Identity keys are skipped;
// keys outside the reconfigurable set are merged anyway but flagged.
func (m *Manager) reconfigure(w runtime.Window, caller types.Params) {
	merged := types.Params{}
	for k, v := range caller {
		if identity[k] {
			m.log.Warn("ignoring identity-defining key on warm checkout",
				zap.String("key", k),
				zap.String("window", w.ID()),
			)
			continue
		}
		if !reconfigurable[k] {
			m.log.Warn("unsupported key on warm checkout; merging anyway",
				zap.String("key", k),
				zap.String("window", w.ID()),
			)
		}
		merged[k] = v
	}
	w.SetParams(merged)
	w.ShowWhenLoaded()
}

func (m *Manager) defaultParams(category string, bundles []string) types.Params {
	p := types.Params{
		types.KeyCategory:   category,
		types.KeyEntrypoint: types.DefaultEntrypoint,
		types.KeyWidth:      types.DefaultWidth,
		types.KeyHeight:     types.DefaultHeight,
		types.KeyMenuBar:    false,
		types.KeyShow:       false,
	}
	if len(bundles) > 0 {
		p[types.KeyBundles] = append([]string{}, bundles...)
	}
	return p
}

// UnregisterAll immediately force-destroys every pooled handle and
// clears all pool state and pending backlog. It does not wait for any
// handle's own lifecycle; pooled handles have no observers that need a
// graceful close, and prompt teardown is required for process exit.
func (m *Manager) UnregisterAll() {
	m.mu.Lock()
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
	m.backlog = nil
	m.generation++
	var doomed []runtime.Window
	for _, p := range m.pools {
		doomed = append(doomed, p.warm...)
	}
	m.pools = make(map[string]*categoryPool)
	m.order = nil
	m.mu.Unlock()

	for _, w := range doomed {
		w.Destroy()
	}
	m.metrics.ResetHotPool()
	if m.metrics != nil {
		m.metrics.PoolTeardowns.Inc()
	}
	m.log.Info("hot pools torn down", zap.Int("destroyed", len(doomed)))
}

// ScheduleReplenish arms (or re-arms) the debounced replenishment pass.
// Each call resets the pending timer; only the final one runs.
func (m *Manager) ScheduleReplenish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debounce != nil {
		m.debounce.Stop()
	}
	m.debounce = time.AfterFunc(m.cfg.Debounce, m.replenish)
}

// replenish rebuilds the backlog and starts the drain when idle.
func (m *Manager) replenish() {
	m.mu.Lock()
	m.debounce = nil
	m.backlog = m.buildBacklogLocked()
	if len(m.backlog) == 0 || m.draining {
		// An active drain picks the fresh backlog up on its next loop.
		m.mu.Unlock()
		return
	}
	m.draining = true
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ReplenishPasses.Inc()
	}
	go m.drain()
}

// drain processes the backlog strictly one item at a time. The next
// construction does not begin until the previous handle signals
// loaded.
func (m *Manager) drain() {
	for {
		m.mu.Lock()
		if len(m.backlog) == 0 {
			m.draining = false
			m.mu.Unlock()
			return
		}
		item := m.backlog[0]
		m.backlog = m.backlog[1:]
		p := m.pools[item.category]
		if p == nil {
			// Pool unregistered since the backlog was built.
			m.mu.Unlock()
			continue
		}
		params := m.defaultParams(p.name, p.bundles)
		gen := m.generation
		m.inflight[item.category]++
		m.mu.Unlock()

		m.warmOne(item.category, params, gen)
	}
}

// warmOne constructs a single warm handle and appends it to its
// category's queue, unless the pool was torn down meanwhile.
func (m *Manager) warmOne(category string, params types.Params, gen uint64) {
	_ = m.limiter.Wait(context.Background())

	start := time.Now()
	w, err := m.rt.Construct(params)
	if err != nil {
		m.log.Error("warm window construction failed",
			zap.String("category", category),
			zap.Error(err),
		)
		m.mu.Lock()
		m.inflight[category]--
		m.mu.Unlock()
		return
	}
	<-w.Loaded()
	if m.metrics != nil {
		m.metrics.ConstructDuration.WithLabelValues(monitoring.CheckoutWarm).
			Observe(time.Since(start).Seconds())
	}

	m.mu.Lock()
	m.inflight[category]--
	p := m.pools[category]
	if gen != m.generation || p == nil {
		m.mu.Unlock()
		w.Destroy()
		return
	}
	p.warm = append(p.warm, w)
	depth := len(p.warm)
	m.mu.Unlock()

	m.metrics.SetHotPoolSize(category, depth)
	m.reg.Add(w)
	m.log.Debug("warm window ready",
		zap.String("category", category),
		zap.Int("pool_size", depth),
	)
}
