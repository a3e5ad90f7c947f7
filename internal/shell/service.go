package shell

import (
	"os"

	"github.com/aperture-desktop/shell/internal/authgate"
	"github.com/aperture-desktop/shell/internal/config"
	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/mainwin"
	"github.com/aperture-desktop/shell/internal/monitoring"
	"github.com/aperture-desktop/shell/internal/pool"
	"github.com/aperture-desktop/shell/internal/provision"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// Options configures a Service. Runtime and Store are required; the
// rest falls back to sane defaults.
type Options struct {
	Runtime runtime.Runtime
	Store   runtime.ConfigStore
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	// Exit is invoked (one tick deferred) when the last window closes
	// and the quit policy allows it. Defaults to os.Exit(0).
	Exit func()
}

// Service is the window service facade.
type Service struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	reg  *registry.Registry
	pool *pool.Manager
	prov *provision.Provisioner
	main *mainwin.Controller
	gate *authgate.Coordinator
	bus  *bus
}

// Stats aggregates the service's current population.
type Stats struct {
	Open      int                           `json:"open"`
	Visible   int                           `json:"visible"`
	AuthState string                        `json:"auth_state"`
	Pools     map[string]pool.CategoryStats `json:"pools"`
}

// New constructs and wires the window service.
func New(opts Options) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewDefault()
	}
	exit := opts.Exit
	if exit == nil {
		exit = func() { os.Exit(0) }
	}

	s := &Service{
		log:     log,
		metrics: opts.Metrics,
		bus:     newBus(),
	}

	s.reg = registry.New(log).
		WithMetrics(opts.Metrics).
		WithQuitPolicy(cfg.Shell.QuitWhenAllClosed, exit).
		WithAffordanceHooks(
			func() { s.bus.publish(Event{Type: EventMultiWindowEnabled}) },
			func() { s.bus.publish(Event{Type: EventMultiWindowDisabled}) },
		)
	s.reg.OnAdded(func(w runtime.Window) {
		info := snapshotWindow(w)
		s.bus.publish(Event{Type: EventWindowAdded, Window: &info})
	})
	s.reg.OnRemoved(func(w runtime.Window) {
		info := snapshotWindow(w)
		s.bus.publish(Event{Type: EventWindowRemoved, Window: &info})
	})

	s.pool = pool.NewManager(opts.Runtime, s.reg, log, pool.Config{
		Debounce:          cfg.Pool.Debounce(),
		DefaultTargetSize: cfg.Pool.DefaultTargetSize,
		ConstructPerSec:   cfg.Pool.ConstructPerSec,
		ConstructBurst:    cfg.Pool.ConstructBurst,
	}).WithMetrics(opts.Metrics)

	s.prov = provision.New(opts.Runtime, s.reg, s.pool, log).
		WithMetrics(opts.Metrics)

	s.main = mainwin.New(opts.Runtime, s.reg, log, cfg.Shell.DevMode)

	s.gate = authgate.New(
		opts.Store, s.main, s.pool, s.reg, s.prov, log,
		cfg.Shell.AuthTokenKey,
	)
	return s
}

// Start applies the current auth state and begins watching for
// changes.
func (s *Service) Start() {
	s.gate.Start()
}

// Shutdown force-destroys all pooled windows. Live windows outside the
// pool are left to the process teardown.
func (s *Service) Shutdown() {
	s.pool.UnregisterAll()
}

// OpenWindow provisions a window for the request.
func (s *Service) OpenWindow(req types.OpenRequest) (runtime.Window, error) {
	return s.prov.Open(req)
}

// RegisterHotCategory creates or updates the hot pool for a category.
func (s *Service) RegisterHotCategory(cfg types.HotCategoryConfig) error {
	return s.pool.Register(cfg)
}

// FindWindowMatching returns the first window whose bag matches every
// key of subset, or nil.
func (s *Service) FindWindowMatching(subset map[string]any) runtime.Window {
	return s.reg.FindMatching(types.Params(subset))
}

// MainWindow returns the main-window controller.
func (s *Service) MainWindow() *mainwin.Controller {
	return s.main
}

// SendToMainWindow delivers a message to the main window content.
func (s *Service) SendToMainWindow(channel string, payload any) error {
	return s.main.Send(channel, payload)
}

// AllWindows returns every live window.
func (s *Service) AllWindows() []runtime.Window {
	return s.reg.All()
}

// FocusedWindow returns the focused window, or nil.
func (s *Service) FocusedWindow() runtime.Window {
	return s.reg.Focused()
}

// VisibleWindows returns every visible window.
func (s *Service) VisibleWindows() []runtime.Window {
	return s.reg.Visible()
}

// OnWindowAdded and OnWindowRemoved are the lifecycle hooks a window
// handle invokes on itself upon creation and destruction; runtimes that
// self-register call these.
func (s *Service) OnWindowAdded(w runtime.Window)   { s.reg.Add(w) }
func (s *Service) OnWindowRemoved(w runtime.Window) { s.reg.Remove(w) }

// Windows returns serializable snapshots of every live window.
func (s *Service) Windows() []WindowInfo {
	all := s.reg.All()
	out := make([]WindowInfo, len(all))
	for i, w := range all {
		out[i] = snapshotWindow(w)
	}
	return out
}

// Subscribe returns a lifecycle event channel and its cancel func.
func (s *Service) Subscribe() (<-chan Event, func()) {
	return s.bus.subscribe()
}

// Stats returns current aggregate counts.
func (s *Service) Stats() Stats {
	return Stats{
		Open:      s.reg.Len(),
		Visible:   len(s.reg.Visible()),
		AuthState: string(s.gate.State()),
		Pools:     s.pool.Stats(),
	}
}
