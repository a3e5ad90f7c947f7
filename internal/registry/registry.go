// Package registry tracks every live window handle and answers
// property-based lookups and focus/visibility queries. It owns the
// authoritative live-window list; pools hold only weak interest in
// handles they have not yet released.
package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/monitoring"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// Registry is the live-window registry.
type Registry struct {
	mu      sync.Mutex
	windows []runtime.Window

	log     *logging.Logger
	metrics *monitoring.Metrics

	onFirst func()
	onLast  func()

	quitWhenEmpty bool
	exit          func()

	addedFns   []func(runtime.Window)
	removedFns []func(runtime.Window)
}

// New creates an empty registry.
func New(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{log: log}
}

// WithMetrics adds metrics tracking to the registry.
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// WithAffordanceHooks installs the hooks toggled on the first
// registration and the last removal (multi-window menu items and the
// like).
func (r *Registry) WithAffordanceHooks(onFirst, onLast func()) *Registry {
	r.onFirst = onFirst
	r.onLast = onLast
	return r
}

// WithQuitPolicy configures quit-on-last-window-closed. The exit call is
// deferred one scheduling tick so it never re-enters the event handler
// that triggered the removal.
func (r *Registry) WithQuitPolicy(enabled bool, exit func()) *Registry {
	r.quitWhenEmpty = enabled
	r.exit = exit
	return r
}

// OnAdded registers a subscriber invoked after every registration.
func (r *Registry) OnAdded(fn func(runtime.Window)) {
	r.mu.Lock()
	r.addedFns = append(r.addedFns, fn)
	r.mu.Unlock()
}

// OnRemoved registers a subscriber invoked after every removal.
func (r *Registry) OnRemoved(fn func(runtime.Window)) {
	r.mu.Lock()
	r.removedFns = append(r.removedFns, fn)
	r.mu.Unlock()
}

// Add appends a handle to the live list and wires its destroyed and
// focus observers. Observer wiring is skipped for test-harness handles.
func (r *Registry) Add(w runtime.Window) {
	r.mu.Lock()
	for _, existing := range r.windows {
		if existing == w {
			r.mu.Unlock()
			return
		}
	}
	r.windows = append(r.windows, w)
	first := len(r.windows) == 1
	added := append([]func(runtime.Window){}, r.addedFns...)
	r.mu.Unlock()

	if !w.Params().Bool(types.KeyHarness, false) {
		r.wireObservers(w)
	}

	r.metrics.WindowAdded()
	r.log.Debug("window registered",
		zap.String("id", w.ID()),
		zap.String("category", w.Category()),
	)

	if first && r.onFirst != nil {
		r.onFirst()
	}
	for _, fn := range added {
		fn(w)
	}
}

func (r *Registry) wireObservers(w runtime.Window) {
	w.OnDestroyed(func() { r.Remove(w) })
	w.OnFocus(func(focused bool) {
		r.log.Debug("window focus changed",
			zap.String("id", w.ID()),
			zap.Bool("focused", focused),
		)
	})
	w.OnClosePrevented(func() {
		r.log.Debug("window close prevented; hidden instead",
			zap.String("id", w.ID()),
		)
	})
}

// Remove drops a handle by identity. When the live list becomes empty
// the last-window hook runs and the quit policy is evaluated.
func (r *Registry) Remove(w runtime.Window) {
	r.mu.Lock()
	idx := -1
	for i, existing := range r.windows {
		if existing == w {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	r.windows = append(r.windows[:idx], r.windows[idx+1:]...)
	empty := len(r.windows) == 0
	removed := append([]func(runtime.Window){}, r.removedFns...)
	r.mu.Unlock()

	r.metrics.WindowRemoved()
	r.log.Debug("window removed", zap.String("id", w.ID()))

	for _, fn := range removed {
		fn(w)
	}

	if empty {
		if r.onLast != nil {
			r.onLast()
		}
		if r.quitWhenEmpty && r.exit != nil {
			// Next tick, never inside the removal event.
			time.AfterFunc(0, r.exit)
		}
	}
}

// FindMatching returns the first handle whose parameter bag matches
// every key in subset, or nil.
func (r *Registry) FindMatching(subset types.Params) runtime.Window {
	for _, w := range r.All() {
		if w.Params().Matches(subset) {
			return w
		}
	}
	return nil
}

// All returns a snapshot of the live list in registration order.
func (r *Registry) All() []runtime.Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runtime.Window{}, r.windows...)
}

// Focused returns the focused window, or nil.
func (r *Registry) Focused() runtime.Window {
	for _, w := range r.All() {
		if w.IsFocused() {
			return w
		}
	}
	return nil
}

// Visible returns every currently visible window.
func (r *Registry) Visible() []runtime.Window {
	var out []runtime.Window
	for _, w := range r.All() {
		if w.IsVisible() {
			out = append(out, w)
		}
	}
	return out
}

// Len returns the live-window count.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}
