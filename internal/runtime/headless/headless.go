// Package headless implements the window runtime contract in-process,
// with timer-driven content loading and real visibility/focus
// bookkeeping. It backs the development server; it renders nothing.
package headless

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// ErrDestroyed is returned by Send on a torn-down window.
var ErrDestroyed = errors.New("headless: window destroyed")

// Runtime constructs headless windows whose content "loads" after a
// fixed delay.
type Runtime struct {
	mu        sync.Mutex
	loadDelay time.Duration
	windows   map[string]*Window
	focusedID string
}

// New creates a headless runtime. A non-positive loadDelay makes
// windows load synchronously at construction.
func New(loadDelay time.Duration) *Runtime {
	return &Runtime{
		loadDelay: loadDelay,
		windows:   make(map[string]*Window),
	}
}

// Construct creates a new window from the given parameter bag.
func (r *Runtime) Construct(params types.Params) (runtime.Window, error) {
	w := &Window{
		id:     uuid.NewString(),
		rt:     r,
		params: params.Clone().Normalize(),
		loaded: make(chan struct{}),
	}

	r.mu.Lock()
	r.windows[w.id] = w
	r.mu.Unlock()

	if r.loadDelay <= 0 {
		w.markLoaded()
	} else {
		time.AfterFunc(r.loadDelay, w.markLoaded)
	}
	return w, nil
}

// Live returns the number of windows not yet destroyed.
func (r *Runtime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

func (r *Runtime) remove(id string) {
	r.mu.Lock()
	delete(r.windows, id)
	if r.focusedID == id {
		r.focusedID = ""
	}
	r.mu.Unlock()
}

// setFocused moves runtime-wide focus to the given window. Windows are
// locked one at a time, never while holding another window's lock.
func (r *Runtime) setFocused(w *Window) {
	r.mu.Lock()
	prevID := r.focusedID
	r.focusedID = w.id
	prev := r.windows[prevID]
	r.mu.Unlock()

	if prev != nil && prev != w {
		prev.setFocus(false)
	}
	w.setFocus(true)
}

// Window is a headless window instance.
type Window struct {
	id string
	rt *Runtime

	mu          sync.Mutex
	params      types.Params
	visible     bool
	minimized   bool
	focused     bool
	destroyed   bool
	showPending bool

	loaded   chan struct{}
	loadOnce sync.Once

	destroyedFns []func()
	focusFns     []func(bool)
	preventedFns []func()
}

func (w *Window) ID() string { return w.id }

func (w *Window) Category() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.params.Category()
}

func (w *Window) Params() types.Params {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.params.Clone()
}

func (w *Window) SetParams(p types.Params) {
	w.mu.Lock()
	w.params = w.params.Merge(p.Normalize())
	w.mu.Unlock()
}

func (w *Window) markLoaded() {
	w.loadOnce.Do(func() { close(w.loaded) })

	w.mu.Lock()
	show := w.showPending && !w.destroyed
	w.showPending = false
	if show {
		w.visible = true
	}
	w.mu.Unlock()

	if show {
		w.rt.setFocused(w)
	}
}

func (w *Window) Loaded() <-chan struct{} { return w.loaded }

func (w *Window) ShowWhenLoaded() {
	select {
	case <-w.loaded:
		w.mu.Lock()
		if w.destroyed {
			w.mu.Unlock()
			return
		}
		w.visible = true
		w.mu.Unlock()
		w.rt.setFocused(w)
	default:
		w.mu.Lock()
		w.showPending = true
		w.mu.Unlock()
	}
}

// Close routes into a hide when the bag carries neverClose=true;
// otherwise it tears the window down.
func (w *Window) Close() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	if w.params.Bool(types.KeyNeverClose, false) {
		w.visible = false
		fns := append([]func(){}, w.preventedFns...)
		w.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
		return
	}
	w.mu.Unlock()
	w.Destroy()
}

// Destroy tears the window down without close routing. Destroyed
// observers fire so the registry can settle.
func (w *Window) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.visible = false
	w.showPending = false
	fns := append([]func(){}, w.destroyedFns...)
	w.mu.Unlock()

	w.rt.remove(w.id)
	for _, fn := range fns {
		fn()
	}
}

func (w *Window) Restore() {
	w.mu.Lock()
	if !w.destroyed {
		w.minimized = false
		w.visible = true
	}
	w.mu.Unlock()
}

func (w *Window) Focus() {
	w.mu.Lock()
	dead := w.destroyed
	w.mu.Unlock()
	if !dead {
		w.rt.setFocused(w)
	}
}

// Minimize is not part of the consumed facade but the runtime needs it
// so restore-from-minimized paths can be exercised.
func (w *Window) Minimize() {
	w.mu.Lock()
	if !w.destroyed {
		w.minimized = true
	}
	w.mu.Unlock()
}

func (w *Window) setFocus(focused bool) {
	w.mu.Lock()
	if w.destroyed || w.focused == focused {
		w.mu.Unlock()
		return
	}
	w.focused = focused
	fns := append([]func(bool){}, w.focusFns...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn(focused)
	}
}

func (w *Window) IsMinimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *Window) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *Window) IsFocused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *Window) OnDestroyed(fn func()) {
	w.mu.Lock()
	w.destroyedFns = append(w.destroyedFns, fn)
	w.mu.Unlock()
}

func (w *Window) OnFocus(fn func(bool)) {
	w.mu.Lock()
	w.focusFns = append(w.focusFns, fn)
	w.mu.Unlock()
}

func (w *Window) OnClosePrevented(fn func()) {
	w.mu.Lock()
	w.preventedFns = append(w.preventedFns, fn)
	w.mu.Unlock()
}

func (w *Window) Send(channel string, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	// Nothing renders the payload; delivery is a no-op.
	_ = channel
	_ = payload
	return nil
}
