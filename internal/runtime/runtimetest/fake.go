// Package runtimetest provides a deterministic, manually-stepped window
// runtime for tests. Construction order is recorded and content loading
// is either automatic or driven explicitly via MarkLoaded, which is what
// the drain-ordering tests rely on.
package runtimetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// Runtime is a fake window runtime.
type Runtime struct {
	mu          sync.Mutex
	autoLoad    bool
	nextErr     error
	seq         int
	constructed []*Window
}

// New returns a fake runtime whose windows load immediately at
// construction.
func New() *Runtime {
	return &Runtime{autoLoad: true}
}

// NewManual returns a fake runtime whose windows load only when the test
// calls MarkLoaded.
func NewManual() *Runtime {
	return &Runtime{}
}

// FailNext makes the next Construct call return err.
func (r *Runtime) FailNext(err error) {
	r.mu.Lock()
	r.nextErr = err
	r.mu.Unlock()
}

// Construct creates a fake window and records it.
func (r *Runtime) Construct(params types.Params) (runtime.Window, error) {
	r.mu.Lock()
	if err := r.nextErr; err != nil {
		r.nextErr = nil
		r.mu.Unlock()
		return nil, err
	}
	r.seq++
	w := &Window{
		id:     fmt.Sprintf("fake-%d", r.seq),
		params: params.Clone().Normalize(),
		loaded: make(chan struct{}),
	}
	r.constructed = append(r.constructed, w)
	auto := r.autoLoad
	r.mu.Unlock()

	if auto {
		w.MarkLoaded()
	}
	return w, nil
}

// Constructed returns every window ever constructed, in order.
func (r *Runtime) Constructed() []*Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Window{}, r.constructed...)
}

// ConstructedCategories returns the category tags of constructed
// windows, in construction order.
func (r *Runtime) ConstructedCategories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.constructed))
	for i, w := range r.constructed {
		out[i] = w.params.Category()
	}
	return out
}

// ConstructCount returns how many windows have been constructed.
func (r *Runtime) ConstructCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.constructed)
}

// SentMessage records one Send call on a fake window.
type SentMessage struct {
	Channel string
	Payload any
}

// Window is a fake window handle with assertion accessors.
type Window struct {
	id string

	mu          sync.Mutex
	params      types.Params
	visible     bool
	minimized   bool
	focused     bool
	destroyed   bool
	showPending bool

	CloseCalls   int
	DestroyCalls int
	RestoreCalls int
	Sent         []SentMessage

	loaded   chan struct{}
	loadOnce sync.Once

	destroyedFns []func()
	focusFns     []func(bool)
	preventedFns []func()
}

// MarkLoaded signals the one-shot content-loaded notification.
func (w *Window) MarkLoaded() {
	w.loadOnce.Do(func() { close(w.loaded) })
	w.mu.Lock()
	if w.showPending && !w.destroyed {
		w.visible = true
		w.focused = true
	}
	w.showPending = false
	w.mu.Unlock()
}

// SetMinimized drives the minimized flag from tests.
func (w *Window) SetMinimized(min bool) {
	w.mu.Lock()
	w.minimized = min
	w.mu.Unlock()
}

// Destroyed reports whether the window was torn down.
func (w *Window) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
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

func (w *Window) Loaded() <-chan struct{} { return w.loaded }

func (w *Window) ShowWhenLoaded() {
	select {
	case <-w.loaded:
		w.mu.Lock()
		if !w.destroyed {
			w.visible = true
			w.focused = true
		}
		w.mu.Unlock()
	default:
		w.mu.Lock()
		w.showPending = true
		w.mu.Unlock()
	}
}

func (w *Window) Close() {
	w.mu.Lock()
	w.CloseCalls++
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
	w.destroy()
}

func (w *Window) Destroy() {
	w.mu.Lock()
	w.DestroyCalls++
	w.mu.Unlock()
	w.destroy()
}

func (w *Window) destroy() {
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
	for _, fn := range fns {
		fn()
	}
}

func (w *Window) Restore() {
	w.mu.Lock()
	w.RestoreCalls++
	if !w.destroyed {
		w.minimized = false
		w.visible = true
	}
	w.mu.Unlock()
}

func (w *Window) Focus() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.focused = true
	fns := append([]func(bool){}, w.focusFns...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn(true)
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
		return errors.New("runtimetest: window destroyed")
	}
	w.Sent = append(w.Sent, SentMessage{Channel: channel, Payload: payload})
	return nil
}
