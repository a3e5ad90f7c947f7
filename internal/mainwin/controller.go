// Package mainwin owns the singleton primary window. The main window
// hides instead of closing: its bag carries neverClose=true, so ordinary
// closes are routed by the window itself into a hide. Close is the one
// path that actually destroys it.
package mainwin

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// Category tags the main window's parameter bag.
const Category = "main"

// Bootstrap entrypoints. Dev mode loads from the renderer dev server
// instead of the packaged resources.
const (
	entrypoint    = "shell://main/index.html"
	devEntrypoint = "http://localhost:5173/main/index.html"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800
)

// ErrNoMainWindow is returned when sending to a main window that does
// not exist.
var ErrNoMainWindow = errors.New("mainwin: no main window")

// Controller manages the at-most-one main window.
type Controller struct {
	mu  sync.Mutex
	win runtime.Window

	rt      runtime.Runtime
	reg     *registry.Registry
	log     *logging.Logger
	devMode bool
}

// New creates a main-window controller.
func New(rt runtime.Runtime, reg *registry.Registry, log *logging.Logger, devMode bool) *Controller {
	if log == nil {
		log = logging.NewNop()
	}
	return &Controller{rt: rt, reg: reg, log: log, devMode: devMode}
}

// Show surfaces the main window, constructing it on first use. On an
// existing instance it restores from minimized and focuses, or makes it
// visible once content has loaded when hidden. Idempotent.
func (c *Controller) Show() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.win != nil {
		w := c.win
		if w.IsMinimized() {
			w.Restore()
		}
		if !w.IsVisible() {
			w.ShowWhenLoaded()
		}
		w.Focus()
		return nil
	}

	entry := entrypoint
	if c.devMode {
		entry = devEntrypoint
	}

	w, err := c.rt.Construct(types.Params{
		types.KeyCategory:   Category,
		types.KeyTitle:      "Aperture",
		types.KeyWidth:      defaultWidth,
		types.KeyHeight:     defaultHeight,
		types.KeyEntrypoint: entry,
		types.KeyNeverClose: true,
		types.KeyShow:       false,
	})
	if err != nil {
		return err
	}
	c.win = w
	w.OnDestroyed(func() { c.forget(w) })
	c.reg.Add(w)
	w.ShowWhenLoaded()

	c.log.Info("main window created",
		zap.String("id", w.ID()),
		zap.Bool("dev", c.devMode),
	)
	return nil
}

// Close destroys the main window for real: it clears the neverClose
// guard, issues an ordinary close, and drops the singleton reference.
func (c *Controller) Close() {
	c.mu.Lock()
	w := c.win
	c.win = nil
	c.mu.Unlock()

	if w == nil {
		return
	}
	w.SetParams(types.Params{types.KeyNeverClose: false})
	w.Close()
	c.log.Info("main window closed", zap.String("id", w.ID()))
}

// Window returns the live main window, or nil.
func (c *Controller) Window() runtime.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win
}

// Send delivers a message to the main window content.
func (c *Controller) Send(channel string, payload any) error {
	w := c.Window()
	if w == nil {
		return ErrNoMainWindow
	}
	return w.Send(channel, payload)
}

// forget clears the singleton reference when the window was destroyed
// by someone other than Close.
func (c *Controller) forget(w runtime.Window) {
	c.mu.Lock()
	if c.win == w {
		c.win = nil
	}
	c.mu.Unlock()
}
