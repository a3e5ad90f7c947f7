package runtime

import "github.com/aperture-desktop/shell/internal/types"

// Window is the facade over one live window instance. All calls are
// non-blocking; loading is signaled through the one-shot Loaded channel.
type Window interface {
	// ID returns the runtime-assigned instance identifier.
	ID() string
	// Category returns the category tag the window was constructed with.
	Category() string

	// Params returns a snapshot of the parameter bag.
	Params() types.Params
	// SetParams overwrites bag entries and re-applies them to the live
	// window (a soft reload; no reconstruction).
	SetParams(p types.Params)

	// Close requests an ordinary close. A window whose bag carries
	// neverClose=true routes this into a hide and fires the
	// close-prevented observers instead.
	Close()
	// Destroy tears the window down immediately, bypassing the close
	// routing. Destroyed observers still fire so bookkeeping can settle.
	Destroy()

	Restore()
	Focus()
	IsMinimized() bool
	IsVisible() bool
	IsFocused() bool

	// ShowWhenLoaded makes the window visible once its content has
	// loaded, immediately if it already has.
	ShowWhenLoaded()
	// Loaded is closed exactly once when the window content has loaded.
	Loaded() <-chan struct{}

	OnDestroyed(fn func())
	OnFocus(fn func(focused bool))
	OnClosePrevented(fn func())

	// Send delivers a message to the window content on a named channel.
	Send(channel string, payload any) error
}

// Runtime constructs windows. Construction is asynchronous: the returned
// handle exists immediately, its content loads later.
type Runtime interface {
	Construct(params types.Params) (Window, error)
}

// ConfigStore is the persistent key-value store with change
// notification consumed by the auth gate.
type ConfigStore interface {
	Get(key string) (string, bool)
	OnChange(key string, fn func(value string))
}
