// Package authgate reacts to auth-token changes in the configuration
// store and decides which windows may be on screen: the main window
// while authenticated, the onboarding window otherwise.
package authgate

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/mainwin"
	"github.com/aperture-desktop/shell/internal/pool"
	"github.com/aperture-desktop/shell/internal/provision"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// State is the coordinator's auth state.
type State string

const (
	StateUnknown         State = ""
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Onboarding window identity and shape.
const (
	OnboardingCategory = "onboarding"
	OnboardingMarker   = "onboarding"

	onboardingWidth  = 420
	onboardingHeight = 540
)

// Coordinator is a level-triggered two-state machine: entry actions are
// idempotent, so re-applying the current state is always safe.
type Coordinator struct {
	store runtime.ConfigStore
	main  *mainwin.Controller
	pool  *pool.Manager
	reg   *registry.Registry
	prov  *provision.Provisioner
	log   *logging.Logger

	tokenKey string

	mu    sync.Mutex
	state State
}

// New creates an auth-gate coordinator watching tokenKey.
func New(
	store runtime.ConfigStore,
	main *mainwin.Controller,
	p *pool.Manager,
	reg *registry.Registry,
	prov *provision.Provisioner,
	log *logging.Logger,
	tokenKey string,
) *Coordinator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Coordinator{
		store:    store,
		main:     main,
		pool:     p,
		reg:      reg,
		prov:     prov,
		log:      log,
		tokenKey: tokenKey,
	}
}

// Start applies the current token state and subscribes to changes.
func (c *Coordinator) Start() {
	token, _ := c.store.Get(c.tokenKey)
	c.apply(token != "")
	c.store.OnChange(c.tokenKey, func(value string) {
		c.apply(value != "")
	})
}

// State returns the current auth state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// apply runs the entry action for the state derived from token
// presence. Level-triggered: the action runs even when the state did
// not change.
func (c *Coordinator) apply(authenticated bool) {
	next := StateUnauthenticated
	if authenticated {
		next = StateAuthenticated
	}

	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	if prev != next {
		c.log.Info("auth state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(next)),
		)
	}

	if authenticated {
		c.enterAuthenticated()
	} else {
		c.enterUnauthenticated()
	}
}

// enterAuthenticated surfaces the main window. Re-showing an already
// visible main window is a no-op beyond focus/restore.
func (c *Coordinator) enterAuthenticated() {
	if err := c.main.Show(); err != nil {
		c.log.Error("failed to show main window", zap.Error(err))
	}
}

// enterUnauthenticated swaps the session out for onboarding: the
// onboarding window is found or created and shown, the main window is
// destroyed (not hidden), the entire hot pool is force-destroyed, and
// every other live window is closed.
func (c *Coordinator) enterUnauthenticated() {
	onboarding := c.ensureOnboarding()

	c.main.Close()
	c.pool.UnregisterAll()

	for _, w := range c.reg.All() {
		if w == onboarding {
			continue
		}
		w.Close()
	}
}

// ensureOnboarding finds the onboarding window by its identity marker
// or cold-starts it with the fixed shape: frameless, small, fixed size.
func (c *Coordinator) ensureOnboarding() runtime.Window {
	if w := c.reg.FindMatching(types.Params{"uniqueId": OnboardingMarker}); w != nil {
		w.ShowWhenLoaded()
		return w
	}

	no := false
	w, err := c.prov.Open(types.OpenRequest{
		Category:  OnboardingCategory,
		Title:     "Welcome",
		Width:     onboardingWidth,
		Height:    onboardingHeight,
		Resizable: &no,
		Frame:     &no,
		Props:     map[string]any{"uniqueId": OnboardingMarker},
		ForceCold: true,
	})
	if err != nil {
		c.log.Error("failed to create onboarding window", zap.Error(err))
		return nil
	}
	return w
}
