// Package provision is the window create/request path: it decides
// between a pool checkout and a cold start and owns the cold-start
// default parameter set.
package provision

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/monitoring"
	"github.com/aperture-desktop/shell/internal/pool"
	"github.com/aperture-desktop/shell/internal/registry"
	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// DefaultCategory tags windows opened without a category.
const DefaultCategory = "generic"

// Provisioner coordinates cold-vs-warm window provisioning.
type Provisioner struct {
	rt      runtime.Runtime
	reg     *registry.Registry
	pool    *pool.Manager
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a provisioner.
func New(rt runtime.Runtime, reg *registry.Registry, p *pool.Manager, log *logging.Logger) *Provisioner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Provisioner{rt: rt, reg: reg, pool: p, log: log}
}

// WithMetrics adds metrics tracking to the provisioner.
func (p *Provisioner) WithMetrics(m *monitoring.Metrics) *Provisioner {
	p.metrics = m
	return p
}

// Open provisions a window for the request. Unless the caller forces a
// cold start, categories with a registered pool go through checkout;
// everything else cold-starts with the fixed defaults overridden by the
// caller's fields.
func (p *Provisioner) Open(req types.OpenRequest) (runtime.Window, error) {
	category := req.Category
	if category == "" {
		category = DefaultCategory
	}

	if !req.ForceCold && p.pool.Has(category) {
		return p.pool.Checkout(category, req.Params())
	}
	return p.coldStart(category, req)
}

func (p *Provisioner) coldStart(category string, req types.OpenRequest) (runtime.Window, error) {
	params := types.Params{
		types.KeyCategory:   category,
		types.KeyEntrypoint: types.DefaultEntrypoint,
		types.KeyWidth:      types.DefaultWidth,
		types.KeyHeight:     types.DefaultHeight,
		types.KeyMenuBar:    false,
		types.KeyShow:       false,
		types.KeyProps: map[string]any{
			"windowId": uuid.NewString(),
		},
	}.Merge(req.Params())

	start := time.Now()
	w, err := p.rt.Construct(params)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.ConstructDuration.WithLabelValues(monitoring.CheckoutCold).
			Observe(time.Since(start).Seconds())
	}
	p.metrics.ObserveCheckout(category, monitoring.CheckoutCold)

	p.reg.Add(w)
	w.ShowWhenLoaded()
	// A cold start changes demand too; let the pool top itself up.
	p.pool.ScheduleReplenish()

	p.log.Debug("cold-started window",
		zap.String("id", w.ID()),
		zap.String("category", category),
	)
	return w, nil
}
