package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout modes recorded on the checkout counter.
const (
	CheckoutWarm         = "warm"
	CheckoutCold         = "cold"
	CheckoutColdFallback = "cold_fallback"
)

// Metrics holds all Prometheus metrics for the window service.
type Metrics struct {
	// Window population
	WindowsOpen   prometheus.Gauge
	WindowsOpened prometheus.Counter
	WindowsClosed prometheus.Counter

	// Hot pool
	HotPoolSize     *prometheus.GaugeVec
	CheckoutsTotal  *prometheus.CounterVec
	ReplenishPasses prometheus.Counter
	PoolTeardowns   prometheus.Counter

	// Construction
	ConstructDuration *prometheus.HistogramVec

	startTime time.Time
}

// NewMetrics creates a metrics collector registered on the default
// registerer. Construct it once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		WindowsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "shell_windows_open",
			Help: "Number of live windows",
		}),
		WindowsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shell_windows_opened_total",
			Help: "Total windows registered",
		}),
		WindowsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shell_windows_closed_total",
			Help: "Total windows removed",
		}),

		HotPoolSize: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shell_hot_pool_size",
				Help: "Warm handles held per category",
			},
			[]string{"category"},
		),
		CheckoutsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_checkouts_total",
				Help: "Window checkouts by category and mode",
			},
			[]string{"category", "mode"},
		),
		ReplenishPasses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shell_replenish_passes_total",
			Help: "Hot-pool replenishment passes executed",
		}),
		PoolTeardowns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shell_pool_teardowns_total",
			Help: "Full hot-pool teardowns",
		}),

		ConstructDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_window_construct_seconds",
				Help:    "Window construction latency until content loaded",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"mode"},
		),
	}
}

// ObserveCheckout records one checkout outcome.
func (m *Metrics) ObserveCheckout(category, mode string) {
	if m == nil {
		return
	}
	m.CheckoutsTotal.WithLabelValues(category, mode).Inc()
}

// SetHotPoolSize records the current warm-queue depth for a category.
func (m *Metrics) SetHotPoolSize(category string, n int) {
	if m == nil {
		return
	}
	m.HotPoolSize.WithLabelValues(category).Set(float64(n))
}

// ResetHotPool clears all per-category warm-queue gauges.
func (m *Metrics) ResetHotPool() {
	if m == nil {
		return
	}
	m.HotPoolSize.Reset()
}

// WindowAdded / WindowRemoved track the live-window gauge.
func (m *Metrics) WindowAdded() {
	if m == nil {
		return
	}
	m.WindowsOpen.Inc()
	m.WindowsOpened.Inc()
}

func (m *Metrics) WindowRemoved() {
	if m == nil {
		return
	}
	m.WindowsOpen.Dec()
	m.WindowsClosed.Inc()
}

// Uptime returns time since metrics creation.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
