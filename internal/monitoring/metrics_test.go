package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// NewMetrics registers on the default registerer; construct once.
var metrics = NewMetrics()

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCheckout("a", CheckoutWarm)
	m.SetHotPoolSize("a", 3)
	m.ResetHotPool()
	m.WindowAdded()
	m.WindowRemoved()
}

func TestWindowGauge(t *testing.T) {
	before := testutil.ToFloat64(metrics.WindowsOpen)

	metrics.WindowAdded()
	metrics.WindowAdded()
	metrics.WindowRemoved()

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WindowsOpen))
}

func TestHotPoolGauge(t *testing.T) {
	metrics.SetHotPoolSize("editor", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HotPoolSize.WithLabelValues("editor")))

	metrics.ResetHotPool()
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.HotPoolSize.WithLabelValues("editor")))
}

func TestCheckoutCounter(t *testing.T) {
	metrics.ObserveCheckout("editor", CheckoutColdFallback)
	metrics.ObserveCheckout("editor", CheckoutColdFallback)
	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.CheckoutsTotal.WithLabelValues("editor", CheckoutColdFallback)))
}

func TestUptime(t *testing.T) {
	assert.GreaterOrEqual(t, metrics.Uptime().Nanoseconds(), int64(0))
}
