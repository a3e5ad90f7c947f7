/*
Package monitoring provides Prometheus metrics for the window service.

Tracked series cover the live-window population, per-category warm queue
depth, checkout outcomes (warm hand-off vs cold start vs cold fallback),
replenishment passes, and window construction latency.

Usage:

	metrics := monitoring.NewMetrics()
	metrics.WindowsOpen.Inc()
	metrics.ObserveCheckout("settings", monitoring.CheckoutWarm)

Expose via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
