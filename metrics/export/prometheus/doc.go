// Package prometheus renders deliveryAuth engine metrics in the Prometheus
// text exposition format.
//
// Counters are named deliveryauth_*_total; the single histogram is
// deliveryauth_authenticate_latency_seconds. Nothing is registered globally:
// callers mount [Exporter.Handler] where they want it.
package prometheus
