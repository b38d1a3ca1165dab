// Package metrics exposes door twin counters and gauges for Prometheus.
//
// Collectors live on a per-instance registry so tests can create as many
// as they need. Handler serves that registry for the /metrics route.
package metrics
