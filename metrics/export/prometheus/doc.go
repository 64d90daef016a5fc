// Package prometheus exposes yggauth engine metrics to Prometheus.
//
// [NewCollector] wraps an [yggauth.Engine] in a prometheus.Collector. Counter
// names are yggauth_*_total; the single histogram is
// yggauth_task_latency_seconds. [Handler] serves one collector from a private
// registry.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
