// Package metrics provides Prometheus instrumentation for the photo
// ingestion pipeline.
//
// All metrics are prefixed with "photoflow_" and registered with the
// default registry via promauto. Categories:
//
//   - Remote API: pages requested by endpoint and status, page request
//     duration, token refreshes
//   - Fetch pipeline: items processed by outcome, downloads in flight,
//     batch counts and durations by operation
//   - Cache: lookups by result, writes, evictions, total size
//
// To expose them, mount promhttp.Handler() on the metrics endpoint.
// Call [InitializeMetrics] once at startup so every label combination
// is present from the first scrape.
package metrics
