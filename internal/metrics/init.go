package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, endpoint := range []string{"search", "albums", "media_item", "download"} {
		APIPagesTotal.WithLabelValues(endpoint, "ok")
		APIPagesTotal.WithLabelValues(endpoint, "error")
		APIPageDuration.WithLabelValues(endpoint)
	}

	for _, status := range []string{"success", "error"} {
		TokenRefreshesTotal.WithLabelValues(status)
	}

	for _, outcome := range []string{"success", "failure", "cached"} {
		ItemsProcessedTotal.WithLabelValues(outcome)
	}

	for _, op := range []string{"fetch", "list_albums"} {
		BatchDuration.WithLabelValues(op)
		for _, outcome := range []string{"success", "cancelled", "error"} {
			BatchesTotal.WithLabelValues(op, outcome)
		}
	}

	CacheLookupsTotal.WithLabelValues("hit")
	CacheLookupsTotal.WithLabelValues("miss")
}
