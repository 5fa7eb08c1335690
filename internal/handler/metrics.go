package handler

import (
	"fmt"
	"net/http"

	"github.com/homenest/homenest/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "homenest_properties_created_total %d\n", snap.PropertiesCreated)
	writeMetric(w, "homenest_properties_updated_total %d\n", snap.PropertiesUpdated)
	writeMetric(w, "homenest_properties_deleted_total %d\n", snap.PropertiesDeleted)
	writeMetric(w, "homenest_ratings_submitted_total %d\n", snap.RatingsSubmitted)

	writeMetric(w, "homenest_users_registered_total{outcome=\"created\"} %d\n", snap.UsersCreated)
	writeMetric(w, "homenest_users_registered_total{outcome=\"existing\"} %d\n", snap.UsersExisting)

	writeMetric(w, "homenest_authz_denied_total{reason=\"unauthenticated\"} %d\n", snap.AuthzUnauthenticated)
	writeMetric(w, "homenest_authz_denied_total{reason=\"forbidden\"} %d\n", snap.AuthzForbidden)

	writeMetric(w, "homenest_featured_cache_hits_total %d\n", snap.FeaturedCacheHits)
	writeMetric(w, "homenest_featured_cache_misses_total %d\n", snap.FeaturedCacheMisses)

	writeMetric(w, "homenest_identity_verify_duration_seconds_count %d\n", snap.VerifyDurationCount)
	writeMetric(w, "homenest_identity_verify_duration_seconds_sum %.6f\n", float64(snap.VerifyDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
