package handler

import (
	"net/http"
)

// MetricsHandler exposes application metrics.
type MetricsHandler struct {
	exposer http.Handler
}

// NewMetricsHandler creates a new MetricsHandler around a Prometheus exposition handler.
func NewMetricsHandler(exposer http.Handler) *MetricsHandler {
	return &MetricsHandler{exposer: exposer}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposer == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.exposer.ServeHTTP(w, r)
}
