package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	memoOps     *prometheus.CounterVec
	guardDenied *prometheus.CounterVec
	signUps     prometheus.Counter
	signIns     *prometheus.CounterVec
}

// NewPrometheus creates a Recorder whose metrics carry the given namespace.
func NewPrometheus(namespace string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: registry,
		memoOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memo_operations_total",
				Help:      "Memo operations by outcome",
			},
			[]string{"operation"},
		),
		guardDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_guard_denied_total",
				Help:      "Requests denied by the route guard",
			},
			[]string{"kind"},
		),
		signUps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signups_total",
				Help:      "Accounts created",
			},
		),
		signIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signins_total",
				Help:      "Sign-in attempts by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		r.memoOps,
		r.guardDenied,
		r.signUps,
		r.signIns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// IncMemoCreated increments memo created counter.
func (r *PrometheusRecorder) IncMemoCreated() {
	r.memoOps.WithLabelValues("created").Inc()
}

// IncMemoUpdated increments memo updated counter.
func (r *PrometheusRecorder) IncMemoUpdated() {
	r.memoOps.WithLabelValues("updated").Inc()
}

// IncMemoDeleted increments memo deleted counter.
func (r *PrometheusRecorder) IncMemoDeleted() {
	r.memoOps.WithLabelValues("deleted").Inc()
}

// IncMemoNotFound increments the counter of scoped lookups that matched nothing.
func (r *PrometheusRecorder) IncMemoNotFound() {
	r.memoOps.WithLabelValues("not_found").Inc()
}

// IncGuardDenied increments the guard denial counter for the given kind.
func (r *PrometheusRecorder) IncGuardDenied(kind string) {
	r.guardDenied.WithLabelValues(kind).Inc()
}

// IncSignUp increments sign-up counter.
func (r *PrometheusRecorder) IncSignUp() {
	r.signUps.Inc()
}

// IncSignIn increments the sign-in counter for the given status.
func (r *PrometheusRecorder) IncSignIn(status string) {
	r.signIns.WithLabelValues(status).Inc()
}
