package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "license"

// Metrics holds the counters for the public key endpoints and issuance.
// A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	activations *prometheus.CounterVec
	validations *prometheus.CounterVec
	issued      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Activation attempts by outcome.",
		}, []string{"outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validation checks by result message.",
		}, []string{"result"}),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_issued_total",
			Help:      "Keys issued per application.",
		}, []string{"application_id"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activations,
		m.validations,
		m.issued,
	)
	return m
}

func (m *Metrics) Activation(success bool) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(outcome(success)).Inc()
}

// Validation counts a validate call under its result message, which is one
// of a small fixed set.
func (m *Metrics) Validation(result string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
}

func (m *Metrics) KeyIssued(applicationID string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(applicationID).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
