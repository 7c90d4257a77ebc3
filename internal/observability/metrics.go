package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects back-office authorization metrics.
type Metrics interface {
	RecordGuardDecision(route, state, reason string)
	RecordLanding(state string)
	RecordLogin(outcome string)
}

// PrometheusMetrics implements Metrics on a Prometheus registerer.
type PrometheusMetrics struct {
	guardDecisions *prometheus.CounterVec
	landings       *prometheus.CounterVec
	logins         *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		guardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Name:      "guard_decisions_total",
				Help:      "Route guard decisions by route, state and deny reason",
			},
			[]string{"route", "state", "reason"},
		),
		landings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Name:      "landing_total",
				Help:      "Root-path landing outcomes",
			},
			[]string{"state"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Name:      "logins_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.guardDecisions, m.landings, m.logins} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordGuardDecision(route, state, reason string) {
	m.guardDecisions.WithLabelValues(route, state, reason).Inc()
}

func (m *PrometheusMetrics) RecordLanding(state string) {
	m.landings.WithLabelValues(state).Inc()
}

func (m *PrometheusMetrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordGuardDecision(string, string, string) {}
func (NopMetrics) RecordLanding(string)                       {}
func (NopMetrics) RecordLogin(string)                         {}
