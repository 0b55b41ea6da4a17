package entitlements

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripcraft/tierkit/pkg/tier"
)

const (
	resultAllowed      = "allowed"
	resultLimitReached = "limit_reached"
	resultStoreError   = "store_error"
	resultOK           = "ok"
	resultRejected     = "rejected"
)

// maxLabelLen caps label values taken from requests.
const maxLabelLen = 64

func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

// Metrics holds Prometheus instrumentation for entitlement decisions.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	usageDecisions *prometheus.CounterVec
	planChanges    *prometheus.CounterVec
	cancellations  *prometheus.CounterVec
	unknownKeys    *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg gets a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		usageDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tier",
			Name:      "usage_decisions_total",
			Help:      "Usage increments by counter and outcome.",
		}, []string{"kind", "result"}),
		planChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tier",
			Name:      "plan_changes_total",
			Help:      "Plan change requests by target plan and outcome.",
		}, []string{"plan", "result"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tier",
			Name:      "cancellations_total",
			Help:      "Subscription cancellations by outcome.",
		}, []string{"result"}),
		unknownKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tier",
			Name:      "unknown_keys_total",
			Help:      "Lookups that fell back to a safe default.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.usageDecisions, m.planChanges, m.cancellations, m.unknownKeys)
	return m
}

// TrackSessions exposes the number of cached resolvers as a gauge.
func (m *Metrics) TrackSessions(s *Sessions) {
	if m == nil || s == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tier",
		Name:      "sessions_cached",
		Help:      "Resolvers held in the session cache.",
	}, func() float64 { return float64(s.Len()) }))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordUsage(kind tier.UsageKind, result string) {
	if m == nil {
		return
	}
	m.usageDecisions.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) recordPlanChange(plan, result string) {
	if m == nil {
		return
	}
	m.planChanges.WithLabelValues(plan, result).Inc()
}

func (m *Metrics) recordCancel(result string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(result).Inc()
}

// RecordUnknownKey matches tier.WithUnknownKeyHook.
func (m *Metrics) RecordUnknownKey(k tier.UnknownKey) {
	if m == nil {
		return
	}
	m.unknownKeys.WithLabelValues(sanitizeLabel(k.Kind)).Inc()
}
