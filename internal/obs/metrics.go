// Package obs holds the Prometheus collectors shared by the sentinel components.
package obs

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Alert outcomes used as the "outcome" label of AlertsTotal.
const (
	AlertSent      = "sent"
	AlertFailed    = "failed"
	AlertCoalesced = "coalesced"
)

// Metrics groups the collectors of one sentinel instance. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	BreakerOpenedTotal *prometheus.CounterVec
	AlertsTotal        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Collectors already
// registered under the same name are reused.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Observed outbound requests by endpoint, method and status.",
		}, []string{"endpoint", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_ms",
			Help:      "Outbound request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"endpoint"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"endpoint"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"endpoint", "from", "to"}),
		BreakerOpenedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker transitioned into open state",
		}, []string{"endpoint"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert notifications by outcome (sent, failed, coalesced).",
		}, []string{"outcome"}),
	}

	if reg != nil {
		m.RequestsTotal = register(reg, m.RequestsTotal)
		m.RequestDuration = register(reg, m.RequestDuration)
		m.BreakerState = register(reg, m.BreakerState)
		m.BreakerTransitions = register(reg, m.BreakerTransitions)
		m.BreakerOpenedTotal = register(reg, m.BreakerOpenedTotal)
		m.AlertsTotal = register(reg, m.AlertsTotal)
	}
	return m
}

func (m *Metrics) ObserveRequest(endpoint, method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(DurationMillis(latency))
}

// SetBreakerState records the gauge value for a breaker state name.
func (m *Metrics) SetBreakerState(endpoint, state string) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(endpoint).Set(stateGaugeValue(state))
}

func (m *Metrics) BreakerTransition(endpoint, from, to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(endpoint, from, to).Inc()
	if to == "open" {
		m.BreakerOpenedTotal.WithLabelValues(endpoint).Inc()
	}
	m.SetBreakerState(endpoint, to)
}

func (m *Metrics) Alert(outcome string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(outcome).Inc()
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func stateGaugeValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "open":
		return 1
	case "half-open":
		return 2
	default:
		return -1
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
