package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Config carries the constant labels attached to every series.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes the lounge counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	sessionsStarted  prometheus.Counter
	checkouts        *prometheus.CounterVec
	profileFallbacks *prometheus.CounterVec
	outOfStock       prometheus.Counter
	transfersClaimed prometheus.Counter
}

// NewRegistry builds the registry served on /metrics.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func New(cfg Config, registry *prometheus.Registry) (*Metrics, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "lounge"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "lounge_sessions_started_total",
			Help:        "Sessions started on a device.",
			ConstLabels: constLabels,
		}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "lounge_checkouts_total",
			Help:        "Completed checkouts by settlement method.",
			ConstLabels: constLabels,
		}, []string{"method"}),
		profileFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "lounge_rate_profile_fallbacks_total",
			Help:        "Broken rate profile references recovered by falling back to the category default.",
			ConstLabels: constLabels,
		}, []string{"category"}),
		outOfStock: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "lounge_out_of_stock_total",
			Help:        "Item additions rejected for insufficient stock.",
			ConstLabels: constLabels,
		}),
		transfersClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "lounge_bill_transfers_total",
			Help:        "Carry-forward balances claimed by a new session.",
			ConstLabels: constLabels,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.sessionsStarted,
		m.checkouts,
		m.profileFallbacks,
		m.outOfStock,
		m.transfersClaimed,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) RecordCheckout(method string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(strings.TrimSpace(method)).Inc()
}

func (m *Metrics) RecordProfileFallback(category string) {
	if m == nil {
		return
	}
	m.profileFallbacks.WithLabelValues(strings.TrimSpace(category)).Inc()
}

func (m *Metrics) RecordOutOfStock() {
	if m == nil {
		return
	}
	m.outOfStock.Inc()
}

func (m *Metrics) RecordTransferClaimed() {
	if m == nil {
		return
	}
	m.transfersClaimed.Inc()
}
