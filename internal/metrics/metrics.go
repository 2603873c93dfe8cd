// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes the preread core's outcomes as Prometheus
// collectors, built by a NewMetrics constructor and registered with
// MustRegister.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	errs "grimm.is/prereadtls/internal/errors"
	"grimm.is/prereadtls/internal/preread"
)

func errorKind(err error) string { return errs.GetKind(err).String() }

// Metrics holds every counter and histogram the preread phase updates.
// A single instance is shared across all connections on a host; the
// per-connection preread.Context itself stays metrics-free so the
// parser has no global state shared across connections.
type Metrics struct {
	HandshakesSeen    prometheus.Counter
	ClientHellosSeen  prometheus.Counter
	SSLv2Seen         prometheus.Counter
	Declined          *prometheus.CounterVec // by reason
	Errors            prometheus.Counter
	FingerprintsBuilt prometheus.Counter
	SNIFound          prometheus.Counter
	ALPNFound         prometheus.Counter
	StepDuration      prometheus.Histogram
}

// NewMetrics builds an unregistered Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		HandshakesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_handshakes_total",
			Help: "Total number of Controller.Handle results the preread phase observed.",
		}),
		ClientHellosSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_clienthellos_total",
			Help: "Total number of ClientHello messages successfully parsed to completion.",
		}),
		SSLv2Seen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_sslv2_total",
			Help: "Total number of legacy SSLv2 ClientHello prologues recognized.",
		}),
		Declined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prereadtls_declined_total",
			Help: "Total number of connections declined by preread, by reason.",
		}, []string{"reason"}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_errors_total",
			Help: "Total number of internal errors (allocation failure, parser bugs).",
		}),
		FingerprintsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_ja3n_built_total",
			Help: "Total number of JA3N fingerprints successfully rendered.",
		}),
		SNIFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_sni_found_total",
			Help: "Total number of ClientHellos carrying a server_name extension.",
		}),
		ALPNFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prereadtls_alpn_found_total",
			Help: "Total number of ClientHellos carrying an ALPN extension.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prereadtls_step_duration_seconds",
			Help:    "Wall time spent in a single Controller.Handle call.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.HandshakesSeen.Describe(ch)
	m.ClientHellosSeen.Describe(ch)
	m.SSLv2Seen.Describe(ch)
	m.Declined.Describe(ch)
	m.Errors.Describe(ch)
	m.FingerprintsBuilt.Describe(ch)
	m.SNIFound.Describe(ch)
	m.ALPNFound.Describe(ch)
	m.StepDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.HandshakesSeen.Collect(ch)
	m.ClientHellosSeen.Collect(ch)
	m.SSLv2Seen.Collect(ch)
	m.Declined.Collect(ch)
	m.Errors.Collect(ch)
	m.FingerprintsBuilt.Collect(ch)
	m.SNIFound.Collect(ch)
	m.ALPNFound.Collect(ch)
	m.StepDuration.Collect(ch)
}

// RegisterMetrics registers m with the default Prometheus registry.
func (m *Metrics) RegisterMetrics() {
	prometheus.MustRegister(m)
}

// Observe updates counters from one Controller.Handle outcome. vars is
// only consulted when res == preread.OK, and may be nil.
func (m *Metrics) Observe(res preread.Result, err error, vars *preread.Context, seconds float64) {
	m.HandshakesSeen.Inc()
	m.StepDuration.Observe(seconds)

	switch res {
	case preread.OK:
		m.ClientHellosSeen.Inc()
		if vars != nil {
			if vars.IsLegacySSLv2() {
				m.SSLv2Seen.Inc()
			}
			if vars.IsSSL() {
				if _, ok := vars.ServerName(); ok {
					m.SNIFound.Inc()
				}
				if _, ok := vars.ALPNProtocols(); ok {
					m.ALPNFound.Inc()
				}
				if _, ok := vars.JA3N(); ok {
					m.FingerprintsBuilt.Inc()
				}
			}
		}
	case preread.Declined:
		reason := "unknown"
		if err != nil {
			reason = errorKind(err)
		}
		m.Declined.WithLabelValues(reason).Inc()
	case preread.Error:
		m.Errors.Inc()
	}
}
