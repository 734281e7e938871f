// Package metrics provides Prometheus instrumentation for htb buckets.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "htb"
	subsystem = "ratelimit"
)

// Registry holds all metric instances for htb buckets.
type Registry struct {
	Requests  *prometheus.CounterVec
	Allowed   *prometheus.CounterVec
	Denied    *prometheus.CounterVec
	Borrowed  *prometheus.CounterVec
	WaitTime  *prometheus.HistogramVec
	Tokens    *prometheus.GaugeVec
	WaitError *prometheus.CounterVec
}

var (
	registriesMu sync.Mutex
	registries   = make(map[prometheus.Registerer]*Registry)
)

// DefaultRegistry returns the registry bound to prometheus.DefaultRegisterer.
// Collectors are registered on first use.
func DefaultRegistry() *Registry {
	return RegistryFor(prometheus.DefaultRegisterer)
}

// RegistryFor returns the Registry whose collectors are registered with reg,
// creating it on first use. Buckets sharing a registerer share collectors and
// are told apart by their bucket_name label.
func RegistryFor(reg prometheus.Registerer) *Registry {
	registriesMu.Lock()
	defer registriesMu.Unlock()

	if r, ok := registries[reg]; ok {
		return r
	}
	r := NewRegistry(reg)
	registries[reg] = r
	return r
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
// It panics if the collectors are already registered with reg; use
// RegistryFor to share them.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	labels := []string{"bucket_name"}

	return &Registry{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of tokens requested",
			},
			labels,
		),

		Allowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "allowed_total",
				Help:      "Total number of tokens admitted",
			},
			labels,
		),

		Denied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "denied_total",
				Help:      "Total number of tokens denied",
			},
			labels,
		),

		Borrowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "borrowed_total",
				Help:      "Total number of tokens admitted on ancestor capacity",
			},
			labels,
		),

		WaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "wait_duration_seconds",
				Help:      "Time spent blocked waiting for tokens",
				Buckets:   prometheus.DefBuckets,
			},
			labels,
		),

		Tokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tokens_available",
				Help:      "Token balance of the bucket, negative while in debt",
			},
			labels,
		),

		WaitError: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "wait_errors_total",
				Help:      "Total number of waits that ended without tokens",
			},
			labels,
		),
	}
}
