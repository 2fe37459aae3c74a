package app

import (
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

// Metrics counts and times the operations of a domain. All values are
// kept in a go-metrics registry, named "<operation>.<kind>".
type Metrics struct {
	registry metrics.Registry
}

// NewMetrics returns metrics recorded in given registry. A nil registry
// creates a private one.
func NewMetrics(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &Metrics{registry: r}
}

// Registry gives access to the underlying registry, for reporting.
func (m *Metrics) Registry() metrics.Registry {
	return m.registry
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	metrics.GetOrRegisterTimer(op+".time", m.registry).UpdateSince(start)
	if err != nil {
		metrics.GetOrRegisterCounter(op+".failed", m.registry).Inc(1)
		return
	}
	metrics.GetOrRegisterCounter(op+".ok", m.registry).Inc(1)
}

// Succeeded returns how many times given operation completed.
func (m *Metrics) Succeeded(op string) int64 {
	return metrics.GetOrRegisterCounter(op+".ok", m.registry).Count()
}

// Failed returns how many times given operation was rolled back.
func (m *Metrics) Failed(op string) int64 {
	return metrics.GetOrRegisterCounter(op+".failed", m.registry).Count()
}
