package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for the data acquisition layer.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	QueueDispatches *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	CacheLookups    *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrowser_queue_dispatches_total",
				Help: "Provider requests dispatched by the request queue, by outcome",
			},
			[]string{"outcome"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketbrowser_queue_depth",
				Help: "Requests waiting in the request queue",
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrowser_cache_lookups_total",
				Help: "Response cache lookups, by result",
			},
			[]string{"result"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrowser_fallbacks_total",
				Help: "Responses served from reference data, by part",
			},
			[]string{"part"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.QueueDispatches, m.QueueDepth, m.CacheLookups, m.Fallbacks)
	}
	return m
}

// Dispatched records one dispatch with outcome "success" or "failure".
func (m *Metrics) Dispatched(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.QueueDispatches.WithLabelValues(outcome).Inc()
}

// SetQueueDepth reports the number of waiting requests.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Fallback records that part (overview, series, quote, movers) came from reference data.
func (m *Metrics) Fallback(part string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(part).Inc()
}
