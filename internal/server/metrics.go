package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks session traffic and how often the engine had to fall back
// to local deterministic behavior.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsFinished  prometheus.Counter
	turnsProcessed    prometheus.Counter
	classifyFallbacks prometheus.Counter
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// NewMetrics builds a Metrics recorder using the default registry.
func NewMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewMetricsWithRegisterer allows tests to provide a dedicated registry.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "allersim_sessions_started_total",
			Help: "Training sessions started.",
		}),
		sessionsFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "allersim_sessions_finished_total",
			Help: "Training sessions finalized and scored.",
		}),
		turnsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "allersim_turns_processed_total",
			Help: "Conversation turns processed across all sessions.",
		}),
		classifyFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "allersim_semantic_fallbacks_total",
			Help: "Turns where semantic classification was unavailable and the pattern classifier answered.",
		}),
	}
}

// RecordSessionStarted increments the started-session counter.
func (m *Metrics) RecordSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// RecordSessionFinished increments the finished-session counter.
func (m *Metrics) RecordSessionFinished() {
	if m == nil {
		return
	}
	m.sessionsFinished.Inc()
}

// RecordTurn increments the processed-turn counter.
func (m *Metrics) RecordTurn() {
	if m == nil {
		return
	}
	m.turnsProcessed.Inc()
}

// RecordClassifyFallback increments the semantic-fallback counter.
func (m *Metrics) RecordClassifyFallback() {
	if m == nil {
		return
	}
	m.classifyFallbacks.Inc()
}
