package observability

import (
	"context"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "botsmith"

// Metrics collects compiler metrics.
type Metrics struct {
	compilations *prometheus.CounterVec
	duration     prometheus.Histogram
	nodes        *prometheus.CounterVec
	nodeDuration prometheus.Histogram
	diagnostics  *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		compilations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compilations_total",
			Help:      "Compilations finished, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compilation_duration_seconds",
			Help:      "Time spent assembling a program.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_emitted_total",
			Help:      "Nodes emitted, by node type and result.",
		}, []string{"type", "result"}),
		nodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_emit_duration_seconds",
			Help:      "Time spent emitting a single node.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported, by kind and severity.",
		}, []string{"kind", "severity"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "compilations_in_flight",
			Help:      "Compilations currently running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.compilations, m.duration, m.nodes, m.nodeDuration, m.diagnostics, m.inFlight)
	}
	return m
}

// Hooks returns compiler hooks that feed the collectors.
func (m *Metrics) Hooks() domain.CompileHooks {
	return domain.CompileHooks{
		OnCompileStart: func(context.Context, *domain.CompileEvent) {
			m.inFlight.Inc()
		},
		OnCompileEnd: func(_ context.Context, e *domain.CompileEvent) {
			m.inFlight.Dec()
			m.duration.Observe(e.Duration.Seconds())
			outcome := "clean"
			switch {
			case e.Failed:
				outcome = "aborted"
			case e.Diagnostics > 0:
				outcome = "with_diagnostics"
			}
			m.compilations.WithLabelValues(outcome).Inc()
		},
		OnNodeEmitted: func(_ context.Context, e *domain.NodeEvent) {
			result := "ok"
			if e.Failed {
				result = "failed"
			}
			m.nodes.WithLabelValues(string(e.NodeType), result).Inc()
			m.nodeDuration.Observe(e.Duration.Seconds())
		},
		OnDiagnostic: func(_ context.Context, e *domain.DiagnosticEvent) {
			m.diagnostics.WithLabelValues(string(e.Diagnostic.Kind), string(e.Diagnostic.Severity)).Inc()
		},
	}
}

// Chain merges several hook sets; every callback of every set is invoked in order.
func Chain(sets ...domain.CompileHooks) domain.CompileHooks {
	return domain.CompileHooks{
		OnCompileStart: func(ctx context.Context, e *domain.CompileEvent) {
			for _, h := range sets {
				if h.OnCompileStart != nil {
					h.OnCompileStart(ctx, e)
				}
			}
		},
		OnCompileEnd: func(ctx context.Context, e *domain.CompileEvent) {
			for _, h := range sets {
				if h.OnCompileEnd != nil {
					h.OnCompileEnd(ctx, e)
				}
			}
		},
		OnNodeEmitted: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range sets {
				if h.OnNodeEmitted != nil {
					h.OnNodeEmitted(ctx, e)
				}
			}
		},
		OnDiagnostic: func(ctx context.Context, e *domain.DiagnosticEvent) {
			for _, h := range sets {
				if h.OnDiagnostic != nil {
					h.OnDiagnostic(ctx, e)
				}
			}
		},
	}
}
