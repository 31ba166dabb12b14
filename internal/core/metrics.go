package core

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments Engine operations.
type Metrics struct {
	operations        *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	variantRecomputes prometheus.Counter
}

// NewMetrics creates the ledger collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Ledger unit-of-work operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		variantRecomputes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_variant_recomputes_total",
				Help: "Product variant cost roll-ups written",
			},
		),
	}
	reg.MustRegister(m.operations, m.duration, m.variantRecomputes)
	return m
}

// Operations exposes the operation counter for inspection in tests and dashboards.
func (m *Metrics) Operations() *prometheus.CounterVec { return m.operations }

// VariantRecomputes exposes the roll-up counter.
func (m *Metrics) VariantRecomputes() prometheus.Counter { return m.variantRecomputes }

func (m *Metrics) observe(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) recomputed(n int) {
	if m == nil || n == 0 {
		return
	}
	m.variantRecomputes.Add(float64(n))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInvalidCorrection):
		return "invalid_correction"
	default:
		return "error"
	}
}
