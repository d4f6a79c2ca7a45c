package extraction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const outcomeSuccess = "success"

// Metrics records extraction outcomes. A nil *Metrics records nothing.
type Metrics struct {
	extractions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the extraction collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_box",
			Name:      "extractions_total",
			Help:      "Recipe extractions by input kind and outcome (success or error kind).",
		}, []string{"input", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recipe_box",
			Name:      "extraction_duration_seconds",
			Help:      "Wall time of a full extraction, model call included.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"input"}),
	}
	reg.MustRegister(m.extractions, m.duration)
	return m
}

func (m *Metrics) observe(kind InputKind, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.extractions.WithLabelValues(string(kind), outcome).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}
