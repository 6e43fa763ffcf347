package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Calculation outcomes recorded in dorameter_calculations_total
const (
	statusOK            = "ok"
	statusInvalidInput  = "invalid_input"
	statusInvalidPeriod = "invalid_period"
	statusError         = "error"
)

// Metrics bundles the Prometheus collectors of the API
type Metrics struct {
	Calculations        *prometheus.CounterVec
	SkippedRecords      *prometheus.CounterVec
	CalculationDuration prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dorameter_calculations_total",
			Help: "Total number of DORA calculations by outcome.",
		}, []string{"status"}),
		SkippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dorameter_skipped_records_total",
			Help: "Total number of input records skipped, by reason.",
		}, []string{"reason"}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dorameter_calculation_duration_seconds",
			Help:    "Time spent decoding and calculating one request.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.Calculations,
		m.SkippedRecords,
		m.CalculationDuration,
	)

	return m
}

func (m *Metrics) observeSkipped(skipped map[string]int) {
	for reason, n := range skipped {
		m.SkippedRecords.WithLabelValues(reason).Add(float64(n))
	}
}
