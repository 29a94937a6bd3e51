package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calculation sources used as the "source" label.
const (
	SourceWorksheet = "worksheet"
	SourceAPI       = "api"
)

// Calculation outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
)

// BusinessMetrics holds Prometheus metrics for calculator usage.
type BusinessMetrics struct {
	// Calculations
	Calculations        *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec
	LineItems           *prometheus.HistogramVec
	SkippedRows         *prometheus.CounterVec
	GrandTotal          *prometheus.HistogramVec
	ShipmentWeight      *prometheus.HistogramVec

	// Worksheets
	WorksheetEdits   *prometheus.CounterVec
	WorksheetCommits prometheus.Counter
	ActiveWorksheets prometheus.Gauge
	WorksheetsPruned prometheus.Counter
}

// NewBusinessMetrics creates the metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "daigou"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Calculations
		// =======================================================================
		Calculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculations_total",
				Help:      "Total landed-cost calculations",
			},
			[]string{"source", "outcome"}, // outcome: ok, empty, invalid
		),
		CalculationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_duration_seconds",
				Help:      "Time spent pricing one worksheet",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
			[]string{"source"},
		),
		LineItems: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_line_items",
				Help:      "Priced line items per calculation",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"source"},
		),
		SkippedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_skipped_rows_total",
				Help:      "Rows dropped because every numeric field was zero",
			},
			[]string{"source"},
		),
		GrandTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_grand_total",
				Help:      "Grand total distribution in the home currency",
				Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"source"},
		),
		ShipmentWeight: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_weight_kg",
				Help:      "Total shipment weight per calculation in kg",
				Buckets:   []float64{1, 4, 7, 10, 25, 50, 100, 250},
			},
			[]string{"source"},
		),

		// =======================================================================
		// Worksheets
		// =======================================================================
		WorksheetEdits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "worksheet_edits_total",
				Help:      "Total draft edits",
			},
			[]string{"action"}, // action: save, add_row, remove_row, params
		),
		WorksheetCommits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "worksheet_commits_total",
				Help:      "Total draft submissions",
			},
		),
		ActiveWorksheets: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "worksheets_active",
				Help:      "Worksheets currently held in memory",
			},
		),
		WorksheetsPruned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "worksheets_pruned_total",
				Help:      "Idle worksheets removed by the janitor",
			},
		),
	}

	return m
}

// ObserveCalculation records one finished calculation.
func (m *BusinessMetrics) ObserveCalculation(source, outcome string, seconds float64, items, skipped int, grandTotal, weight float64) {
	if m == nil {
		return
	}

	m.Calculations.WithLabelValues(source, outcome).Inc()
	m.CalculationDuration.WithLabelValues(source).Observe(seconds)
	if skipped > 0 {
		m.SkippedRows.WithLabelValues(source).Add(float64(skipped))
	}
	if outcome != OutcomeOK {
		return
	}
	m.LineItems.WithLabelValues(source).Observe(float64(items))
	m.GrandTotal.WithLabelValues(source).Observe(grandTotal)
	m.ShipmentWeight.WithLabelValues(source).Observe(weight)
}

// ObserveEdit records a draft edit.
func (m *BusinessMetrics) ObserveEdit(action string) {
	if m == nil {
		return
	}
	m.WorksheetEdits.WithLabelValues(action).Inc()
}

// ObserveCommit records a draft submission.
func (m *BusinessMetrics) ObserveCommit() {
	if m == nil {
		return
	}
	m.WorksheetCommits.Inc()
}

// ObservePrune records a janitor pass.
func (m *BusinessMetrics) ObservePrune(removed, remaining int) {
	if m == nil {
		return
	}
	m.WorksheetsPruned.Add(float64(removed))
	m.ActiveWorksheets.Set(float64(remaining))
}
