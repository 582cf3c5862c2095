package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics holds all application metrics. Each instance carries its own
// registry, so constructing a second one never collides with the first.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Counters
	summaryComputes   *prometheus.CounterVec
	paymentsCaptured  *prometheus.CounterVec
	upsalesRecorded   prometheus.Counter
	revenueAnomalies  *prometheus.CounterVec
	storeErrors       *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	checkins          prometheus.Counter

	// Histograms
	summaryDuration prometheus.Histogram

	// Gauges
	guestsCheckedIn prometheus.Gauge
}

// New creates and registers the application metrics
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		summaryComputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revenue_summary_computes_total",
				Help: "Number of effective-revenue summary computations",
			},
			[]string{"scope"}, // guest, portfolio
		),

		paymentsCaptured: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_captured_total",
				Help: "Number of payment capture attempts",
			},
			[]string{"kind", "status"}, // kind: sponsorship, service; status: ok, rejected, failed
		),

		upsalesRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "upsales_recorded_total",
				Help: "Number of upsale workflows committed",
			},
		),

		revenueAnomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revenue_anomalies_total",
				Help: "Business-rule anomalies observed while computing summaries",
			},
			[]string{"kind"}, // negative_effective, negative_unpaid, flag_without_evidence
		),

		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_errors_total",
				Help: "Ledger store failures by operation",
			},
			[]string{"operation"},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summary_cache_lookups_total",
				Help: "Summary cache lookups",
			},
			[]string{"result"}, // hit, miss, error
		),

		checkins: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "guest_checkins_total",
				Help: "Number of guests checked in",
			},
		),

		summaryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "revenue_summary_duration_seconds",
				Help:    "Time spent fetching and computing one guest summary",
				Buckets: prometheus.DefBuckets,
			},
		),

		guestsCheckedIn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guests_checked_in",
				Help: "Current number of checked-in guests",
			},
		),
	}

	m.registry.MustRegister(
		m.summaryComputes,
		m.paymentsCaptured,
		m.upsalesRecorded,
		m.revenueAnomalies,
		m.storeErrors,
		m.cacheLookups,
		m.checkins,
		m.summaryDuration,
		m.guestsCheckedIn,
	)

	return m
}

// RecordSummaryCompute records one summary computation
func (m *Metrics) RecordSummaryCompute(scope string, seconds float64) {
	m.summaryComputes.WithLabelValues(scope).Inc()
	if scope == "guest" {
		m.summaryDuration.Observe(seconds)
	}
}

// RecordPaymentCapture records a payment capture attempt
func (m *Metrics) RecordPaymentCapture(kind string, status string) {
	m.paymentsCaptured.WithLabelValues(kind, status).Inc()
}

// RecordUpsale records a committed upsale workflow
func (m *Metrics) RecordUpsale() {
	m.upsalesRecorded.Inc()
}

// RecordAnomaly records a business-rule anomaly
func (m *Metrics) RecordAnomaly(kind string) {
	m.revenueAnomalies.WithLabelValues(kind).Inc()
	m.logger.Debug("revenue anomaly recorded", zap.String("kind", kind))
}

// RecordStoreError records a ledger store failure
func (m *Metrics) RecordStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// RecordCacheLookup records a summary cache lookup result
func (m *Metrics) RecordCacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordCheckin records a guest check-in
func (m *Metrics) RecordCheckin(totalCheckedIn int) {
	m.checkins.Inc()
	m.guestsCheckedIn.Set(float64(totalCheckedIn))
}
