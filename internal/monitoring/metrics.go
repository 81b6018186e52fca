// Package monitoring registers Prometheus instrumentation for ingestion,
// geocoding, and export activity.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "teacherdash_"

	ResultSuccess  = "success"
	ResultError    = "error"
	ResultMatched  = "matched"
	ResultNotFound = "not_found"
)

var (
	registerOnce sync.Once

	geocodeRequests *prometheus.CounterVec
	geocodeLatency  *prometheus.HistogramVec

	rowsIngested  prometheus.Counter
	ingestBatches *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec

	datasetRows prometheus.Gauge
)

// Init registers the metric collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		geocodeRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "geocode_requests_total",
				Help: "Total geocoding lookups by result",
			},
			[]string{"result"},
		)
		geocodeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "geocode_latency_seconds",
				Help:    "Geocoding lookup latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		rowsIngested = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_ingested_total",
				Help: "Total roster rows appended to the dataset",
			},
		)
		ingestBatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_batches_total",
				Help: "Total roster uploads processed by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Roster upload processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total dataset exports by format and result",
			},
			[]string{"format", "result"},
		)

		datasetRows = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "dataset_rows",
				Help: "Current number of rows in the dataset",
			},
		)

		prometheus.MustRegister(
			geocodeRequests,
			geocodeLatency,
			rowsIngested,
			ingestBatches,
			ingestLatency,
			exportTotal,
			datasetRows,
		)
	})
}

// ObserveGeocode records one geocoding lookup.
func ObserveGeocode(result string, duration time.Duration) {
	if geocodeRequests != nil {
		geocodeRequests.WithLabelValues(result).Inc()
	}
	if geocodeLatency != nil {
		geocodeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddRowsIngested records appended roster rows.
func AddRowsIngested(n int) {
	if rowsIngested != nil && n > 0 {
		rowsIngested.Add(float64(n))
	}
}

// ObserveIngestBatch records one roster upload.
func ObserveIngestBatch(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ingestBatches != nil {
		ingestBatches.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records one dataset export.
func ObserveExport(format, result string) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// SetDatasetRows updates the dataset size gauge.
func SetDatasetRows(n int) {
	if datasetRows != nil {
		datasetRows.Set(float64(n))
	}
}
