package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "evse_"

	resultSuccess = "success"
	resultError   = "error"
	resultNoData  = "no_data"
	resultBadData = "bad_data"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
	ingestSamples  prometheus.Counter

	seriesBuildTotal   *prometheus.CounterVec
	seriesBuildLatency *prometheus.HistogramVec
	seriesSamples      *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
	archiveTotal  *prometheus.CounterVec
)

// Init registers metering metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total meter value ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		ingestSamples = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_samples_total",
				Help: "Total meter value samples stored",
			},
		)

		seriesBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_build_total",
				Help: "Total chart series builds by chart and result",
			},
			[]string{"chart", "result"},
		)
		seriesBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "series_build_latency_seconds",
				Help:    "Chart series build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chart"},
		)
		seriesSamples = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_samples_total",
				Help: "Samples evaluated by series builds, by outcome",
			},
			[]string{"outcome"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_export_total",
				Help: "Total series exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "series_export_latency_seconds",
				Help:    "Series export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)
		archiveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_archive_total",
				Help: "Total export archive uploads by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			ingestSamples,
			seriesBuildTotal,
			seriesBuildLatency,
			seriesSamples,
			exportTotal,
			exportLatency,
			archiveTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// AddIngestSamples increments the stored sample counter by count.
func AddIngestSamples(count int) {
	if count <= 0 {
		return
	}
	if ingestSamples != nil {
		ingestSamples.Add(float64(count))
	}
}

// ObserveSeriesBuild records a chart series build.
func ObserveSeriesBuild(chart, result string, duration time.Duration) {
	if chart == "" {
		chart = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if seriesBuildTotal != nil {
		seriesBuildTotal.WithLabelValues(chart, result).Inc()
	}
	if seriesBuildLatency != nil {
		seriesBuildLatency.WithLabelValues(chart).Observe(duration.Seconds())
	}
}

// AddSeriesSamples counts evaluated samples for an outcome.
func AddSeriesSamples(outcome string, count int) {
	if count <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if seriesSamples != nil {
		seriesSamples.WithLabelValues(outcome).Add(float64(count))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncArchive increments export archive upload counter.
func IncArchive(result string) {
	if result == "" {
		result = resultSuccess
	}
	if archiveTotal != nil {
		archiveTotal.WithLabelValues(result).Inc()
	}
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "meter_readings_stored",
			Help: "Stored meter readings",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM meter_readings")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultNoData  = resultNoData
	ResultBadData = resultBadData
)
