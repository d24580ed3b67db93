package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_sync_runs_started_total",
			Help: "Sync runs started, by entity kind and trigger",
		},
		[]string{"entity_kind", "triggered_by"},
	)

	RunsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_sync_runs_finished_total",
			Help: "Sync runs finished, by entity kind and terminal status",
		},
		[]string{"entity_kind", "status"},
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_sync_run_duration_seconds",
			Help:    "End-to-end sync run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"entity_kind"},
	)

	RecordsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_records_processed_total",
			Help: "Per-record merge outcomes, by entity kind",
		},
		[]string{"entity_kind", "outcome"},
	)

	RawRecordsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_raw_records_appended_total",
			Help: "Raw ledger rows appended, by entity kind",
		},
		[]string{"entity_kind"},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_upstream_requests_total",
			Help: "Requests to upstream APIs, by API and result",
		},
		[]string{"api", "status"},
	)

	EnrichmentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_enrichment_attempts_total",
			Help: "Enrichment attempts, by terminal status",
		},
		[]string{"status"},
	)

	EnrichmentItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_enrichment_items_total",
			Help: "Enrichment items written, by item type",
		},
		[]string{"item_type"},
	)

	SnapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_snapshot_writes_total",
			Help: "Run snapshot archive writes, by backend and result",
		},
		[]string{"backend", "status"},
	)
)

func Init() {
	prometheus.MustRegister(RunsStarted)
	prometheus.MustRegister(RunsFinished)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RecordsProcessed)
	prometheus.MustRegister(RawRecordsAppended)
	prometheus.MustRegister(UpstreamRequests)
	prometheus.MustRegister(EnrichmentAttempts)
	prometheus.MustRegister(EnrichmentItems)
	prometheus.MustRegister(SnapshotWrites)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
