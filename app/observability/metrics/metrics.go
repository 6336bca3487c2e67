package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	RemoteRequestsTotal        metric.Int64Counter
	RemoteRequestDuration      metric.Float64Histogram
	RemoteConflictRetriesTotal metric.Int64Counter
	CollectionCacheHitsTotal   metric.Int64Counter
	RecordWritesTotal          metric.Int64Counter
	LoginRequestsTotal         metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-lms-sdk")
		var err error
		m := &AppMetrics{}

		m.RemoteRequestsTotal, err = meter.Int64Counter(
			"remote_requests_total",
			metric.WithDescription("Total number of requests issued against the remote object API"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create remote_requests_total: %v", err)
		}

		m.RemoteRequestDuration, err = meter.Float64Histogram(
			"remote_request_duration_seconds",
			metric.WithDescription("Duration of remote object API round trips in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create remote_request_duration_seconds: %v", err)
		}

		m.RemoteConflictRetriesTotal, err = meter.Int64Counter(
			"remote_conflict_retries_total",
			metric.WithDescription("Total number of compare-and-swap retries caused by version conflicts"),
			metric.WithUnit("{retry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create remote_conflict_retries_total: %v", err)
		}

		m.CollectionCacheHitsTotal, err = meter.Int64Counter(
			"collection_cache_hits_total",
			metric.WithDescription("Total number of collection reads served from the TTL cache"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create collection_cache_hits_total: %v", err)
		}

		m.RecordWritesTotal, err = meter.Int64Counter(
			"record_writes_total",
			metric.WithDescription("Total number of committed record mutations"),
			metric.WithUnit("{write}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create record_writes_total: %v", err)
		}

		m.LoginRequestsTotal, err = meter.Int64Counter(
			"login_requests_total",
			metric.WithDescription("Total number of login attempts completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_requests_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, or nil when
// InitAppMetrics was not called (tests construct components without it).
func Get() *AppMetrics {
	return appMetrics
}
