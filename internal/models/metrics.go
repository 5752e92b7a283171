package models

import "time"

// SystemMetrics is a point-in-time summary of the service's instrumentation.
type SystemMetrics struct {
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	RemoteFetchesTotal        uint64    `json:"remote_fetches_total"`
	RemoteFailuresTotal       uint64    `json:"remote_failures_total"`
	StoreOperationsTotal      uint64    `json:"store_operations_total"`
	AverageStoreOpDurationMs  float64   `json:"average_store_op_duration_ms"`
	CacheHits                 uint64    `json:"cache_hits"`
	CacheMisses               uint64    `json:"cache_misses"`
	CacheHitRatio             float64   `json:"cache_hit_ratio"`
	BulkInFlightHighWaterMark int64     `json:"bulk_in_flight_high_water_mark"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}
