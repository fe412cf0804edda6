package models

import "time"

// SystemMetrics is a point-in-time snapshot of the service instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SourceFetches            uint64    `json:"source_fetches"`
	AverageSourceFetchMs     float64   `json:"average_source_fetch_ms"`
	GradebookRecords         int       `json:"gradebook_records"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// ExportFormat is the encoding of a downloadable summary.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)
