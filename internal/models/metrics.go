package models

import "time"

// SystemMetrics is an aggregated snapshot of service activity.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Admitted                 uint64    `json:"admitted"`
	Waitlisted               uint64    `json:"waitlisted"`
	Rejected                 uint64    `json:"rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
