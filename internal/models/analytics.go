package models

import "time"

// ScheduleSummary counts entries per status, mirroring the dashboard tiles.
type ScheduleSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Scheduled int `json:"scheduled"`
	Conflicts int `json:"conflicts"`
	NoRoom    int `json:"no_room"`
}

// UsageCount is one bar of a utilisation chart.
type UsageCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ScheduleDashboard bundles the analytics shown on the scheduling dashboard.
type ScheduleDashboard struct {
	Summary          ScheduleSummary `json:"summary"`
	RoomUtilization  []UsageCount    `json:"room_utilization"`
	FacultyWorkload  []UsageCount    `json:"faculty_workload"`
	WeeklyClassCount []UsageCount    `json:"weekly_class_count"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// SystemMetrics is a lightweight snapshot of in-process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Evaluations              uint64    `json:"evaluations"`
	ReconcileRuns            uint64    `json:"reconcile_runs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
