package metrics

import (
	"context"
	"time"
)

// MetricsCollector defines the core domain interface
type MetricsCollector interface {
	Record(ctx context.Context, snapshot *MetricsSnapshot) error
	Close() error
}

// MetricsRepository defines the interface for sample storage
type MetricsRepository interface {
	Record(snapshot *MetricsSnapshot) error
	Close() error
}

// MetricsSnapshot is one recorded CPU sample together with the frame delay
// it maps to.
type MetricsSnapshot struct {
	Timestamp  time.Time
	CPUPercent float64
	DelayMs    uint64
}
