package sampler

import (
	"context"
	"time"
)

// Reader queries global CPU utilization.
type Reader interface {
	// Percent returns the host-wide CPU utilization since the previous call,
	// as a percentage. Values slightly above 100 are possible.
	Percent(ctx context.Context) (float64, error)
}

// Sample is a single CPU reading handed to observers.
type Sample struct {
	Percent float64
	At      time.Time
}

// Observer is notified after every published sample. Observers run on the
// sampler goroutine and must not block.
type Observer func(Sample)
