package mqtt

import (
	"context"

	"codeberg.org/mutker/runcat/internal/latest"
	"codeberg.org/mutker/runcat/internal/logger"
	"codeberg.org/mutker/runcat/internal/sampler"
)

// Reporter moves publishing off the sampler goroutine. Observe stores the
// newest sample; Run publishes it. A sample that arrives while the broker is
// slow replaces the pending one.
type Reporter struct {
	pub     Publisher
	pending *latest.Slot[sampler.Sample]
	log     logger.Logger
}

func NewReporter(pub Publisher, log logger.Logger) *Reporter {
	return &Reporter{
		pub:     pub,
		pending: latest.New[sampler.Sample](),
		log:     log,
	}
}

// Observe is a sampler.Observer.
func (r *Reporter) Observe(s sampler.Sample) {
	r.pending.Publish(s)
}

// Run publishes pending samples until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.pending.Updates():
			s, ok := r.pending.TryRead()
			if !ok {
				continue
			}
			if err := r.pub.Publish(s); err != nil {
				r.log.Warn().Err(err).Float64("cpu", s.Percent).Msg("Failed to publish sample")
			}
		}
	}
}

// Stats returns how many samples were observed and how many were replaced
// before they could be published.
func (r *Reporter) Stats() latest.Stats {
	return r.pending.Stats()
}
