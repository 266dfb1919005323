package sampler

import (
	"context"
	"math"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/latest"
	"codeberg.org/mutker/runcat/internal/logger"
)

const (
	// MinimumInterval is the shortest interval over which a CPU utilization
	// reading is meaningful.
	MinimumInterval = 200 * time.Millisecond

	DefaultInterval = time.Second
)

type Config struct {
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

// Option configures a Sampler
type Option func(*Sampler)

// WithObserver registers fn to be called after each published sample.
func WithObserver(fn Observer) Option {
	return func(s *Sampler) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) {
		s.log = log
	}
}

// WithClock replaces time.Now and the ticker source.
func WithClock(now func() time.Time, tick func(time.Duration) (<-chan time.Time, func())) Option {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
		if tick != nil {
			s.tick = tick
		}
	}
}

// Sampler periodically reads CPU utilization and publishes it into a
// latest-value-wins slot.
type Sampler struct {
	reader    Reader
	slot      *latest.Slot[float64]
	interval  time.Duration
	observers []Observer
	log       logger.Logger

	now  func() time.Time
	tick func(time.Duration) (<-chan time.Time, func())

	failures int
}

func New(reader Reader, slot *latest.Slot[float64], cfg Config, opts ...Option) (*Sampler, error) {
	errFactory := errors.New()

	if reader == nil || slot == nil {
		return nil, errFactory.New(ErrMissingDependency)
	}

	s := &Sampler{
		reader:   reader,
		slot:     slot,
		interval: cfg.Interval,
		now:      time.Now,
		tick:     newTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.WithComponent("sampler")
	}

	if s.interval < MinimumInterval {
		s.log.Warn().
			Dur("configured", s.interval).
			Dur("minimum", MinimumInterval).
			Msg("Sample interval below minimum, using minimum")
		s.interval = MinimumInterval
	}

	return s, nil
}

// Interval returns the effective sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Run samples on every tick until ctx is cancelled. A failed reading is logged
// and skipped; the consumer keeps using the last published value.
func (s *Sampler) Run(ctx context.Context) error {
	ticks, stop := s.tick(s.interval)
	defer stop()

	s.log.Debug().Dur("interval", s.interval).Msg("Sampler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("Sampler stopped")
			return nil
		case <-ticks:
			if err := s.SampleOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.failures++
				s.log.Warn().
					Err(err).
					Int("consecutive_failures", s.failures).
					Msg("CPU reading failed")
				continue
			}
			s.failures = 0
		}
	}
}

// SampleOnce takes one reading, publishes it and notifies observers.
func (s *Sampler) SampleOnce(ctx context.Context) error {
	errFactory := errors.New()

	percent, err := s.reader.Percent(ctx)
	if err != nil {
		return err
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) || percent < 0 {
		return errFactory.WithData(ErrInvalidReading, percent)
	}

	s.slot.Publish(percent)

	sample := Sample{Percent: percent, At: s.now()}
	for _, observe := range s.observers {
		observe(sample)
	}

	return nil
}

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
