package animator

import (
	"context"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/latest"
	"codeberg.org/mutker/runcat/internal/logger"
)

// Emitter delivers frame-change commands to the presentation layer.
type Emitter interface {
	EmitFrame(ctx context.Context, index int) error
}

// Sleeper suspends the loop for d, returning early with ctx.Err() on cancellation.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures an Animator
type Option func(*Animator)

// WithFrameCount sets the number of frames in the cycle.
func WithFrameCount(n int) Option {
	return func(a *Animator) {
		a.frameCount = n
	}
}

// WithSleeper replaces the timer-based sleep.
func WithSleeper(s Sleeper) Option {
	return func(a *Animator) {
		a.sleep = s
	}
}

// WithInitialSample sets the CPU value used until the first sample arrives.
func WithInitialSample(cpuPercent float64) Option {
	return func(a *Animator) {
		a.cached = cpuPercent
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Animator) {
		a.log = log
	}
}

// Animator advances the visible frame at a pace derived from the latest CPU sample.
type Animator struct {
	samples    *latest.Slot[float64]
	emitter    Emitter
	frameCount int
	sleep      Sleeper
	log        logger.Logger

	cached float64
	frame  Frame
}

func New(samples *latest.Slot[float64], emitter Emitter, opts ...Option) (*Animator, error) {
	errFactory := errors.New()

	if samples == nil || emitter == nil {
		return nil, errFactory.New(ErrMissingDependency)
	}

	a := &Animator{
		samples:    samples,
		emitter:    emitter,
		frameCount: DefaultFrameCount,
		sleep:      sleepContext,
		cached:     IdleSample,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.frameCount < 1 {
		return nil, errFactory.WithData(ErrInvalidFrameCount, a.frameCount)
	}
	if a.log == nil {
		a.log = logger.WithComponent("animator")
	}

	return a, nil
}

// Run loops until ctx is cancelled or a frame cannot be delivered. Cancellation
// returns nil; a delivery failure is returned wrapped as ErrEmitFailed.
func (a *Animator) Run(ctx context.Context) error {
	errFactory := errors.New()

	a.log.Debug().
		Int("frames", a.frameCount).
		Float64("initial_cpu", a.cached).
		Msg("Animator started")

	for {
		delay := a.Tick()

		if err := a.sleep(ctx, delay); err != nil {
			a.log.Debug().Msg("Animator stopped")
			return nil
		}

		if err := a.emitter.EmitFrame(ctx, a.frame.Int()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errFactory.Wrap(ErrEmitFailed, err)
		}
	}
}

// Tick takes the freshest sample if one is available, advances the frame and
// returns the delay to wait before showing it.
func (a *Animator) Tick() time.Duration {
	if v, ok := a.samples.TryRead(); ok {
		a.cached = v
	}

	a.frame = a.frame.Next(a.frameCount)

	return Delay(a.cached)
}

// Frame returns the current frame.
func (a *Animator) Frame() Frame {
	return a.frame
}

// CPU returns the CPU value currently driving the pace.
func (a *Animator) CPU() float64 {
	return a.cached
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
