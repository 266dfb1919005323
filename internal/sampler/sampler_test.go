package sampler_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	apperrors "codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/latest"
	"codeberg.org/mutker/runcat/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch      chan time.Time
	stopped bool
	period  time.Duration
}

func (m *manualTicker) source(d time.Duration) (<-chan time.Time, func()) {
	m.period = d
	return m.ch, func() { m.stopped = true }
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestNewRaisesIntervalToMinimum(t *testing.T) {
	s, err := sampler.New(&sampler.FakeReader{}, latest.New[float64](), sampler.Config{Interval: 10 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, sampler.MinimumInterval, s.Interval())

	s, err = sampler.New(&sampler.FakeReader{}, latest.New[float64](), sampler.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, sampler.DefaultInterval, s.Interval())
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := sampler.New(nil, latest.New[float64](), sampler.DefaultConfig())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, sampler.ErrMissingDependency))
}

func TestSampleOncePublishesAndNotifies(t *testing.T) {
	slot := latest.New[float64]()
	var observed []sampler.Sample

	s, err := sampler.New(&sampler.FakeReader{Values: []float64{37.5}}, slot, sampler.DefaultConfig(),
		sampler.WithObserver(func(smp sampler.Sample) { observed = append(observed, smp) }),
		sampler.WithClock(fixedNow, nil),
	)
	require.NoError(t, err)

	require.NoError(t, s.SampleOnce(context.Background()))

	v, ok := slot.TryRead()
	require.True(t, ok)
	assert.Equal(t, 37.5, v)
	require.Len(t, observed, 1)
	assert.Equal(t, sampler.Sample{Percent: 37.5, At: fixedNow()}, observed[0])
}

func TestSampleOnceRejectsInvalidReadings(t *testing.T) {
	for _, bad := range []float64{math.NaN(), -1, math.Inf(1)} {
		slot := latest.New[float64]()
		s, err := sampler.New(&sampler.FakeReader{Values: []float64{bad}}, slot, sampler.DefaultConfig())
		require.NoError(t, err)

		err = s.SampleOnce(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, sampler.ErrInvalidReading))

		_, ok := slot.TryRead()
		assert.False(t, ok, "invalid reading %v must not be published", bad)
	}
}

func TestRunContinuesAfterReadFailure(t *testing.T) {
	slot := latest.New[float64]()
	reader := &sampler.FakeReader{
		Values: []float64{12, 0, 64},
		Errors: []error{nil, errors.New("proc/stat unavailable"), nil},
	}
	ticker := &manualTicker{ch: make(chan time.Time)}

	var observed []float64
	s, err := sampler.New(reader, slot, sampler.DefaultConfig(),
		sampler.WithClock(fixedNow, ticker.source),
		sampler.WithObserver(func(smp sampler.Sample) { observed = append(observed, smp.Percent) }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		ticker.ch <- fixedNow()
	}
	// An unbuffered send only proves the previous tick was received, so send
	// one more to be sure the third reading has been processed.
	ticker.ch <- fixedNow()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sampler did not stop")
	}

	assert.True(t, ticker.stopped)
	assert.Equal(t, sampler.DefaultInterval, ticker.period)
	assert.Equal(t, 4, reader.Calls())
	assert.Equal(t, []float64{12, 64, 64}, observed)

	v, ok := slot.TryRead()
	require.True(t, ok)
	assert.Equal(t, 64.0, v)
	assert.Equal(t, uint64(2), slot.Stats().Dropped)
}
