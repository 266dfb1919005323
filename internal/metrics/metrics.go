package metrics

import (
	"context"

	"codeberg.org/mutker/runcat/internal/animator"
	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/logger"
	"codeberg.org/mutker/runcat/internal/sampler"
)

type service struct {
	repo MetricsRepository
	cfg  Config
}

// No-op implementation
type noopMetricsCollector struct{}

func NewService(cfg Config, log logger.Logger) (MetricsCollector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		log.Debug().Msg("Metrics collection disabled, using no-op collector")
		return &noopMetricsCollector{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create metrics repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *MetricsSnapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidMetrics)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(snapshot); err != nil {
			return errFactory.Wrap(ErrMetricsCollection, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

// No-op implementation
func (*noopMetricsCollector) Record(_ context.Context, _ *MetricsSnapshot) error {
	return nil
}

func (*noopMetricsCollector) Close() error {
	return nil
}

// Recorder returns a sampler observer that stores every sample in c.
// Failures are logged and the sample is dropped.
func Recorder(c MetricsCollector, log logger.Logger) sampler.Observer {
	return func(s sampler.Sample) {
		snapshot := &MetricsSnapshot{
			Timestamp:  s.At,
			CPUPercent: s.Percent,
			DelayMs:    animator.DelayMillis(s.Percent),
		}
		if err := c.Record(context.Background(), snapshot); err != nil {
			log.Warn().Err(err).Float64("cpu", s.Percent).Msg("Failed to record sample")
		}
	}
}
