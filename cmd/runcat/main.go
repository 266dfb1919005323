package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"codeberg.org/mutker/runcat/internal/animator"
	"codeberg.org/mutker/runcat/internal/config"
	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/latest"
	"codeberg.org/mutker/runcat/internal/logger"
	"codeberg.org/mutker/runcat/internal/metrics"
	"codeberg.org/mutker/runcat/internal/mqtt"
	"codeberg.org/mutker/runcat/internal/pid"
	"codeberg.org/mutker/runcat/internal/resource"
	"codeberg.org/mutker/runcat/internal/sampler"
	"codeberg.org/mutker/runcat/internal/tray"
	"github.com/spf13/pflag"
)

type app struct {
	cfg *config.Config

	metrics   metrics.MetricsCollector
	publisher mqtt.Publisher
	reporter  *mqtt.Reporter

	proxy     *tray.Proxy
	renderer  tray.Renderer
	presenter *tray.Presenter
	sampler   *sampler.Sampler
	animator  *animator.Animator
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel.String())
	logger.Init(level, logger.IsService())
	logger.Debug().
		Dur("interval", cfg.Interval).
		Str("character", cfg.Character).
		Str("theme", cfg.Theme.String()).
		Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		logger.Fatal().Err(err).Msg("Another instance may be running")
	}

	a, err := newApp(cfg)
	if err != nil {
		_ = pid.Remove(cfg.PIDFile)
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	if err := a.run(ctx, cancel); err != nil {
		logger.Error().Err(err).Msg("Error in event loop")
	}
	a.cleanup()
}

func newApp(cfg *config.Config) (*app, error) {
	errFactory := errors.New()
	a := &app{cfg: cfg}

	catalogPath := cfg.Resource
	if catalogPath == "" {
		var err error
		if catalogPath, err = resource.DefaultCatalogPath(); err != nil {
			return nil, errFactory.Wrap(errors.ErrInitApp, err)
		}
	}
	catalog, err := resource.LoadCatalog(catalogPath, animator.DefaultFrameCount)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}
	logger.Debug().
		Str("path", catalogPath).
		Strs("characters", catalog.Names()).
		Msg("Icon catalog loaded")

	observers, err := a.openObservers()
	if err != nil {
		return nil, err
	}

	samples := latest.New[float64]()

	a.proxy = tray.NewProxy()
	a.renderer = tray.NewLogRenderer(logger.WithComponent("renderer"), menuInput())
	a.presenter, err = tray.NewPresenter(a.proxy, a.renderer, catalog, detector(cfg), tray.Config{
		Character: cfg.Character,
		AutoTheme: cfg.AutoTheme,
		ThemePoll: cfg.ThemePoll,
	})
	if err != nil {
		a.closeObservers()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	samplerOpts := make([]sampler.Option, 0, len(observers))
	for _, observe := range observers {
		samplerOpts = append(samplerOpts, sampler.WithObserver(observe))
	}
	a.sampler, err = sampler.New(sampler.NewHostReader(), samples, sampler.Config{Interval: cfg.Interval}, samplerOpts...)
	if err != nil {
		a.closeObservers()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	a.animator, err = animator.New(samples, a.proxy)
	if err != nil {
		a.closeObservers()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	return a, nil
}

func (a *app) openObservers() ([]sampler.Observer, error) {
	errFactory := errors.New()
	var observers []sampler.Observer

	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = a.cfg.Metrics
	metricsCfg.BatchSize = a.cfg.MetricsBatchSize
	metricsCfg.BatchTimeout = a.cfg.MetricsBatchTimeout
	if a.cfg.MetricsDB != "" {
		metricsCfg.DBPath = a.cfg.MetricsDB
	}

	metricsLog := logger.WithComponent("metrics")
	collector, err := metrics.NewService(metricsCfg, metricsLog)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	a.metrics = collector
	if a.cfg.Metrics {
		observers = append(observers, metrics.Recorder(collector, metricsLog))
	}

	if a.cfg.MQTTBroker != "" {
		pub, err := mqtt.NewRealPublisher(a.cfg.MQTTBroker, a.cfg.MQTTTopic)
		if err != nil {
			// Status publishing is optional; the tray runs without it.
			logger.Warn().Err(err).Str("broker", a.cfg.MQTTBroker).Msg("MQTT unavailable, not publishing samples")
		} else {
			logger.Info().Str("broker", a.cfg.MQTTBroker).Str("topic", pub.Topic()).Msg("Publishing samples to MQTT")
			a.publisher = pub
			a.reporter = mqtt.NewReporter(pub, logger.WithComponent("mqtt"))
			observers = append(observers, a.reporter.Observe)
		}
	}

	return observers, nil
}

// menuInput is where the headless tray reads menu item IDs from. A service
// has no terminal to type into.
func menuInput() io.Reader {
	if logger.IsService() {
		return nil
	}
	return os.Stdin
}

func detector(cfg *config.Config) tray.ThemeDetector {
	switch cfg.Theme {
	case config.ThemeDark:
		return tray.StaticDetector{Theme: resource.Dark}
	case config.ThemeLight:
		return tray.StaticDetector{Theme: resource.Light}
	default:
		return tray.NewEnvDetector()
	}
}

// run starts the background workers and runs the presenter on the calling
// goroutine. Workers are joined before it returns.
func (a *app) run(ctx context.Context, cancel context.CancelFunc) error {
	errFactory := errors.New()
	var wg sync.WaitGroup

	a.renderer.OnAction(func(id string) {
		if err := a.proxy.Send(ctx, tray.MenuClicked{ID: id}); err != nil {
			logger.Debug().Err(err).Str("id", id).Msg("Menu action dropped")
		}
	})

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.sampler.Run(ctx); err != nil {
			logger.Error().Err(errFactory.Wrap(errors.ErrSamplerLoop, err)).Msg("Sampler stopped")
		}
	}()
	go func() {
		defer wg.Done()
		err := a.animator.Run(ctx)
		if err == nil || errors.HasCode(err, tray.ErrLoopClosed) {
			return
		}
		logger.Error().Err(errFactory.Wrap(errors.ErrAnimator, err)).Msg("Animator stopped, shutting down")
		cancel()
	}()

	if a.reporter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.reporter.Run(ctx)
		}()
	}

	err := a.presenter.Run(ctx)

	// The presenter returns on exit, on a signal or when the animator fails.
	cancel()
	wg.Wait()

	stats := a.proxy.FrameStats()
	logger.Debug().
		Uint64("frames", stats.Published).
		Uint64("coalesced", stats.Dropped).
		Msg("Workers stopped")

	if err != nil {
		return errFactory.Wrap(errors.ErrEventLoop, err)
	}
	return nil
}

func (a *app) closeObservers() {
	if a.metrics != nil {
		if err := a.metrics.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close metrics")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close MQTT publisher")
		}
	}
}

func (a *app) cleanup() {
	if err := a.renderer.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close tray")
	}
	a.closeObservers()
	if err := pid.Remove(a.cfg.PIDFile); err != nil {
		logger.Error().Err(err).Msg("Failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}
