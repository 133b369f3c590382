package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/eraquiz/internal/adapters/candidates"
	"github.com/okian/eraquiz/internal/adapters/http/api"
	"github.com/okian/eraquiz/internal/adapters/http/swagger"
	"github.com/okian/eraquiz/internal/adapters/repository"
	app "github.com/okian/eraquiz/internal/app"
	"github.com/okian/eraquiz/internal/config"
	"github.com/okian/eraquiz/internal/domain/selection"
	"github.com/okian/eraquiz/pkg/logger"
	"github.com/okian/eraquiz/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "eraquiz exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, err := repository.Open(ctx, cfg.StoreBackend, cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	log.Info(ctx, "session store ready", logger.String("backend", cfg.StoreBackend))

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithSource(buildSource(cfg, log)),
		app.WithPermuter(selection.NewPermuter(cfg.ShuffleSeed)),
		app.WithFiguresPerSession(cfg.FiguresPerSession),
		app.WithMinFigures(cfg.MinFigures),
		app.WithPoolTTL(cfg.PoolTTL()),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildSource picks the configured candidate source.
func buildSource(cfg *config.Config, log logger.Logger) candidates.Source {
	if cfg.CandidateSource == config.SourceTMDB {
		return candidates.NewTMDBSource(cfg.TMDBBaseURL, cfg.TMDBToken,
			candidates.WithPages(cfg.TMDBPages),
			candidates.WithRequestsPerSecond(cfg.TMDBRequestsPerSecond),
			candidates.WithSourceLogger(log.Named("tmdb")),
		)
	}
	return candidates.NewCatalogSource(cfg.CatalogPath)
}

// buildHandler registers the API and the docs routes.
func buildHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	api.NewServer(svc, svc,
		api.WithRateLimit(cfg.RateLimitPerMinute),
		api.WithServerLogger(log.Named("api")),
	).Register(ctx, r)
	swagger.Register(ctx, r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the store gauges from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics pushes pool and store sizes from the service stats.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if poolSize, ok := stats["poolSize"].(int); ok {
		metrics.UpdateCandidatePoolSize(poolSize)
	}
	if stored, ok := stats["sessionsStored"].(int); ok {
		metrics.UpdateStoreRecords(stored)
	}
}
