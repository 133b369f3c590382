package playtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/eraquiz/pkg/logger"
)

// Run plays cfg.Sessions sessions and returns the run statistics. The error
// wraps ErrFailures when any session failed or returned invalid results.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = withDefaults(cfg)
	log := cfg.Logger

	stats := &Stats{StartTime: time.Now()}
	log.Info(ctx, "starting playtest",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Any("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(cfg.Workers)
	for i := range cfg.Sessions {
		g.Go(func() error {
			p := &player{
				client: client,
				rng:    rand.New(rand.NewPCG(cfg.Seed, uint64(i))),
				change: cfg.ChangeProbability,
				back:   cfg.BackProbability,
			}
			id, err := p.play(ctx)

			mu.Lock()
			defer mu.Unlock()
			stats.SessionsPlayed++
			switch {
			case err == nil:
				stats.SessionsCompleted++
			case errors.Is(err, ErrInvariant):
				stats.Violations++
				log.Error(ctx, "invalid results", logger.String("session", id), logger.Error(err))
			default:
				stats.SessionsFailed++
				log.Warn(ctx, "session failed", logger.String("session", id), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Requests = client.Requests()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.SessionsFailed > 0 || stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d failed, %d invalid", ErrFailures, stats.SessionsFailed, stats.Violations)
	}
	return stats, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Sessions <= 0 {
		cfg.Sessions = DefaultSessions
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Get()
	}
	return cfg
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("sessionsPlayed", stats.SessionsPlayed),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("violations", stats.Violations),
		logger.Any("requests", stats.Requests),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", perSecond))
}
