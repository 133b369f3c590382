// Package service provides the quiz application service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eraquiz/internal/adapters/candidates"
	"github.com/okian/eraquiz/internal/adapters/repository"
	"github.com/okian/eraquiz/internal/domain/clock"
	"github.com/okian/eraquiz/internal/domain/eradist"
	"github.com/okian/eraquiz/internal/domain/model"
	"github.com/okian/eraquiz/internal/domain/selection"
	"github.com/okian/eraquiz/internal/domain/session"
	"github.com/okian/eraquiz/internal/domain/types"
	"github.com/okian/eraquiz/pkg/logger"
	"github.com/okian/eraquiz/pkg/metrics"
)

// Service runs quiz sessions: it builds figure pools from a candidate source,
// drives the session state machine and persists every transition.
//
// Each transition is one read, one pure state-machine step and one write.
// Concurrent transitions on the same session race with last-write-wins.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	source   candidates.Source
	clock    clock.Clock
	permuter selection.Permuter

	// Configuration
	figuresPerSession int
	minFigures        int
	poolTTL           time.Duration

	// Candidate pool cache
	poolMu        sync.Mutex
	pool          []model.Figure
	poolYear      int
	poolFetchedAt time.Time

	// Counters
	sessionsStarted     atomic.Int64
	sessionsCompleted   atomic.Int64
	transitionsRejected atomic.Int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the session store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSource sets the candidate source figure pools are built from.
func WithSource(src candidates.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPermuter sets the ordering used when drawing figures.
func WithPermuter(p selection.Permuter) Option {
	return func(s *Service) {
		if p != nil {
			s.permuter = p
		}
	}
}

// WithFiguresPerSession sets how many figures each session shows.
func WithFiguresPerSession(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.figuresPerSession = n
		}
	}
}

// WithMinFigures sets the smallest usable pool a session may start from.
func WithMinFigures(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minFigures = n
		}
	}
}

// WithPoolTTL sets how long a fetched pool is reused. Zero refetches on
// every new session.
func WithPoolTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.poolTTL = ttl
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:             clock.System{},
		figuresPerSession: 40,
		minFigures:        selection.MinFigures,
		poolTTL:           time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start fills in default components and warms the candidate pool. A pool
// that cannot be fetched yet is only logged; StartSession retries it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting quiz service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory session store")
	}
	if s.source == nil {
		s.source = candidates.NewCatalogSource("")
		s.logger.Info(ctx, "using built-in candidate catalog")
	}
	if s.permuter == nil {
		s.permuter = selection.NewPermuter(0)
	}

	if _, err := s.figurePool(ctx, clock.Year(s.clock)); err != nil {
		s.logger.Warn(ctx, "candidate pool not available yet", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "quiz service started",
		logger.Int("figuresPerSession", s.figuresPerSession),
		logger.Int("minFigures", s.minFigures),
		logger.Duration("poolTTL", s.poolTTL),
	)
	return nil
}

// Stop closes the session store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping quiz service...")
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing session store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "quiz service stopped")
}

func (s *Service) sessionStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// figurePool returns the cached pool for year, refetching it when stale. A
// failed refetch falls back to the previous pool if there is one.
func (s *Service) figurePool(ctx context.Context, year int) ([]model.Figure, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()

	now := s.clock.Now()
	fresh := s.pool != nil && s.poolYear == year && now.Sub(s.poolFetchedAt) < s.poolTTL
	if fresh {
		return s.pool, nil
	}

	start := time.Now()
	cands, err := s.source.Candidates(ctx)
	metrics.RecordCandidateFetchLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordCandidateFetchError()
		if s.pool != nil {
			s.logger.Warn(ctx, "candidate refresh failed, reusing previous pool",
				logger.Error(err), logger.Int("poolSize", len(s.pool)))
			return s.pool, nil
		}
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	built := selection.BuildPool(ctx, cands, year)
	metrics.RecordCandidatesExcluded("unresolvable", built.Unresolvable)
	metrics.RecordCandidatesExcluded("duplicate", built.Duplicates)
	metrics.UpdateCandidatePoolSize(len(built.Figures))
	s.logger.Info(ctx, "candidate pool built",
		logger.Int("candidates", len(cands)),
		logger.Int("figures", len(built.Figures)),
		logger.Int("unresolvable", built.Unresolvable),
		logger.Int("duplicates", built.Duplicates),
		logger.Int("year", year),
	)

	s.pool = built.Figures
	s.poolYear = year
	s.poolFetchedAt = now
	return s.pool, nil
}

// StartSession draws a figure sequence and persists a new playing session.
// Nothing is written when the pool is too small.
func (s *Service) StartSession(ctx context.Context) (types.SessionView, error) {
	store, err := s.sessionStore()
	if err != nil {
		return types.SessionView{}, err
	}

	pool, err := s.figurePool(ctx, clock.Year(s.clock))
	if err != nil {
		return types.SessionView{}, err
	}
	figures, err := selection.Pick(pool, s.figuresPerSession, s.minFigures, s.permuter)
	if err != nil {
		return types.SessionView{}, fmt.Errorf("start session: %w", err)
	}

	now := s.clock.Now()
	sess, err := session.Apply(session.New(now), session.Command{
		Action:    session.ActionStart,
		At:        now,
		SessionID: uuid.NewString(),
		Figures:   figures,
	})
	if err != nil {
		return types.SessionView{}, err
	}
	if err := store.Put(ctx, sess); err != nil {
		return types.SessionView{}, fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	s.sessionsStarted.Add(1)
	metrics.RecordSessionStarted()
	s.logger.Debug(ctx, "session started",
		logger.String("sessionID", sess.ID),
		logger.Int("figures", len(figures)))
	return types.NewSessionView(sess), nil
}

// Session returns the view of a stored session. Resuming is a pure read:
// the view is derived from the stored status, index and answers.
func (s *Service) Session(ctx context.Context, id string) (types.SessionView, error) {
	store, err := s.sessionStore()
	if err != nil {
		return types.SessionView{}, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return types.SessionView{}, fmt.Errorf("session %s: %w", id, err)
	}
	return s.view(sess), nil
}

// SubmitAnswer records the verdict for the current figure.
func (s *Service) SubmitAnswer(ctx context.Context, id string, recognized bool) (types.SessionView, error) {
	return s.apply(ctx, id, session.Command{Action: session.ActionSubmit, Recognized: recognized})
}

// ChangeAnswer reopens the current figure for a new verdict.
func (s *Service) ChangeAnswer(ctx context.Context, id string) (types.SessionView, error) {
	return s.apply(ctx, id, session.Command{Action: session.ActionChange})
}

// Advance moves to the next figure, finishing the session after the last one.
func (s *Service) Advance(ctx context.Context, id string) (types.SessionView, error) {
	return s.apply(ctx, id, session.Command{Action: session.ActionAdvance})
}

// GoBack moves to the previous figure.
func (s *Service) GoBack(ctx context.Context, id string) (types.SessionView, error) {
	return s.apply(ctx, id, session.Command{Action: session.ActionGoBack})
}

func (s *Service) apply(ctx context.Context, id string, cmd session.Command) (types.SessionView, error) {
	store, err := s.sessionStore()
	if err != nil {
		return types.SessionView{}, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return types.SessionView{}, fmt.Errorf("session %s: %w", id, err)
	}

	cmd.At = s.clock.Now()
	next, err := session.Apply(sess, cmd)
	if err != nil {
		s.transitionsRejected.Add(1)
		metrics.RecordTransitionRejected(string(cmd.Action))
		s.logger.Debug(ctx, "transition rejected",
			logger.String("sessionID", id),
			logger.String("status", string(sess.Status)),
			logger.String("action", string(cmd.Action)))
		return types.SessionView{}, fmt.Errorf("session %s: %w", id, err)
	}

	if err := store.Put(ctx, next); err != nil {
		return types.SessionView{}, fmt.Errorf("save session %s: %w", id, err)
	}

	if cmd.Action == session.ActionSubmit {
		metrics.RecordAnswer(cmd.Recognized)
	}
	view := s.view(next)
	if !session.Finished(sess) && session.Finished(next) {
		s.sessionsCompleted.Add(1)
		metrics.RecordSessionCompleted(view.Results.Metrics.OverallRate)
		s.logger.Info(ctx, "session completed",
			logger.String("sessionID", id),
			logger.Int("answers", len(next.Answers)),
			logger.String("peakDecade", view.Results.Metrics.PeakDecade))
	}
	return view, nil
}

// Results recomputes the results payload of a finished session. Sessions
// that have not reached results fail with session.ErrInvalidState.
func (s *Service) Results(ctx context.Context, id string) (types.ResultsPayload, error) {
	store, err := s.sessionStore()
	if err != nil {
		return types.ResultsPayload{}, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return types.ResultsPayload{}, fmt.Errorf("session %s: %w", id, err)
	}
	if !session.Finished(sess) {
		return types.ResultsPayload{}, fmt.Errorf("results of session %s in %s: %w", id, sess.Status, session.ErrInvalidState)
	}
	return s.results(sess), nil
}

func (s *Service) view(sess model.Session) types.SessionView {
	v := types.NewSessionView(sess)
	if session.Finished(sess) {
		r := s.results(sess)
		v.Results = &r
	}
	return v
}

// results computes against the completion year so a payload is identical
// every time it is recomputed.
func (s *Service) results(sess model.Session) types.ResultsPayload {
	year := clock.Year(s.clock)
	if sess.CompletedAt != nil {
		year = sess.CompletedAt.Year()
	}
	start := time.Now()
	r := eradist.Compute(sess.Figures, sess.Answers, year)
	metrics.RecordResultsLatency(float64(time.Since(start).Microseconds()) / 1000)
	return types.NewResultsPayload(sess, r)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	started := s.started
	store := s.store
	s.mu.RUnlock()

	s.poolMu.Lock()
	poolSize := len(s.pool)
	poolFetchedAt := s.poolFetchedAt
	s.poolMu.Unlock()

	stats := map[string]any{
		"started":             started,
		"figuresPerSession":   s.figuresPerSession,
		"minFigures":          s.minFigures,
		"poolSize":            poolSize,
		"sessionsStarted":     s.sessionsStarted.Load(),
		"sessionsCompleted":   s.sessionsCompleted.Load(),
		"transitionsRejected": s.transitionsRejected.Load(),
	}
	if !poolFetchedAt.IsZero() {
		stats["poolFetchedAt"] = poolFetchedAt
	}

	if started {
		count := store.Count(context.Background())
		stats["sessionsStored"] = count
		metrics.UpdateStoreRecords(count)
	}
	return stats
}
