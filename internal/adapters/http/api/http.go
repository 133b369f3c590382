// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/okian/eraquiz/internal/adapters/candidates"
	"github.com/okian/eraquiz/internal/adapters/repository"
	service "github.com/okian/eraquiz/internal/app"
	"github.com/okian/eraquiz/internal/domain/selection"
	"github.com/okian/eraquiz/internal/domain/session"
	"github.com/okian/eraquiz/internal/domain/types"
	"github.com/okian/eraquiz/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StartSession(ctx context.Context) (types.SessionView, error)
	Session(ctx context.Context, id string) (types.SessionView, error)
	SubmitAnswer(ctx context.Context, id string, recognized bool) (types.SessionView, error)
	ChangeAnswer(ctx context.Context, id string) (types.SessionView, error)
	Advance(ctx context.Context, id string) (types.SessionView, error)
	GoBack(ctx context.Context, id string) (types.SessionView, error)
	Results(ctx context.Context, id string) (types.ResultsPayload, error)
}

// Server wires HTTP routes for the quiz API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler

	rateLimitPerMinute int
	logger             logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimit caps session requests per client IP per minute. Zero
// disables the limit.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) {
		if perMinute >= 0 {
			s.rateLimitPerMinute = perMinute
		}
	}
}

// WithServerLogger sets the logger used for unexpected handler errors.
func WithServerLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessionsHandler = NewSessionsHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	h := s.sessionsHandler
	r.Route("/sessions", func(r chi.Router) {
		if s.rateLimitPerMinute > 0 {
			r.Use(httprate.Limit(s.rateLimitPerMinute, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate_limited", errors.New("too many requests"))
				}),
			))
		}
		r.Post("/", MetricsMiddleware(h.HandleCreate, "sessions"))
		r.Get("/{id}", MetricsMiddleware(h.HandleGet, "session"))
		r.Post("/{id}/answer", MetricsMiddleware(h.HandleAnswer, "answer"))
		r.Post("/{id}/change", MetricsMiddleware(h.HandleChange, "change"))
		r.Post("/{id}/advance", MetricsMiddleware(h.HandleAdvance, "advance"))
		r.Post("/{id}/back", MetricsMiddleware(h.HandleBack, "back"))
		r.Get("/{id}/results", MetricsMiddleware(h.HandleResults, "results"))
	})
}

// Routes returns a fresh router with every route registered.
func (s *Server) Routes(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps domain error kinds to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, selection.ErrInsufficientData):
		return http.StatusServiceUnavailable, "insufficient_data"
	case errors.Is(err, candidates.ErrSourceUnavailable):
		return http.StatusBadGateway, "candidate_source"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
