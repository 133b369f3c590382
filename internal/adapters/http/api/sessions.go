package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/okian/eraquiz/internal/adapters/repository"
	"github.com/okian/eraquiz/internal/domain/types"
	"github.com/okian/eraquiz/pkg/logger"
)

// maxBodyBytes bounds request bodies; the only body is a single boolean.
const maxBodyBytes = 1 << 10

// SessionsHandler serves the session lifecycle routes.
type SessionsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies, l logger.Logger) *SessionsHandler {
	return &SessionsHandler{deps: deps, logger: l}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.StartSession(r.Context())
	if err != nil {
		h.fail(w, r, Wrap("start session", err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "get session", h.deps.Session)
}

// HandleAnswer handles POST /sessions/{id}/answer.
func (h *SessionsHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	const op = "submit answer"

	var req answerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("body must be {\"recognized\": bool}")))
		return
	}
	if err := validatorInstance().Struct(req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("recognized is required")))
		return
	}

	h.withID(w, r, op, func(ctx context.Context, id string) (types.SessionView, error) {
		return h.deps.SubmitAnswer(ctx, id, *req.Recognized)
	})
}

// HandleChange handles POST /sessions/{id}/change.
func (h *SessionsHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "change answer", h.deps.ChangeAnswer)
}

// HandleAdvance handles POST /sessions/{id}/advance.
func (h *SessionsHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "advance", h.deps.Advance)
}

// HandleBack handles POST /sessions/{id}/back.
func (h *SessionsHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "go back", h.deps.GoBack)
}

// HandleResults handles GET /sessions/{id}/results.
func (h *SessionsHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r, "get results")
	if !ok {
		return
	}
	res, err := h.deps.Results(r.Context(), id)
	if err != nil {
		h.fail(w, r, Wrap("get results", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionsHandler) withID(w http.ResponseWriter, r *http.Request, op string,
	call func(ctx context.Context, id string) (types.SessionView, error),
) {
	id, ok := h.sessionID(w, r, op)
	if !ok {
		return
	}
	view, err := call(r.Context(), id)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *SessionsHandler) sessionID(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.fail(w, r, NewKind(op, ErrBadRequest))
		return "", false
	}
	return id, true
}

// fail writes err as a JSON error. Not-found responses carry a fixed message
// so store details never leak to clients.
func (h *SessionsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = repository.ErrNotFound
	case status >= http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}
