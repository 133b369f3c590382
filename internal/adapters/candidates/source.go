// Package candidates supplies raw person records to the quiz: a YAML
// catalog (embedded or on disk) and a TMDB popular-people client.
package candidates

import (
	"context"
	"errors"

	"github.com/okian/eraquiz/internal/domain/model"
)

// Source fetches the candidate people a figure pool is built from.
type Source interface {
	Candidates(ctx context.Context) ([]model.Candidate, error)
}

// Sentinel kinds for candidate source errors.
var (
	ErrSourceUnavailable = errors.New("candidate source unavailable")
	ErrBadCatalog        = errors.New("malformed candidate catalog")
)
