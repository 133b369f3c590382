// Package selection builds the usable figure pool from raw candidates and
// picks the ordered figure sequence of a new session.
package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/eraquiz/internal/domain/dedupe"
	"github.com/okian/eraquiz/internal/domain/model"
	"github.com/okian/eraquiz/internal/domain/relevance"
)

// MinFigures is the smallest pool a session can be built from.
const MinFigures = 5

// Permuter returns a permutation of [0, n). *rand.Rand satisfies it.
type Permuter interface {
	Perm(n int) []int
}

// Pool is the outcome of filtering a candidate batch.
type Pool struct {
	Figures []model.Figure
	// Unresolvable counts candidates without an id or usable work years.
	Unresolvable int
	// Duplicates counts candidates whose id appeared earlier in the batch.
	Duplicates int
}

// BuildPool estimates a relevance window for every candidate and keeps the
// resolvable ones, in input order. A candidate id is admitted once.
func BuildPool(ctx context.Context, candidates []model.Candidate, currentYear int) Pool {
	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(candidates)))
	pool := Pool{Figures: make([]model.Figure, 0, len(candidates))}
	for _, c := range candidates {
		if c.ID == "" {
			pool.Unresolvable++
			continue
		}
		if seen.SeenAndRecord(ctx, c.ID) {
			pool.Duplicates++
			continue
		}
		f, err := relevance.FromCandidate(c, currentYear)
		if errors.Is(err, relevance.ErrUnresolvable) {
			pool.Unresolvable++
			continue
		}
		pool.Figures = append(pool.Figures, f)
	}
	return pool
}

// Pick returns up to n figures from pool in the order given by p. It fails
// with ErrInsufficientData when the pool holds fewer than minFigures. A
// non-positive n takes the whole pool.
func Pick(pool []model.Figure, n, minFigures int, p Permuter) ([]model.Figure, error) {
	if len(pool) < minFigures {
		return nil, fmt.Errorf("%d of %d required: %w", len(pool), minFigures, ErrInsufficientData)
	}
	if n <= 0 || n > len(pool) {
		n = len(pool)
	}
	order := p.Perm(len(pool))
	out := make([]model.Figure, n)
	for i := 0; i < n; i++ {
		out[i] = pool[order[i]]
	}
	return out, nil
}

// lockedRand serialises access to a *rand.Rand.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Perm(n)
}

// NewPermuter returns a goroutine-safe Permuter. A zero seed draws one from
// the clock, so orderings are only reproducible with an explicit seed.
func NewPermuter(seed int64) Permuter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // quiz order is not security sensitive
}
