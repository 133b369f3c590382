package playtest

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/okian/eraquiz/internal/domain/model"
	"github.com/okian/eraquiz/internal/domain/types"
)

type player struct {
	client *Client
	rng    *rand.Rand
	change float64
	back   float64
}

// play runs one session from start to results and verifies what comes back.
func (p *player) play(ctx context.Context) (string, error) {
	v, err := p.client.StartSession(ctx)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	answers := make(map[string]bool, v.Total)
	budget := stepsPerFigure * (v.Total + 1)
	for step := 0; v.Status != model.StatusResults; step++ {
		if step >= budget {
			return v.ID, fmt.Errorf("%w: %d moves at index %d", ErrStuck, step, v.CurrentIndex)
		}
		v, err = p.step(ctx, v, answers)
		if err != nil {
			return v.ID, err
		}
	}

	return v.ID, p.check(ctx, v, answers)
}

func (p *player) step(ctx context.Context, v types.SessionView, answers map[string]bool) (types.SessionView, error) {
	switch v.Status {
	case model.StatusPlaying:
		if v.CurrentFigure == nil {
			return v, fmt.Errorf("session %s playing without a current figure", v.ID)
		}
		recognized := p.rng.IntN(2) == 0
		next, err := p.client.Answer(ctx, v.ID, recognized)
		if err != nil {
			return v, fmt.Errorf("answer: %w", err)
		}
		answers[v.CurrentFigure.ID] = recognized
		return next, nil

	case model.StatusReveal:
		roll := p.rng.Float64()
		var next types.SessionView
		var err error
		switch {
		case roll < p.change:
			next, err = p.client.Change(ctx, v.ID)
		case roll < p.change+p.back && v.CurrentIndex > 0:
			next, err = p.client.Back(ctx, v.ID)
		default:
			next, err = p.client.Advance(ctx, v.ID)
		}
		if err != nil {
			return v, fmt.Errorf("move: %w", err)
		}
		return next, nil

	default:
		return v, fmt.Errorf("session %s in unexpected status %q", v.ID, v.Status)
	}
}

func (p *player) check(ctx context.Context, final types.SessionView, answers map[string]bool) error {
	if final.Results == nil {
		return fmt.Errorf("%w: finishing move returned no results", ErrInvariant)
	}

	first, err := p.client.Results(ctx, final.ID)
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	if err := Verify(first, answers); err != nil {
		return err
	}

	second, err := p.client.Results(ctx, final.ID)
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	if !SameResults(first, second) || !SameResults(first, *final.Results) {
		return fmt.Errorf("%w: results differ between reads", ErrInvariant)
	}
	return nil
}
