// Package relevance estimates the years during which a public figure was
// culturally active from the release years of their known works.
package relevance

import (
	"fmt"

	"github.com/okian/eraquiz/internal/domain/model"
)

// Estimation bounds.
const (
	// EarliestHint is the oldest work year still considered plausible.
	EarliestHint = 1920
	// EarliestYear is the lower clamp of every window.
	EarliestYear = 1950
	// Padding widens the observed work span on both sides.
	Padding = 3
	// MinSpan is the narrowest window kept before recentering.
	MinSpan = 5
	// recenterHalf is half the width of a recentered window.
	recenterHalf = 3
	// maxTopWorks caps Figure.TopWorks.
	maxTopWorks = 3
)

// Estimate converts year hints into a relevance window for currentYear.
//
// Nil hints and hints outside [EarliestHint, currentYear] are discarded. The
// window is the observed span padded by Padding and clamped to
// [EarliestYear, currentYear]. Windows narrower than MinSpan are recentered on
// their midpoint as [mid-3, mid+3]; the recentered bounds are not clamped
// again and may extend past currentYear or below EarliestYear.
func Estimate(hints []*int, currentYear int) (model.Window, error) {
	minYear, maxYear, found := 0, 0, false
	for _, h := range hints {
		if h == nil || *h < EarliestHint || *h > currentYear {
			continue
		}
		y := *h
		if !found {
			minYear, maxYear, found = y, y, true
			continue
		}
		minYear = min(minYear, y)
		maxYear = max(maxYear, y)
	}
	if !found {
		return model.Window{}, ErrUnresolvable
	}

	start := max(EarliestYear, minYear-Padding)
	end := min(currentYear, maxYear+Padding)
	if end-start < MinSpan {
		mid := floorDiv(start+end, 2)
		start, end = mid-recenterHalf, mid+recenterHalf
	}
	return model.Window{Start: start, End: end}, nil
}

// FromCandidate builds a Figure for c, or returns an error wrapping
// ErrUnresolvable when c has no usable work years.
func FromCandidate(c model.Candidate, currentYear int) (model.Figure, error) {
	w, err := Estimate(c.YearHints(), currentYear)
	if err != nil {
		return model.Figure{}, fmt.Errorf("candidate %s: %w", c.ID, err)
	}

	works := make([]string, 0, maxTopWorks)
	for _, work := range c.Works {
		if len(works) == maxTopWorks {
			break
		}
		if work.Title != "" {
			works = append(works, work.Title)
		}
	}

	return model.Figure{
		ID:              c.ID,
		DisplayName:     c.Name,
		ImageRef:        c.ImageRef,
		RelevanceWindow: w,
		Category:        c.Category,
		PopularityScore: c.Popularity,
		TopWorks:        works,
	}, nil
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
