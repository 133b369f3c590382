package playtest

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/okian/eraquiz/internal/domain/eradist"
	"github.com/okian/eraquiz/internal/domain/types"
)

// Verify checks r against the result invariants. When answers is non-nil it
// must hold the final recognized value for every figure of the session and
// the payload is also checked against it.
func Verify(r types.ResultsPayload, answers map[string]bool) error {
	var errs []error

	for _, p := range r.Raw {
		if !inUnit(p.Rate) {
			errs = append(errs, fmt.Errorf("raw rate %v for %d outside [0,1]", p.Rate, p.Year))
		}
		if p.SampleSize <= 0 {
			errs = append(errs, fmt.Errorf("raw point %d has sample size %d", p.Year, p.SampleSize))
		}
	}

	for i, p := range r.Distribution {
		if !inUnit(p.Rate) {
			errs = append(errs, fmt.Errorf("smoothed rate %v for %d outside [0,1]", p.Rate, p.Year))
		}
		if i > 0 && p.Year <= r.Distribution[i-1].Year {
			errs = append(errs, fmt.Errorf("distribution years not ascending at %d", p.Year))
		}
	}

	m := r.Metrics
	if m.OverallRate < 0 || m.OverallRate > 100 {
		errs = append(errs, fmt.Errorf("overallRate %d outside [0,100]", m.OverallRate))
	}
	if m.Breadth < 0 || m.Breadth > span(r.Distribution) {
		errs = append(errs, fmt.Errorf("breadth %d outside [0,%d]", m.Breadth, span(r.Distribution)))
	}
	if m.NostalgiaIndex < 0 || math.IsNaN(m.NostalgiaIndex) || math.IsInf(m.NostalgiaIndex, 0) {
		errs = append(errs, fmt.Errorf("nostalgiaIndex %v is not a finite non-negative number", m.NostalgiaIndex))
	}
	if len(r.Distribution) == 0 && m.PeakDecade != eradist.NoPeakDecade {
		errs = append(errs, fmt.Errorf("peakDecade %q without a distribution", m.PeakDecade))
	}

	if answers != nil {
		errs = append(errs, checkAnswers(r, answers)...)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvariant, errors.Join(errs...))
}

func checkAnswers(r types.ResultsPayload, answers map[string]bool) []error {
	var errs []error
	if len(r.Answers) != len(r.Figures) {
		errs = append(errs, fmt.Errorf("%d answers for %d figures", len(r.Answers), len(r.Figures)))
	}

	var recognized int
	for _, f := range r.Figures {
		want, ok := answers[f.ID]
		if !ok {
			errs = append(errs, fmt.Errorf("figure %s was never answered", f.ID))
			continue
		}
		if got := r.Answers[f.ID]; got.Recognized != want {
			errs = append(errs, fmt.Errorf("figure %s recorded %t, answered %t", f.ID, got.Recognized, want))
		}
		if want {
			recognized++
		}
	}

	if len(r.Figures) > 0 {
		want := int(math.Round(float64(recognized) / float64(len(r.Figures)) * 100))
		if r.Metrics.OverallRate != want {
			errs = append(errs, fmt.Errorf("overallRate %d, answers give %d", r.Metrics.OverallRate, want))
		}
	}
	return errs
}

// SameResults reports whether two payloads carry the same curve and metrics.
func SameResults(a, b types.ResultsPayload) bool {
	return reflect.DeepEqual(a.Distribution, b.Distribution) &&
		reflect.DeepEqual(a.Raw, b.Raw) &&
		a.Metrics == b.Metrics
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func span(points []eradist.SmoothedPoint) int {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Year - points[0].Year
}
