// Package eradist turns a finished quiz into a per-year recognition curve and
// summary metrics.
//
// Everything here is a pure function of (figures, answers, currentYear).
// Figures are walked in session order so floating point sums come out
// bit-identical every time the same session is recomputed.
package eradist

import (
	"fmt"
	"math"

	"github.com/okian/eraquiz/internal/domain/model"
)

// Engine constants.
const (
	// FirstYear is the earliest year tallied.
	FirstYear = 1950
	// SmoothingRadius is the number of neighbours on each side of a point
	// in the moving average.
	SmoothingRadius = 2
	// NostalgiaPivot splits the curve for the nostalgia index.
	NostalgiaPivot = 2000
	// NoPeakDecade is reported when there is no distribution at all.
	NoPeakDecade = "N/A"

	minPeakRate     = 0.01
	breadthFraction = 0.5
)

// YearScore is the per-year tally of attributions.
type YearScore struct {
	Year            int
	RecognizedCount int
	TotalCount      int
}

// DistributionPoint is a raw per-year recognition rate.
type DistributionPoint struct {
	Year       int     `json:"year"`
	Rate       float64 `json:"rate"`
	SampleSize int     `json:"sampleSize"`
}

// SmoothedPoint is a per-year rate after smoothing.
type SmoothedPoint struct {
	Year int     `json:"year"`
	Rate float64 `json:"rate"`
}

// Metrics are the scalar summaries of a session.
type Metrics struct {
	PeakDecade      string  `json:"peakDecade"`
	CenterOfGravity int     `json:"centerOfGravity"`
	Breadth         int     `json:"breadth"`
	OverallRate     int     `json:"overallRate"`
	NostalgiaIndex  float64 `json:"nostalgiaIndex"`
}

// Results bundles both distribution series and the metrics.
type Results struct {
	Raw      []DistributionPoint `json:"raw"`
	Smoothed []SmoothedPoint     `json:"distribution"`
	Metrics  Metrics             `json:"metrics"`
}

// Compute runs the full pipeline. Answers for figures not in the session are
// ignored; figures without an answer contribute nothing.
func Compute(figures []model.Figure, answers map[string]model.Answer, currentYear int) Results {
	tally := Tally(figures, answers, currentYear)
	raw := Raw(tally)
	smoothed := Smooth(raw)
	return Results{
		Raw:      raw,
		Smoothed: smoothed,
		Metrics: Metrics{
			PeakDecade:      PeakDecade(smoothed),
			CenterOfGravity: CenterOfGravity(raw, currentYear),
			Breadth:         Breadth(smoothed),
			OverallRate:     OverallRate(figures, answers),
			NostalgiaIndex:  NostalgiaIndex(smoothed),
		},
	}
}

// Tally attributes every answer to each year of its figure's window that
// lies in [FirstYear, currentYear]. One entry per year is returned.
func Tally(figures []model.Figure, answers map[string]model.Answer, currentYear int) []YearScore {
	if currentYear < FirstYear {
		return nil
	}
	scores := make([]YearScore, currentYear-FirstYear+1)
	for i := range scores {
		scores[i].Year = FirstYear + i
	}
	for _, f := range figures {
		a, ok := answers[f.ID]
		if !ok {
			continue
		}
		from := max(f.RelevanceWindow.Start, FirstYear)
		to := min(f.RelevanceWindow.End, currentYear)
		for y := from; y <= to; y++ {
			s := &scores[y-FirstYear]
			s.TotalCount++
			if a.Recognized {
				s.RecognizedCount++
			}
		}
	}
	return scores
}

// Raw keeps the years that received at least one attribution.
func Raw(scores []YearScore) []DistributionPoint {
	out := make([]DistributionPoint, 0, len(scores))
	for _, s := range scores {
		if s.TotalCount == 0 {
			continue
		}
		out = append(out, DistributionPoint{
			Year:       s.Year,
			Rate:       float64(s.RecognizedCount) / float64(s.TotalCount),
			SampleSize: s.TotalCount,
		})
	}
	return out
}

// Smooth applies a sample-size weighted moving average over neighbouring
// points. Neighbours are positions in raw, not calendar years, and the window
// shrinks at both edges instead of padding.
func Smooth(raw []DistributionPoint) []SmoothedPoint {
	out := make([]SmoothedPoint, len(raw))
	for i, p := range raw {
		lo := max(0, i-SmoothingRadius)
		hi := min(len(raw)-1, i+SmoothingRadius)
		var num, den float64
		for j := lo; j <= hi; j++ {
			w := float64(raw[j].SampleSize)
			num += raw[j].Rate * w
			den += w
		}
		rate := 0.0
		if den > 0 {
			rate = num / den
		}
		out[i] = SmoothedPoint{Year: p.Year, Rate: rate}
	}
	return out
}

// PeakDecade returns the decade label ("1980s") with the highest mean
// smoothed rate. Decades are compared in ascending order and a later decade
// must be strictly better, so ties go to the earliest decade.
func PeakDecade(smoothed []SmoothedPoint) string {
	type bucket struct {
		decade int
		sum    float64
		n      int
	}
	var buckets []bucket
	for _, p := range smoothed {
		d := decadeOf(p.Year)
		if len(buckets) == 0 || buckets[len(buckets)-1].decade != d {
			buckets = append(buckets, bucket{decade: d})
		}
		b := &buckets[len(buckets)-1]
		b.sum += p.Rate
		b.n++
	}
	if len(buckets) == 0 {
		return NoPeakDecade
	}

	best, bestMean := buckets[0].decade, buckets[0].sum/float64(buckets[0].n)
	for _, b := range buckets[1:] {
		if m := b.sum / float64(b.n); m > bestMean {
			best, bestMean = b.decade, m
		}
	}
	return fmt.Sprintf("%ds", best)
}

// CenterOfGravity is the mean year weighted by rate*sampleSize of the raw
// distribution, rounded. It falls back to currentYear when nothing was
// recognized.
func CenterOfGravity(raw []DistributionPoint, currentYear int) int {
	var num, den float64
	for _, p := range raw {
		w := p.Rate * float64(p.SampleSize)
		num += float64(p.Year) * w
		den += w
	}
	if den == 0 {
		return currentYear
	}
	return int(math.Round(num / den))
}

// OverallRate is the recognized share of answered figures as a rounded
// percentage, 0 when nothing was answered.
func OverallRate(figures []model.Figure, answers map[string]model.Answer) int {
	var recognized, total int
	for _, f := range figures {
		a, ok := answers[f.ID]
		if !ok {
			continue
		}
		total++
		if a.Recognized {
			recognized++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(recognized) / float64(total) * 100))
}

// Breadth is the span between the first and last year whose smoothed rate
// reaches half of the peak rate. The peak is floored at 0.01.
func Breadth(smoothed []SmoothedPoint) int {
	peak := minPeakRate
	for _, p := range smoothed {
		peak = max(peak, p.Rate)
	}
	threshold := breadthFraction * peak

	first, last, found := 0, 0, false
	for _, p := range smoothed {
		if p.Rate < threshold {
			continue
		}
		if !found {
			first, last, found = p.Year, p.Year, true
			continue
		}
		first = min(first, p.Year)
		last = max(last, p.Year)
	}
	if !found {
		return 0
	}
	return last - first
}

// NostalgiaIndex is the mean smoothed rate before NostalgiaPivot divided by
// the mean from NostalgiaPivot on, rounded to one decimal. It is 1 when the
// later mean is zero.
func NostalgiaIndex(smoothed []SmoothedPoint) float64 {
	var preSum, postSum float64
	var preN, postN int
	for _, p := range smoothed {
		if p.Year < NostalgiaPivot {
			preSum += p.Rate
			preN++
		} else {
			postSum += p.Rate
			postN++
		}
	}
	pre, post := mean(preSum, preN), mean(postSum, postN)
	if post == 0 {
		return 1
	}
	return math.Round(pre/post*10) / 10
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func decadeOf(year int) int {
	return year / 10 * 10
}
