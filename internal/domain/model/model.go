// Package model contains domain models passed between layers.
package model

import "time"

// Status is the lifecycle state of a quiz session.
type Status string

// Session statuses. intro is initial, results is terminal.
const (
	StatusIntro   Status = "intro"
	StatusPlaying Status = "playing"
	StatusReveal  Status = "reveal"
	StatusResults Status = "results"
)

// Window is an inclusive range of years during which a figure is considered
// culturally active.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether year falls inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.Start && year <= w.End
}

// Figure is a public figure shown to the user. Figures are immutable once
// constructed.
type Figure struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"displayName"`
	ImageRef        string   `json:"imageRef"`
	RelevanceWindow Window   `json:"relevanceWindow"`
	Category        string   `json:"category"`
	PopularityScore float64  `json:"popularityScore"`
	TopWorks        []string `json:"topWorks"`
}

// Answer is the user's latest verdict for one figure.
type Answer struct {
	FigureID   string    `json:"figureId"`
	Recognized bool      `json:"recognized"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session is the serializable record of one quiz run. It is handled by value:
// transitions return a new Session rather than mutating the caller's copy.
type Session struct {
	ID           string            `json:"id"`
	Status       Status            `json:"status"`
	Figures      []Figure          `json:"figures"`
	CurrentIndex int               `json:"currentIndex"`
	Answers      map[string]Answer `json:"answers"`
	CreatedAt    time.Time         `json:"createdAt"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
}

// CurrentFigure returns the figure at CurrentIndex, if any.
func (s Session) CurrentFigure() (Figure, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Figures) {
		return Figure{}, false
	}
	return s.Figures[s.CurrentIndex], true
}

// CurrentAnswer returns the recorded answer for the current figure, if any.
func (s Session) CurrentAnswer() (Answer, bool) {
	f, ok := s.CurrentFigure()
	if !ok {
		return Answer{}, false
	}
	a, ok := s.Answers[f.ID]
	return a, ok
}

// Clone returns a copy whose answers map and completion time can be changed
// without affecting s. Figures are shared since they never change.
func (s Session) Clone() Session {
	c := s
	c.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// Work is one known work of a candidate person. Year is nil when the
// metadata source has no usable date for it.
type Work struct {
	Title string `json:"title" yaml:"title"`
	Year  *int   `json:"year,omitempty" yaml:"year,omitempty"`
}

// Candidate is a raw person record as supplied by a candidate source, before
// relevance estimation.
type Candidate struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	ImageRef   string  `json:"imageRef" yaml:"image"`
	Category   string  `json:"category" yaml:"category"`
	Popularity float64 `json:"popularity" yaml:"popularity"`
	Works      []Work  `json:"works" yaml:"works"`
}

// YearHints returns the candidate's work years in work order, nil where absent.
func (c Candidate) YearHints() []*int {
	hints := make([]*int, len(c.Works))
	for i, w := range c.Works {
		hints[i] = w.Year
	}
	return hints
}
