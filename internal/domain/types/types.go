// Package types contains the payload shapes returned to API clients.
package types

import (
	"time"

	"github.com/okian/eraquiz/internal/domain/eradist"
	"github.com/okian/eraquiz/internal/domain/model"
)

// SessionView is what a client needs to render a session, derived purely
// from the stored record.
type SessionView struct {
	ID            string          `json:"id"`
	Status        model.Status    `json:"status"`
	CurrentIndex  int             `json:"currentIndex"`
	Total         int             `json:"total"`
	AnsweredCount int             `json:"answeredCount"`
	CurrentFigure *model.Figure   `json:"currentFigure,omitempty"`
	CurrentAnswer *model.Answer   `json:"currentAnswer,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	Results       *ResultsPayload `json:"results,omitempty"`
}

// ResultsPayload is the payload of a finished session.
type ResultsPayload struct {
	Distribution []eradist.SmoothedPoint     `json:"distribution"`
	Raw          []eradist.DistributionPoint `json:"raw"`
	Metrics      eradist.Metrics             `json:"metrics"`
	Figures      []model.Figure              `json:"figures"`
	Answers      map[string]model.Answer     `json:"answers"`
}

// NewSessionView builds the view of s.
func NewSessionView(s model.Session) SessionView {
	v := SessionView{
		ID:            s.ID,
		Status:        s.Status,
		CurrentIndex:  s.CurrentIndex,
		Total:         len(s.Figures),
		AnsweredCount: len(s.Answers),
		CreatedAt:     s.CreatedAt,
		CompletedAt:   s.CompletedAt,
	}
	if f, ok := s.CurrentFigure(); ok {
		v.CurrentFigure = &f
	}
	if a, ok := s.CurrentAnswer(); ok {
		v.CurrentAnswer = &a
	}
	return v
}

// NewResultsPayload combines a session with its computed results.
func NewResultsPayload(s model.Session, r eradist.Results) ResultsPayload {
	return ResultsPayload{
		Distribution: r.Smoothed,
		Raw:          r.Raw,
		Metrics:      r.Metrics,
		Figures:      s.Figures,
		Answers:      s.Answers,
	}
}
