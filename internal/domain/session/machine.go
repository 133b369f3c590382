// Package session implements the quiz session state machine.
//
// Transitions are listed in a table keyed by (status, action). Each entry
// carries a guard and an effect; any pair missing from the table is rejected
// with ErrInvalidState. Apply never mutates its input.
package session

import (
	"fmt"
	"time"

	"github.com/okian/eraquiz/internal/domain/model"
)

// Action names a client request against a session.
type Action string

// Supported actions.
const (
	ActionStart   Action = "start"
	ActionSubmit  Action = "submitAnswer"
	ActionChange  Action = "changeAnswer"
	ActionAdvance Action = "advance"
	ActionGoBack  Action = "goBack"
)

// Actions lists every action in a stable order.
var Actions = []Action{ActionStart, ActionSubmit, ActionChange, ActionAdvance, ActionGoBack}

// Statuses lists every status in lifecycle order.
var Statuses = []model.Status{model.StatusIntro, model.StatusPlaying, model.StatusReveal, model.StatusResults}

// Command is one request to the state machine. Only the fields relevant to
// Action are read.
type Command struct {
	Action Action
	// At is the time the command was issued.
	At time.Time
	// Recognized is the verdict for ActionSubmit.
	Recognized bool
	// SessionID and Figures are assigned by ActionStart.
	SessionID string
	Figures   []model.Figure
}

type key struct {
	from   model.Status
	action Action
}

type rule struct {
	guard  func(s model.Session, c Command) error
	effect func(s *model.Session, c Command)
}

var table = map[key]rule{
	{model.StatusIntro, ActionStart}:    {guard: canStart, effect: start},
	{model.StatusPlaying, ActionSubmit}: {guard: inBounds, effect: submit},
	{model.StatusReveal, ActionChange}:  {guard: inBounds, effect: change},
	{model.StatusReveal, ActionAdvance}: {guard: inBounds, effect: advance},
	{model.StatusPlaying, ActionGoBack}: {guard: canGoBack, effect: goBack},
	{model.StatusReveal, ActionGoBack}:  {guard: canGoBack, effect: goBack},
}

// New returns a session in the intro state.
func New(createdAt time.Time) model.Session {
	return model.Session{
		Status:    model.StatusIntro,
		Answers:   map[string]model.Answer{},
		CreatedAt: createdAt,
	}
}

// Allowed reports whether action has an entry for status, ignoring guards.
func Allowed(status model.Status, action Action) bool {
	_, ok := table[key{status, action}]
	return ok
}

// Apply runs c against s and returns the resulting session. On error the
// returned session is s itself.
func Apply(s model.Session, c Command) (model.Session, error) {
	r, ok := table[key{s.Status, c.Action}]
	if !ok {
		return s, fmt.Errorf("%s from %s: %w", c.Action, s.Status, ErrInvalidState)
	}
	if err := r.guard(s, c); err != nil {
		return s, fmt.Errorf("%s from %s: %w", c.Action, s.Status, err)
	}
	next := s.Clone()
	r.effect(&next, c)
	return next, nil
}

// Finished reports whether s has reached the terminal status.
func Finished(s model.Session) bool {
	return s.Status == model.StatusResults
}

func canStart(_ model.Session, c Command) error {
	if c.SessionID == "" || len(c.Figures) == 0 {
		return ErrInvalidState
	}
	return nil
}

func inBounds(s model.Session, _ Command) error {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Figures) {
		return ErrInvalidState
	}
	return nil
}

func canGoBack(s model.Session, c Command) error {
	if err := inBounds(s, c); err != nil {
		return err
	}
	if s.CurrentIndex == 0 {
		return ErrInvalidState
	}
	return nil
}

func start(s *model.Session, c Command) {
	s.ID = c.SessionID
	s.Figures = append([]model.Figure(nil), c.Figures...)
	s.CurrentIndex = 0
	s.Answers = map[string]model.Answer{}
	s.CompletedAt = nil
	s.Status = model.StatusPlaying
}

func submit(s *model.Session, c Command) {
	f := s.Figures[s.CurrentIndex]
	s.Answers[f.ID] = model.Answer{FigureID: f.ID, Recognized: c.Recognized, Timestamp: c.At}
	s.Status = model.StatusReveal
}

func change(s *model.Session, _ Command) {
	s.Status = model.StatusPlaying
}

func advance(s *model.Session, c Command) {
	if s.CurrentIndex+1 >= len(s.Figures) {
		at := c.At
		s.CurrentIndex = len(s.Figures)
		s.CompletedAt = &at
		s.Status = model.StatusResults
		return
	}
	s.CurrentIndex++
	s.Status = displayStatus(*s)
}

func goBack(s *model.Session, _ Command) {
	s.CurrentIndex--
	s.Status = displayStatus(*s)
}

// displayStatus is reveal when the current figure already has an answer.
func displayStatus(s model.Session) model.Status {
	if _, ok := s.CurrentAnswer(); ok {
		return model.StatusReveal
	}
	return model.StatusPlaying
}
