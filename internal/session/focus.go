package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

type Status string

const (
	StatusBlank  Status = "blank"
	StatusDone   Status = "done"
	StatusReview Status = "review"
)

type QuestionStatus struct {
	Index      int    `json:"index"`
	QuestionID string `json:"questionId"`
	Status     Status `json:"status"`
	Focused    bool   `json:"focused,omitempty"`
}

// Anchor is the on-screen anchor of a question.
func Anchor(questionID string) string { return "question-" + questionID }

// FocusQuestion scrolls to the question at index and marks it focused. The
// mark clears itself after the focus highlight delay; a later focus replaces it.
func (s *Session) FocusQuestion(index int) error {
	if index < 0 || index >= len(s.test.Questions) {
		return errors.Errorf("question index %d out of range [0,%d)", index, len(s.test.Questions))
	}
	qid := s.test.Questions[index].ID

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return quiz.ErrSessionClosed
	}
	if s.focusCancel != nil {
		s.focusCancel()
	}
	fctx, cancel := context.WithCancel(s.ctx)
	s.focusCancel = cancel
	s.focusGen++
	gen := s.focusGen
	s.focused = qid
	timer := s.opts.clock.NewTimer(s.opts.focusHighlight)
	s.spawn(func() error {
		defer cancel()
		defer timer.Stop()
		select {
		case <-fctx.Done():
		case <-timer.C():
			s.clearFocus(gen)
		}
		return nil
	})
	s.mu.Unlock()

	s.opts.scroller.ScrollTo(Anchor(qid))
	return nil
}

func (s *Session) clearFocus(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focusGen != gen {
		return
	}
	s.focused = ""
	s.focusCancel = nil
}

// Focused returns the id of the highlighted question, or "".
func (s *Session) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

// Status is the summary-grid status of a question. Review takes precedence.
func (s *Session) Status(questionID string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(questionID)
}

func (s *Session) statusLocked(questionID string) Status {
	if _, ok := s.review[questionID]; ok {
		return StatusReview
	}
	if _, ok := s.answers[questionID]; ok {
		return StatusDone
	}
	return StatusBlank
}

// Statuses returns the summary grid in display order.
func (s *Session) Statuses() []QuestionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QuestionStatus, 0, len(s.test.Questions))
	for i, q := range s.test.Questions {
		out = append(out, QuestionStatus{
			Index:      i,
			QuestionID: q.ID,
			Status:     s.statusLocked(q.ID),
			Focused:    q.ID == s.focused,
		})
	}
	return out
}
