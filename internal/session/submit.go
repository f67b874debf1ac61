package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/scoring"
)

// State is the submission state of a session.
//
//	InProgress -> Validating -> Rejected -> InProgress
//	Validating -> Submitting -> Submitted
//	Submitting -> SubmitFailed -> InProgress
type State int

const (
	StateInProgress State = iota
	StateValidating
	StateRejected
	StateSubmitting
	StateSubmitted
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateSubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
	if s.opts.onState != nil {
		s.opts.onState(to)
	}
}

// Validate returns the ids of every unanswered question, in display order.
func (s *Session) Validate() []string {
	return quiz.Unanswered(s.test, s.Answers())
}

// Submit validates the answers, scores them and hands the attempt to the
// result sink.
//
// An incomplete attempt returns *quiz.ValidationError without contacting the
// sink. A sink failure returns *quiz.SubmissionError; answers and review flags
// are kept so the caller may retry. Closing the session cancels an in-flight
// submission.
func (s *Session) Submit(ctx context.Context, userID string) (scoring.Outcome, error) {
	if userID == "" {
		return scoring.Outcome{}, errors.New("submit: user id required")
	}

	s.mu.Lock()
	switch {
	case s.closed || s.state == StateSubmitted:
		s.mu.Unlock()
		return scoring.Outcome{}, quiz.ErrSessionClosed
	case s.state != StateInProgress:
		s.mu.Unlock()
		return scoring.Outcome{}, quiz.ErrSubmitInFlight
	}
	s.state = StateValidating
	answers := s.answers.Clone()
	s.mu.Unlock()
	if s.opts.onState != nil {
		s.opts.onState(StateValidating)
	}

	if missing := quiz.Unanswered(s.test, answers); len(missing) > 0 {
		s.transition(StateRejected)
		s.log.Printf("session: test %s: submit rejected, %d unanswered", s.test.ID, len(missing))
		s.transition(StateInProgress)
		return scoring.Outcome{}, &quiz.ValidationError{Unanswered: missing}
	}

	out := scoring.Evaluate(s.test, answers)
	payload := quiz.NewAttemptPayload(userID, s.test, answers, out.Result)
	if err := payload.Validate(); err != nil {
		s.transition(StateSubmitting)
		s.transition(StateSubmitFailed)
		s.transition(StateInProgress)
		return scoring.Outcome{}, &quiz.SubmissionError{Err: err}
	}

	s.transition(StateSubmitting)
	sctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	err := s.sink.SubmitResult(sctx, payload)
	stop()
	cancel()
	if err != nil {
		s.log.Printf("session: test %s: submit result: %v", s.test.ID, err)
		s.transition(StateSubmitFailed)
		s.transition(StateInProgress)
		return scoring.Outcome{}, &quiz.SubmissionError{Err: err}
	}

	s.transition(StateSubmitted)
	s.scheduleDone(out)
	return out, nil
}

// SubmitAs resolves the user through id and submits on their behalf.
func (s *Session) SubmitAs(ctx context.Context, id Identity) (scoring.Outcome, error) {
	userID, err := id.UserID(ctx)
	if err != nil {
		return scoring.Outcome{}, errors.Wrap(err, "resolve user")
	}
	return s.Submit(ctx, userID)
}

func (s *Session) scheduleDone(out scoring.Outcome) {
	if s.opts.onDone == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	timer := s.opts.clock.NewTimer(s.opts.navigateDelay)
	s.spawn(func() error {
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-timer.C():
			s.opts.onDone(out)
		}
		return nil
	})
}
