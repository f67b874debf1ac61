// Package session runs one user's pass through a questionnaire: it holds the
// answers and review flags, tracks elapsed time, and coordinates submission to
// a ResultSink.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

type Session struct {
	test quiz.Test
	sink ResultSink
	opts options
	log  *log.Logger

	// lifetime scope; every background task runs in g and stops on Close
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	mu          sync.Mutex
	closed      bool
	answers     quiz.Answers
	review      map[string]struct{}
	elapsed     int64 // seconds
	focused     string
	focusGen    uint64
	focusCancel context.CancelFunc
	state       State
}

// Open loads the test definition and starts the session's elapsed-time ticker.
// The session lives until ctx is done or Close is called.
func Open(ctx context.Context, provider TestProvider, sink ResultSink, testID string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t, err := loadTest(ctx, provider, testID)
	if err != nil {
		o.logger.Printf("session: load test %s: %v", testID, err)
		return nil, err
	}
	t.Normalize()

	sctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(sctx)
	s := &Session{
		test:    t,
		sink:    sink,
		opts:    o,
		log:     o.logger,
		ctx:     gctx,
		cancel:  cancel,
		g:       g,
		answers: quiz.Answers{},
		review:  map[string]struct{}{},
		state:   StateInProgress,
	}
	s.mu.Lock()
	s.spawn(s.runTicker)
	s.mu.Unlock()
	return s, nil
}

func loadTest(ctx context.Context, provider TestProvider, testID string) (quiz.Test, error) {
	t, err := provider.GetTest(ctx, testID)
	if err != nil {
		if quiz.IsNotFound(err) {
			return quiz.Test{}, err
		}
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: err}
	}
	if t.ID == "" || len(t.Questions) == 0 {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: errors.New("empty test definition")}
	}
	if err := t.Validate(); err != nil {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: err}
	}
	return t, nil
}

func (s *Session) runTicker() error {
	tk := s.opts.clock.NewTicker(time.Second)
	defer tk.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-tk.C():
			if s.ctx.Err() != nil {
				return nil
			}
			s.Tick()
		}
	}
}

// Test returns the loaded definition, questions in display order.
func (s *Session) Test() quiz.Test { return s.test }

// RecordAnswer selects optionID for questionID, replacing any prior selection.
func (s *Session) RecordAnswer(questionID, optionID string) error {
	if _, ok := s.test.Question(questionID); !ok {
		return errors.Wrapf(quiz.ErrUnknownQuestion, "question %q", questionID)
	}
	if _, ok := s.test.OptionOf(questionID, optionID); !ok {
		return errors.Wrapf(quiz.ErrOptionMismatch, "option %q, question %q", optionID, questionID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateSubmitted {
		return quiz.ErrSessionClosed
	}
	s.answers[questionID] = optionID
	return nil
}

// ToggleReview flips the review-later flag of questionID.
func (s *Session) ToggleReview(questionID string) error {
	if _, ok := s.test.Question(questionID); !ok {
		return errors.Wrapf(quiz.ErrUnknownQuestion, "question %q", questionID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateSubmitted {
		return quiz.ErrSessionClosed
	}
	if _, ok := s.review[questionID]; ok {
		delete(s.review, questionID)
	} else {
		s.review[questionID] = struct{}{}
	}
	return nil
}

// Tick advances the elapsed-time counter by one second. No-op once closed.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.elapsed++
}

func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.elapsed) * time.Second
}

func (s *Session) Answers() quiz.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

func (s *Session) Reviewed() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.review))
	for id := range s.review {
		out[id] = true
	}
	return out
}

// Close ends the session: it cancels in-flight work and waits for every
// background task to return.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.focusCancel != nil {
		s.focusCancel()
		s.focusCancel = nil
	}
	s.mu.Unlock()

	s.cancel()
	return s.g.Wait()
}

// spawn runs fn in the session group. Caller holds s.mu and has checked
// s.closed, so the group is never grown after Close starts waiting.
func (s *Session) spawn(fn func() error) {
	s.g.Go(fn)
}
