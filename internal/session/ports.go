package session

import (
	"context"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

// TestProvider loads a test definition by id.
type TestProvider interface {
	GetTest(ctx context.Context, testID string) (quiz.Test, error)
}

// ResultSink persists a finished attempt.
type ResultSink interface {
	SubmitResult(ctx context.Context, p quiz.AttemptPayload) error
}

// Identity supplies the id of the user taking the test.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}

type IdentityFunc func(ctx context.Context) (string, error)

func (f IdentityFunc) UserID(ctx context.Context) (string, error) { return f(ctx) }

// Scroller brings a question anchor into view.
type Scroller interface {
	ScrollTo(anchor string)
}

type ScrollerFunc func(anchor string)

func (f ScrollerFunc) ScrollTo(anchor string) { f(anchor) }

type noScroll struct{}

func (noScroll) ScrollTo(string) {}
