package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/scoring"
)

var (
	ErrResultNotFound = errors.New("result not found")
	ErrInvalidAnswers = errors.New("answers do not match test definition")
)

type ResultListOpts struct {
	UserID string // filter by user
	TestID string // filter by test
	Limit  int
	Offset int
}

// Store holds test definitions and submitted results. Both implementations
// satisfy session.TestProvider and session.ResultSink.
type Store interface {
	GetTest(ctx context.Context, id string) (quiz.Test, error)
	PutTest(ctx context.Context, t quiz.Test) error
	ListTests(ctx context.Context) ([]quiz.TestSummary, error)

	// RecordResult re-scores p against the stored definition and persists it.
	RecordResult(ctx context.Context, p quiz.AttemptPayload) (quiz.Result, error)
	SubmitResult(ctx context.Context, p quiz.AttemptPayload) error
	GetResult(ctx context.Context, id string) (quiz.Result, error)
	ListResults(ctx context.Context, opts ResultListOpts) ([]quiz.Result, error)
}

// buildResult checks every answer against t and scores the attempt. The
// stored label is the server's; a mismatching client label is reported via
// labelMismatch.
func buildResult(t quiz.Test, p quiz.AttemptPayload, id string, now time.Time) (r quiz.Result, labelMismatch bool, err error) {
	seen := map[string]struct{}{}
	for _, a := range p.Answers {
		if _, dup := seen[a.QuestionID]; dup {
			return quiz.Result{}, false, errors.Wrapf(ErrInvalidAnswers, "question %q answered twice", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
		if _, ok := t.OptionOf(a.QuestionID, a.SelectedOptionID); !ok {
			return quiz.Result{}, false, errors.Wrapf(ErrInvalidAnswers, "option %q of question %q", a.SelectedOptionID, a.QuestionID)
		}
	}
	answers := quiz.AnswersFromPayload(p)
	if missing := quiz.Unanswered(t, answers); len(missing) > 0 {
		return quiz.Result{}, false, &quiz.ValidationError{Unanswered: missing}
	}
	out := scoring.Evaluate(t, answers)
	return quiz.Result{
		ID:          id,
		UserID:      p.UserID,
		TestID:      p.TestID,
		Answers:     p.Answers,
		Result:      out.Result,
		Score:       out.Score,
		SubmittedAt: now,
	}, out.Result != p.Result, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
