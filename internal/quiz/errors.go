package quiz

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOptionMismatch  = errors.New("option does not belong to question")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrSessionClosed   = errors.New("session closed")
	ErrSubmitInFlight  = errors.New("submission already in progress")
)

// NotFoundError reports that no test definition could be loaded for TestID.
type NotFoundError struct {
	TestID string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("test %q not found: %v", e.TestID, e.Err)
	}
	return fmt.Sprintf("test %q not found", e.TestID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ValidationError lists every question left unanswered at submit time.
type ValidationError struct {
	Unanswered []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d question(s) unanswered", len(e.Unanswered))
}

func (e *ValidationError) Count() int { return len(e.Unanswered) }

// SubmissionError wraps a result sink failure. The attempt may be retried.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "submit test result: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsSubmission(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}
