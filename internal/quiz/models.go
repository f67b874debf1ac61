package quiz

import (
	"sort"
	"time"
)

type Option struct {
	ID         string `json:"id" validate:"required"`
	OptionText string `json:"optionText"`
	ScoreValue int    `json:"scoreValue"`
}

type Question struct {
	ID            string   `json:"id" validate:"required"`
	QuestionText  string   `json:"questionText"`
	QuestionOrder int      `json:"questionOrder"` // unique within a test, defines display order
	Options       []Option `json:"options" validate:"required,min=1,dive"`
}

// ResultBand maps an inclusive score range to a qualitative label.
type ResultBand struct {
	MinScore   int    `json:"minScore"`
	MaxScore   int    `json:"maxScore"`
	ResultText string `json:"resultText" validate:"required"`
}

type Test struct {
	ID           string       `json:"id" validate:"required"`
	Title        string       `json:"title"`
	Instructions string       `json:"instructions,omitempty"`
	Questions    []Question   `json:"questions" validate:"required,min=1,dive"`
	Results      []ResultBand `json:"results" validate:"dive"`
}

// Answers maps a question id to the selected option id.
type Answers map[string]string

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

type AnswerSelection struct {
	QuestionID       string `json:"questionId" validate:"required"`
	SelectedOptionID string `json:"selectedOptionId" validate:"required"`
}

// AttemptPayload is the body of POST /test/submitUserTestResult.
type AttemptPayload struct {
	UserID  string            `json:"userId" validate:"required"`
	TestID  string            `json:"testId" validate:"required"`
	Answers []AnswerSelection `json:"answers" validate:"required,min=1,dive"`
	Result  string            `json:"result" validate:"required"`
}

// Result is a persisted attempt.
type Result struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	TestID      string            `json:"testId"`
	Answers     []AnswerSelection `json:"answers"`
	Result      string            `json:"result"`
	Score       int               `json:"score"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

type TestSummary struct {
	ID            string `json:"id" db:"id"`
	Title         string `json:"title" db:"title"`
	QuestionCount int    `json:"questionCount" db:"question_count"`
}

// Normalize orders questions by QuestionOrder.
func (t *Test) Normalize() {
	sort.SliceStable(t.Questions, func(i, j int) bool {
		return t.Questions[i].QuestionOrder < t.Questions[j].QuestionOrder
	})
}

func (t Test) Question(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// OptionOf returns the option with optionID if it belongs to questionID.
func (t Test) OptionOf(questionID, optionID string) (Option, bool) {
	q, ok := t.Question(questionID)
	if !ok {
		return Option{}, false
	}
	for _, o := range q.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return Option{}, false
}

// Unanswered lists, in question order, the ids of questions with no entry in a.
func Unanswered(t Test, a Answers) []string {
	var out []string
	for _, q := range t.Questions {
		if _, ok := a[q.ID]; !ok {
			out = append(out, q.ID)
		}
	}
	return out
}

// NewAttemptPayload builds the payload in question order.
func NewAttemptPayload(userID string, t Test, a Answers, result string) AttemptPayload {
	p := AttemptPayload{UserID: userID, TestID: t.ID, Result: result}
	for _, q := range t.Questions {
		if opt, ok := a[q.ID]; ok {
			p.Answers = append(p.Answers, AnswerSelection{QuestionID: q.ID, SelectedOptionID: opt})
		}
	}
	return p
}

// AnswersFromPayload is the inverse of NewAttemptPayload's answer list.
func AnswersFromPayload(p AttemptPayload) Answers {
	a := make(Answers, len(p.Answers))
	for _, s := range p.Answers {
		a[s.QuestionID] = s.SelectedOptionID
	}
	return a
}
