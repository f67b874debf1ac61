package quiz

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTest() Test {
	return Test{
		ID:    "t1",
		Title: "Sleep",
		Questions: []Question{
			{ID: "q2", QuestionOrder: 2, Options: []Option{{ID: "a", ScoreValue: 0}, {ID: "b", ScoreValue: 1}}},
			{ID: "q1", QuestionOrder: 1, Options: []Option{{ID: "c", ScoreValue: 0}, {ID: "d", ScoreValue: 1}}},
		},
		Results: []ResultBand{{MinScore: 0, MaxScore: 2, ResultText: "Fine"}},
	}
}

func TestNormalize_SortsByQuestionOrder(t *testing.T) {
	tt := sampleTest()
	tt.Normalize()
	assert.Equal(t, "q1", tt.Questions[0].ID)
	assert.Equal(t, "q2", tt.Questions[1].ID)
}

func TestOptionOf(t *testing.T) {
	tt := sampleTest()

	o, ok := tt.OptionOf("q1", "d")
	require.True(t, ok)
	assert.Equal(t, 1, o.ScoreValue)

	_, ok = tt.OptionOf("q1", "a")
	assert.False(t, ok, "option of another question")
	_, ok = tt.OptionOf("nope", "a")
	assert.False(t, ok)
}

func TestUnanswered_IsSetDifference(t *testing.T) {
	tt := sampleTest()
	tt.Normalize()

	assert.Equal(t, []string{"q1", "q2"}, Unanswered(tt, Answers{}))
	assert.Equal(t, []string{"q2"}, Unanswered(tt, Answers{"q1": "c", "other": "x"}))
	assert.Empty(t, Unanswered(tt, Answers{"q1": "c", "q2": "a"}))
}

func TestNewAttemptPayload(t *testing.T) {
	tt := sampleTest()
	tt.Normalize()
	a := Answers{"q2": "b", "q1": "c"}

	p := NewAttemptPayload("u1", tt, a, "Fine")
	require.NoError(t, p.Validate())
	assert.Equal(t, "t1", p.TestID)
	assert.Equal(t, []AnswerSelection{{"q1", "c"}, {"q2", "b"}}, p.Answers)
	assert.Equal(t, a, AnswersFromPayload(p))
}

func TestAttemptPayload_ValidateRequiresFields(t *testing.T) {
	err := AttemptPayload{TestID: "t1", Result: "x"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userId")
	assert.Contains(t, err.Error(), "answers")
}

func TestTestValidate(t *testing.T) {
	require.NoError(t, sampleTest().Validate())

	dupOrder := sampleTest()
	dupOrder.Questions[1].QuestionOrder = 2
	assert.ErrorContains(t, dupOrder.Validate(), "share order")

	dupOption := sampleTest()
	dupOption.Questions[1].Options[0].ID = "a"
	assert.ErrorContains(t, dupOption.Validate(), "duplicate option")

	badBand := sampleTest()
	badBand.Results[0].MinScore = 5
	assert.ErrorContains(t, badBand.Validate(), "minScore")

	noQuestions := sampleTest()
	noQuestions.Questions = nil
	assert.Error(t, noQuestions.Validate())

	noOptions := sampleTest()
	noOptions.Questions[0].Options = nil
	assert.Error(t, noOptions.Validate())
}

func TestErrorKinds(t *testing.T) {
	nf := errors.Wrap(&NotFoundError{TestID: "x"}, "load")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsValidation(nf))

	ve := &ValidationError{Unanswered: []string{"a", "b"}}
	assert.True(t, IsValidation(ve))
	assert.Equal(t, 2, ve.Count())

	cause := errors.New("boom")
	se := &SubmissionError{Err: cause}
	assert.True(t, IsSubmission(se))
	assert.True(t, errors.Is(se, cause))
}

func TestDecodeTests(t *testing.T) {
	one, err := DecodeTests([]byte(`{"id":"a","questions":[]}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "a", one[0].ID)

	many, err := DecodeTests([]byte(" [{\"id\":\"a\"},{\"id\":\"b\"}]\n"))
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = DecodeTests([]byte(`{"id":`))
	assert.Error(t, err)
}
