package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/scoring"
)

func likert(qid string, order int) quiz.Question {
	q := quiz.Question{ID: qid, QuestionText: "How often? " + qid, QuestionOrder: order}
	for i := 1; i <= 4; i++ {
		q.Options = append(q.Options, quiz.Option{
			ID:         qid + "-o" + string(rune('0'+i)),
			OptionText: string(rune('0' + i)),
			ScoreValue: i,
		})
	}
	return q
}

func twoQuestionTest() quiz.Test {
	return quiz.Test{
		ID:        "phq",
		Title:     "Mood check",
		Questions: []quiz.Question{likert("q1", 1), likert("q2", 2)},
		Results: []quiz.ResultBand{
			{MinScore: 0, MaxScore: 5, ResultText: "Low"},
			{MinScore: 6, MaxScore: 8, ResultText: "Medium"},
			{MinScore: 9, MaxScore: 12, ResultText: "High"},
		},
	}
}

func TestComputeScore_SumsSelectedOptions(t *testing.T) {
	tt := twoQuestionTest()
	a := quiz.Answers{"q1": "q1-o3", "q2": "q2-o4"}

	assert.Equal(t, 7, scoring.ComputeScore(tt, a))
	assert.Equal(t, "Medium", scoring.ResolveResult(tt, 7))
}

func TestComputeScore_IndependentOfQuestionOrder(t *testing.T) {
	tt := twoQuestionTest()
	a := quiz.Answers{"q1": "q1-o2", "q2": "q2-o4"}
	want := scoring.ComputeScore(tt, a)

	tt.Questions[0], tt.Questions[1] = tt.Questions[1], tt.Questions[0]
	assert.Equal(t, want, scoring.ComputeScore(tt, a))
}

func TestComputeScore_UnansweredAndUnknownScoreZero(t *testing.T) {
	tt := twoQuestionTest()

	assert.Equal(t, 0, scoring.ComputeScore(tt, quiz.Answers{}))
	assert.Equal(t, 2, scoring.ComputeScore(tt, quiz.Answers{"q1": "q1-o2"}))
	assert.Equal(t, 0, scoring.ComputeScore(tt, quiz.Answers{"q1": "q2-o4", "zz": "q1-o1"}))
}

func TestResolveResult(t *testing.T) {
	tt := twoQuestionTest()

	cases := []struct {
		name  string
		total int
		want  string
	}{
		{"lower edge", 0, "Low"},
		{"upper edge low", 5, "Low"},
		{"medium edge", 6, "Medium"},
		{"high edge", 12, "High"},
		{"above all bands", 13, scoring.Undetermined},
		{"negative", -1, scoring.Undetermined},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoring.ResolveResult(tt, tc.total)
			assert.Equal(t, tc.want, got)
			// idempotent
			assert.Equal(t, got, scoring.ResolveResult(tt, tc.total))
		})
	}
}

func TestResolveResult_EmptyBands(t *testing.T) {
	tt := twoQuestionTest()
	tt.Results = nil
	assert.Equal(t, scoring.Undetermined, scoring.ResolveResult(tt, scoring.ComputeScore(tt, nil)))
}

func TestResolveResult_OverlapFirstMatchWins(t *testing.T) {
	tt := twoQuestionTest()
	tt.Results = []quiz.ResultBand{
		{MinScore: 0, MaxScore: 6, ResultText: "A"},
		{MinScore: 5, MaxScore: 10, ResultText: "B"},
	}
	assert.Equal(t, "A", scoring.ResolveResult(tt, 5))
	assert.Equal(t, "B", scoring.ResolveResult(tt, 7))
	assert.Equal(t, [][2]int{{0, 1}}, scoring.Overlaps(tt))
	assert.Empty(t, scoring.Overlaps(twoQuestionTest()))
}

func TestEvaluate(t *testing.T) {
	tt := twoQuestionTest()
	out := scoring.Evaluate(tt, quiz.Answers{"q1": "q1-o4", "q2": "q2-o4"})

	assert.Equal(t, scoring.Outcome{Score: 8, MaxScore: 8, Result: "Medium"}, out)
}
