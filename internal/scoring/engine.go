package scoring

import (
	"fmt"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

// Undetermined is returned by ResolveResult when no band matches.
const Undetermined = "undetermined"

// Outcome is the scored result of a set of answers.
type Outcome struct {
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
	Result   string `json:"result"`
}

// ComputeScore sums the scoreValue of each selected option. Unanswered
// questions, and answers naming an option the question does not have,
// contribute 0.
func ComputeScore(t quiz.Test, a quiz.Answers) int {
	total := 0
	for _, q := range t.Questions {
		sel, ok := a[q.ID]
		if !ok {
			continue
		}
		for _, o := range q.Options {
			if o.ID == sel {
				total += o.ScoreValue
				break
			}
		}
	}
	return total
}

// ResolveResult returns the label of the first band, in list order, with
// MinScore <= total <= MaxScore.
func ResolveResult(t quiz.Test, total int) string {
	for _, b := range t.Results {
		if b.MinScore <= total && total <= b.MaxScore {
			return b.ResultText
		}
	}
	return Undetermined
}

// MaxScore is the best achievable total: the highest option of every question.
func MaxScore(t quiz.Test) int {
	total := 0
	for _, q := range t.Questions {
		best, seen := 0, false
		for _, o := range q.Options {
			if !seen || o.ScoreValue > best {
				best, seen = o.ScoreValue, true
			}
		}
		total += best
	}
	return total
}

// String is the confirmation line shown after a successful submit.
func (o Outcome) String() string {
	return fmt.Sprintf("score %d/%d, result: %s", o.Score, o.MaxScore, o.Result)
}

func Evaluate(t quiz.Test, a quiz.Answers) Outcome {
	score := ComputeScore(t, a)
	return Outcome{
		Score:    score,
		MaxScore: MaxScore(t),
		Result:   ResolveResult(t, score),
	}
}

// Overlaps returns index pairs of bands whose ranges intersect. Lookup still
// resolves these by list order.
func Overlaps(t quiz.Test) [][2]int {
	var out [][2]int
	for i := 0; i < len(t.Results); i++ {
		for j := i + 1; j < len(t.Results); j++ {
			a, b := t.Results[i], t.Results[j]
			if a.MinScore <= b.MaxScore && b.MinScore <= a.MaxScore {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}
