package quiz

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report JSON names, not Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the payload's required fields.
func (p AttemptPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(err, "invalid attempt payload")
	}
	return nil
}

// Validate checks field constraints plus the structural invariants of a
// definition: unique question order, option ids unique across the test and
// well-formed bands.
func (t Test) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(err, "invalid test definition")
	}
	orders := map[int]string{}
	qids := map[string]struct{}{}
	oids := map[string]struct{}{}
	for _, q := range t.Questions {
		if _, dup := qids[q.ID]; dup {
			return errors.Errorf("invalid test definition: duplicate question id %q", q.ID)
		}
		qids[q.ID] = struct{}{}
		if prev, dup := orders[q.QuestionOrder]; dup {
			return errors.Errorf("invalid test definition: questions %q and %q share order %d", prev, q.ID, q.QuestionOrder)
		}
		orders[q.QuestionOrder] = q.ID
		for _, o := range q.Options {
			if _, dup := oids[o.ID]; dup {
				return errors.Errorf("invalid test definition: duplicate option id %q", o.ID)
			}
			oids[o.ID] = struct{}{}
		}
	}
	for i, b := range t.Results {
		if b.MinScore > b.MaxScore {
			return errors.Errorf("invalid test definition: band %d has minScore %d > maxScore %d", i, b.MinScore, b.MaxScore)
		}
	}
	return nil
}
