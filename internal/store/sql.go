package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

type SQLStore struct {
	db     *sqlx.DB
	events *EventRepo
	now    func() time.Time
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, events: NewEventRepo(db), now: time.Now}
}

// Events exposes the store's event log.
func (s *SQLStore) Events() *EventRepo { return s.events }

func (s *SQLStore) PutTest(ctx context.Context, t quiz.Test) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	buf, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO tests (id,title,definition_json,question_count,created_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, definition_json=EXCLUDED.definition_json, question_count=EXCLUDED.question_count`),
		t.ID, t.Title, string(buf), len(t.Questions), s.now().Unix())
	return errors.Wrapf(err, "put test %s", t.ID)
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (quiz.Test, error) {
	return getTest(ctx, s.db, id)
}

func getTest(ctx context.Context, q sqlx.ExtContext, id string) (quiz.Test, error) {
	var def string
	err := sqlx.GetContext(ctx, q, &def, q.Rebind(`SELECT definition_json FROM tests WHERE id=?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Test{}, &quiz.NotFoundError{TestID: id}
		}
		return quiz.Test{}, errors.Wrapf(err, "get test %s", id)
	}
	var t quiz.Test
	if err := json.Unmarshal([]byte(def), &t); err != nil {
		return quiz.Test{}, errors.Wrapf(err, "decode test %s", id)
	}
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context) ([]quiz.TestSummary, error) {
	out := []quiz.TestSummary{}
	err := s.db.SelectContext(ctx, &out, `SELECT id, title, question_count FROM tests ORDER BY title, id`)
	return out, errors.Wrap(err, "list tests")
}

func (s *SQLStore) RecordResult(ctx context.Context, p quiz.AttemptPayload) (quiz.Result, error) {
	if err := p.Validate(); err != nil {
		return quiz.Result{}, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return quiz.Result{}, err
	}
	defer tx.Rollback()

	t, err := getTest(ctx, tx, p.TestID)
	if err != nil {
		return quiz.Result{}, err
	}
	r, mismatch, err := buildResult(t, p, uuid.NewString(), s.now().UTC().Truncate(time.Second))
	if err != nil {
		return quiz.Result{}, err
	}
	if mismatch {
		log.Printf("store: result %s: client label %q, stored %q", r.ID, p.Result, r.Result)
	}
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return quiz.Result{}, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO results (id,user_id,test_id,answers_json,result,score,submitted_at)
		VALUES (?,?,?,?,?,?,?)`),
		r.ID, r.UserID, r.TestID, string(answers), r.Result, r.Score, r.SubmittedAt.Unix()); err != nil {
		return quiz.Result{}, errors.Wrap(err, "insert result")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return quiz.Result{}, err
	}
	if err := s.events.Append(ctx, tx, Event{Type: EventResultSubmitted, Key: r.ID, DataJSON: string(data)}); err != nil {
		return quiz.Result{}, errors.Wrap(err, "append event")
	}
	if err := tx.Commit(); err != nil {
		return quiz.Result{}, err
	}
	return r, nil
}

func (s *SQLStore) SubmitResult(ctx context.Context, p quiz.AttemptPayload) error {
	_, err := s.RecordResult(ctx, p)
	return err
}

type resultRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	TestID      string `db:"test_id"`
	AnswersJSON string `db:"answers_json"`
	Result      string `db:"result"`
	Score       int    `db:"score"`
	SubmittedAt int64  `db:"submitted_at"`
}

func (row resultRow) toResult() quiz.Result {
	r := quiz.Result{
		ID:          row.ID,
		UserID:      row.UserID,
		TestID:      row.TestID,
		Result:      row.Result,
		Score:       row.Score,
		SubmittedAt: time.Unix(row.SubmittedAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(row.AnswersJSON), &r.Answers); err != nil {
		r.Answers = nil
	}
	return r
}

const resultCols = `id, user_id, test_id, answers_json, result, score, submitted_at`

func (s *SQLStore) GetResult(ctx context.Context, id string) (quiz.Result, error) {
	var row resultRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+resultCols+` FROM results WHERE id=?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Result{}, ErrResultNotFound
		}
		return quiz.Result{}, err
	}
	return row.toResult(), nil
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]quiz.Result, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.TestID != "" {
		where = append(where, "test_id = ?")
		args = append(args, opts.TestID)
	}
	q := `SELECT ` + resultCols + ` FROM results`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY submitted_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, normalizeLimit(opts.Limit), opts.Offset)

	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "list results")
	}
	out := make([]quiz.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toResult())
	}
	return out, nil
}
