package store_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindcheck/internal/db"
	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/session"
	"github.com/mind-engage/mindcheck/internal/store"
)

var (
	_ session.TestProvider = store.Store(nil)
	_ session.ResultSink   = store.Store(nil)
)

func anxietyTest() quiz.Test {
	q := func(id string, order int) quiz.Question {
		return quiz.Question{ID: id, QuestionText: "Item " + id, QuestionOrder: order, Options: []quiz.Option{
			{ID: id + "-never", OptionText: "Never", ScoreValue: 0},
			{ID: id + "-often", OptionText: "Often", ScoreValue: 2},
			{ID: id + "-always", OptionText: "Always", ScoreValue: 3},
		}}
	}
	return quiz.Test{
		ID:        "gad",
		Title:     "Anxiety",
		Questions: []quiz.Question{q("b", 2), q("a", 1)},
		Results: []quiz.ResultBand{
			{MinScore: 0, MaxScore: 2, ResultText: "Minimal"},
			{MinScore: 3, MaxScore: 6, ResultText: "Elevated"},
		},
	}
}

func payload(user string, a, b string, label string) quiz.AttemptPayload {
	return quiz.AttemptPayload{
		UserID: user,
		TestID: "gad",
		Answers: []quiz.AnswerSelection{
			{QuestionID: "a", SelectedOptionID: a},
			{QuestionID: "b", SelectedOptionID: b},
		},
		Result: label,
	}
}

func openSQLite(t *testing.T) *store.SQLStore {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return store.NewSQLStore(dbh)
}

func stores(t *testing.T) map[string]store.Store {
	return map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
}

func TestStore_TestRoundTrip(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := st.GetTest(ctx, "gad")
			assert.True(t, quiz.IsNotFound(err))

			require.NoError(t, st.PutTest(ctx, anxietyTest()))
			got, err := st.GetTest(ctx, "gad")
			require.NoError(t, err)
			assert.Equal(t, "a", got.Questions[0].ID, "stored in display order")
			assert.Equal(t, anxietyTest().Results, got.Results)

			list, err := st.ListTests(ctx)
			require.NoError(t, err)
			assert.Equal(t, []quiz.TestSummary{{ID: "gad", Title: "Anxiety", QuestionCount: 2}}, list)

			bad := anxietyTest()
			bad.Questions[0].QuestionOrder = 1
			assert.Error(t, st.PutTest(ctx, bad))
		})
	}
}

func TestStore_RecordResult(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.PutTest(ctx, anxietyTest()))

			r, err := st.RecordResult(ctx, payload("u1", "a-often", "b-always", "Elevated"))
			require.NoError(t, err)
			assert.NotEmpty(t, r.ID)
			assert.Equal(t, 5, r.Score)
			assert.Equal(t, "Elevated", r.Result)

			got, err := st.GetResult(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, r, got)

			// label is recomputed server side
			r2, err := st.RecordResult(ctx, payload("u2", "a-never", "b-never", "Elevated"))
			require.NoError(t, err)
			assert.Equal(t, "Minimal", r2.Result)

			mine, err := st.ListResults(ctx, store.ResultListOpts{UserID: "u1"})
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, r.ID, mine[0].ID)

			all, err := st.ListResults(ctx, store.ResultListOpts{TestID: "gad"})
			require.NoError(t, err)
			assert.Len(t, all, 2)

			_, err = st.GetResult(ctx, "nope")
			assert.True(t, errors.Is(err, store.ErrResultNotFound))
		})
	}
}

func TestStore_RecordResultRejectsBadAnswers(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.PutTest(ctx, anxietyTest()))

			_, err := st.RecordResult(ctx, payload("u1", "b-often", "b-always", "x"))
			assert.True(t, errors.Is(err, store.ErrInvalidAnswers))

			partial := payload("u1", "a-often", "b-always", "x")
			partial.Answers = partial.Answers[:1]
			_, err = st.RecordResult(ctx, partial)
			assert.True(t, quiz.IsValidation(err))

			_, err = st.RecordResult(ctx, quiz.AttemptPayload{TestID: "gad"})
			assert.Error(t, err)

			missing := payload("u1", "a-often", "b-always", "x")
			missing.TestID = "other"
			_, err = st.RecordResult(ctx, missing)
			assert.True(t, quiz.IsNotFound(err))
		})
	}
}

func TestSQLStore_EventLogged(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, st.PutTest(ctx, anxietyTest()))
	require.NoError(t, st.SubmitResult(ctx, payload("u1", "a-often", "b-always", "Elevated")))

	events, err := st.Events().Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, store.EventResultSubmitted, events[0].Type)
	assert.Contains(t, events[0].DataJSON, `"userId":"u1"`)

	later, err := st.Events().Since(ctx, events[0].Seq, 10)
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestSQLStore_Users(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "ana", "s3cret", "student")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = st.CreateUser(ctx, "ana", "other", "student")
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	got, err := st.Authenticate(ctx, "ana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = st.Authenticate(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
	_, err = st.Authenticate(ctx, "bob", "s3cret")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestEventRepo_Cursor(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	seq, err := st.Events().Cursor(ctx, "webhook")
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, st.Events().SaveCursor(ctx, "webhook", 4))
	require.NoError(t, st.Events().SaveCursor(ctx, "webhook", 9))
	seq, err = st.Events().Cursor(ctx, "webhook")
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}
