package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mindcheck/internal/api/http"
	auth "github.com/mind-engage/mindcheck/internal/auth/middleware"
	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/rbac"
	"github.com/mind-engage/mindcheck/internal/store"
)

func moodTest() quiz.Test {
	opts := func(q string) []quiz.Option {
		return []quiz.Option{
			{ID: q + "0", OptionText: "No", ScoreValue: 0},
			{ID: q + "5", OptionText: "Yes", ScoreValue: 5},
		}
	}
	return quiz.Test{
		ID:    "mood",
		Title: "Mood check",
		Questions: []quiz.Question{
			{ID: "q1", QuestionText: "Sleeping badly?", QuestionOrder: 1, Options: opts("q1")},
			{ID: "q2", QuestionText: "Low energy?", QuestionOrder: 2, Options: opts("q2")},
		},
		Results: []quiz.ResultBand{
			{MinScore: 0, MaxScore: 4, ResultText: "Low"},
			{MinScore: 5, MaxScore: 10, ResultText: "High"},
		},
	}
}

type fixture struct {
	srv   *httptest.Server
	st    store.Store
	authn *auth.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore(moodTest())
	a := auth.NewAuthService("test-secret", time.Hour)
	srv := httptest.NewServer(api.NewRouter(api.Deps{Store: st, Auth: a}))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, st: st, authn: a}
}

func (f *fixture) do(t *testing.T, method, path, sub, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		tok, err := f.authn.IssueJWT(sub, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func attempt(user, a1, a2, label string) quiz.AttemptPayload {
	return quiz.AttemptPayload{
		UserID: user,
		TestID: "mood",
		Answers: []quiz.AnswerSelection{
			{QuestionID: "q1", SelectedOptionID: a1},
			{QuestionID: "q2", SelectedOptionID: a2},
		},
		Result: label,
	}
}

func TestGetTest(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/test/mood", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = f.do(t, http.MethodGet, "/test/mood", "u1", rbac.RoleStudent, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got quiz.Test
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, moodTest(), got)

	res = f.do(t, http.MethodGet, "/test/nope", "u1", rbac.RoleStudent, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUploadTest_RequiresCreate(t *testing.T) {
	f := newFixture(t)
	next := moodTest()
	next.ID = "mood2"

	res := f.do(t, http.MethodPost, "/tests", "u1", rbac.RoleStudent, next)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = f.do(t, http.MethodPost, "/tests", "c1", rbac.RoleClinician, next)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = f.do(t, http.MethodPost, "/tests", "c1", rbac.RoleClinician, quiz.Test{ID: "empty"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	bad := moodTest()
	bad.Questions[1].QuestionOrder = 1
	res = f.do(t, http.MethodPost, "/tests", "c1", rbac.RoleClinician, bad)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = f.do(t, http.MethodGet, "/tests", "u1", rbac.RoleStudent, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list []quiz.TestSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Len(t, list, 2)
}

func TestSubmitResult(t *testing.T) {
	f := newFixture(t)
	const path = "/test/submitUserTestResult"

	res := f.do(t, http.MethodPost, path, "u1", rbac.RoleStudent, attempt("u1", "q10", "q25", "High"))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var got quiz.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, 5, got.Score)
	assert.Equal(t, "High", got.Result)
	assert.Equal(t, "u1", got.UserID)

	// someone else's id
	res = f.do(t, http.MethodPost, path, "u1", rbac.RoleStudent, attempt("u2", "q10", "q25", "High"))
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res = f.do(t, http.MethodPost, path, "admin", rbac.RoleAdmin, attempt("u2", "q10", "q20", "Low"))
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	// option of another question
	res = f.do(t, http.MethodPost, path, "u1", rbac.RoleStudent, attempt("u1", "q25", "q25", "High"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	partial := attempt("u1", "q10", "q25", "High")
	partial.Answers = partial.Answers[:1]
	res = f.do(t, http.MethodPost, path, "u1", rbac.RoleStudent, partial)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	missing := attempt("u1", "q10", "q25", "High")
	missing.TestID = "other"
	res = f.do(t, http.MethodPost, path, "u1", rbac.RoleStudent, missing)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = f.do(t, http.MethodPost, path, "u1", rbac.RoleStudent, quiz.AttemptPayload{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestResults_ScopedToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine, err := f.st.RecordResult(ctx, attempt("u1", "q10", "q20", "Low"))
	require.NoError(t, err)
	theirs, err := f.st.RecordResult(ctx, attempt("u2", "q15", "q25", "High"))
	require.NoError(t, err)

	var list []quiz.Result
	res := f.do(t, http.MethodGet, "/results?user_id=u2", "u1", rbac.RoleStudent, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	res = f.do(t, http.MethodGet, "/results?test_id=mood", "c1", rbac.RoleClinician, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list = nil
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Len(t, list, 2)

	res = f.do(t, http.MethodGet, "/results/"+theirs.ID, "u1", rbac.RoleStudent, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res = f.do(t, http.MethodGet, "/results/"+theirs.ID, "c1", rbac.RoleClinician, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = f.do(t, http.MethodGet, "/results/"+mine.ID, "u1", rbac.RoleStudent, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHealthAndReady(t *testing.T) {
	errDown := errors.New("db down")
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Store: store.NewMemoryStore(),
		Auth:  auth.NewAuthService("x", time.Hour),
		Ready: func(context.Context) error { return errDown },
	}))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}
