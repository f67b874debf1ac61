package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	auth "github.com/mind-engage/mindcheck/internal/auth/middleware"
	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/rbac"
	"github.com/mind-engage/mindcheck/internal/store"
)

// POST /test/submitUserTestResult
// The payload's userId must be the caller unless the role holds
// result:submit-any. The stored label is recomputed from the answers.
func SubmitResultHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p quiz.AttemptPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sub := auth.SubjectFromContext(r.Context())
		if p.UserID != sub && !rbac.Can(r.Context(), "result:submit-any") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		res, err := st.RecordResult(r.Context(), p)
		switch {
		case err == nil:
		case quiz.IsNotFound(err):
			http.Error(w, "test not found", http.StatusNotFound)
			return
		case quiz.IsValidation(err), errors.Is(err, store.ErrInvalidAnswers):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		default:
			log.Printf("api: record result user=%s test=%s: %v", p.UserID, p.TestID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// GET /results?test_id=...&user_id=...&limit=50&offset=0
// Without result:view-all the listing is scoped to the caller.
func ListResultsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := store.ResultListOpts{
			TestID: strings.TrimSpace(q.Get("test_id")),
			UserID: strings.TrimSpace(q.Get("user_id")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if !rbac.Can(r.Context(), "result:view-all") {
			opts.UserID = auth.SubjectFromContext(r.Context())
		}
		list, err := st.ListResults(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []quiz.Result{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /results/{resultID}
// Other users' results read as missing unless the role holds result:view-all.
func GetResultHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := st.GetResult(r.Context(), chi.URLParam(r, "resultID"))
		if errors.Is(err, store.ErrResultNotFound) {
			http.Error(w, "result not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if res.UserID != auth.SubjectFromContext(r.Context()) && !rbac.Can(r.Context(), "result:view-all") {
			http.Error(w, "result not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
