package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/scoring"
	"github.com/mind-engage/mindcheck/internal/store"
)

// GET /test/{testID}
func GetTestHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		t, err := st.GetTest(r.Context(), id)
		if err != nil {
			if quiz.IsNotFound(err) {
				http.Error(w, "test not found", http.StatusNotFound)
				return
			}
			log.Printf("api: get test %s: %v", id, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// POST /tests  (body: quiz.Test). Re-uploading an id replaces the definition.
func UploadTestHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t quiz.Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t.Normalize()
		if err := t.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, pair := range scoring.Overlaps(t) {
			a, b := t.Results[pair[0]], t.Results[pair[1]]
			log.Printf("api: test %s: bands %q and %q overlap; %q wins", t.ID, a.ResultText, b.ResultText, a.ResultText)
		}
		if err := st.PutTest(r.Context(), t); err != nil {
			log.Printf("api: put test %s: %v", t.ID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, quiz.TestSummary{ID: t.ID, Title: t.Title, QuestionCount: len(t.Questions)})
	}
}

// GET /tests
func ListTestsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := st.ListTests(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
