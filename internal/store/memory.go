package store

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

type memoryStore struct {
	mu      sync.RWMutex
	tests   map[string]quiz.Test
	results map[string]quiz.Result
	now     func() time.Time
}

// NewMemoryStore returns a Store kept in process memory, for tests and
// offline runs.
func NewMemoryStore(tests ...quiz.Test) Store {
	m := &memoryStore{
		tests:   map[string]quiz.Test{},
		results: map[string]quiz.Result{},
		now:     time.Now,
	}
	for _, t := range tests {
		t.Normalize()
		m.tests[t.ID] = t
	}
	return m
}

func (m *memoryStore) PutTest(_ context.Context, t quiz.Test) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (quiz.Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return quiz.Test{}, &quiz.NotFoundError{TestID: id}
	}
	return t, nil
}

func (m *memoryStore) ListTests(_ context.Context) ([]quiz.TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]quiz.TestSummary, 0, len(m.tests))
	for _, t := range m.tests {
		out = append(out, quiz.TestSummary{ID: t.ID, Title: t.Title, QuestionCount: len(t.Questions)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) RecordResult(_ context.Context, p quiz.AttemptPayload) (quiz.Result, error) {
	if err := p.Validate(); err != nil {
		return quiz.Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[p.TestID]
	if !ok {
		return quiz.Result{}, &quiz.NotFoundError{TestID: p.TestID}
	}
	r, mismatch, err := buildResult(t, p, uuid.NewString(), m.now().UTC().Truncate(time.Second))
	if err != nil {
		return quiz.Result{}, err
	}
	if mismatch {
		log.Printf("store: result %s: client label %q, stored %q", r.ID, p.Result, r.Result)
	}
	m.results[r.ID] = r
	return r, nil
}

func (m *memoryStore) SubmitResult(ctx context.Context, p quiz.AttemptPayload) error {
	_, err := m.RecordResult(ctx, p)
	return err
}

func (m *memoryStore) GetResult(_ context.Context, id string) (quiz.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return quiz.Result{}, ErrResultNotFound
	}
	return r, nil
}

func (m *memoryStore) ListResults(_ context.Context, opts ResultListOpts) ([]quiz.Result, error) {
	m.mu.RLock()
	var out []quiz.Result
	for _, r := range m.results {
		if opts.UserID != "" && r.UserID != opts.UserID {
			continue
		}
		if opts.TestID != "" && r.TestID != opts.TestID {
			continue
		}
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset >= len(out) {
		return []quiz.Result{}, nil
	}
	out = out[opts.Offset:]
	if limit := normalizeLimit(opts.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
